package collaborations

import (
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/hazemadel/vitrine/pkg/storage/sqlite"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	storage, err := sqlite.New(logger, ":memory:")
	require.NoError(t, err)

	// a single connection keeps every query on the same in-memory database
	storage.Connection.SetMaxOpenConns(1)
	t.Cleanup(storage.Close)
	return storage.Connection
}

func addUser(t *testing.T, db *sql.DB, id, email, name string) {
	t.Helper()
	var now = time.Now().UTC()
	_, err := db.Exec(
		"INSERT INTO users (id, email, password, created, updated) VALUES (?, ?, 'irrelevant', ?, ?)",
		id, email, now, now,
	)
	require.NoError(t, err)
	_, err = db.Exec(
		"INSERT INTO profiles (user_id, full_name, updated) VALUES (?, ?, ?)",
		id, name, now,
	)
	require.NoError(t, err)
}

func addProject(t *testing.T, db *sql.DB, id, ownerId, title string) {
	t.Helper()
	var now = time.Now().UTC()
	_, err := db.Exec(`
		INSERT INTO projects (id, user_id, title, description, department, creator_name, created, updated)
		VALUES (?, ?, ?, 'A line following robot built from scratch.', 'Engineering', 'Ola Owner', ?, ?)`,
		id, ownerId, title, now, now,
	)
	require.NoError(t, err)
	_, err = db.Exec(
		"INSERT INTO project_collaborators (id, project_id, user_id, role, added) VALUES (?, ?, ?, 'owner', ?)",
		id+"-owner", id, ownerId, now,
	)
	require.NoError(t, err)
}

// newSeededStore provides a store with one project, its owner and a prospective collaborator.
func newSeededStore(t *testing.T) *Store {
	t.Helper()
	db := newTestDB(t)
	addUser(t, db, "owner", "owner@horus.edu.eg", "Ola Owner")
	addUser(t, db, "invitee", "invitee@horus.edu.eg", "Ines Invitee")
	addProject(t, db, "project", "owner", "Line Follower")
	return NewStore(db)
}

func TestAddInvite_NormalisesEmail(t *testing.T) {
	store := newSeededStore(t)

	invite, err := store.AddInvite("project", "owner", "  Invitee@Horus.edu.eg ")
	require.NoError(t, err)
	require.Equal(t, "invitee@horus.edu.eg", invite.InviteeEmail)
	require.Equal(t, StatusPending, invite.Status)

	invites, err := store.GetUserInvites("invitee@horus.edu.eg")
	require.NoError(t, err)
	require.Len(t, invites, 1)
	require.Equal(t, invite.Id, invites[0].Id)
	require.Equal(t, "Line Follower", invites[0].ProjectTitle)
	require.Equal(t, "Ola Owner", invites[0].CreatorName)
}

func TestAcceptInvite_AddsCollaboratorAtomically(t *testing.T) {
	store := newSeededStore(t)

	invite, err := store.AddInvite("project", "owner", "invitee@horus.edu.eg")
	require.NoError(t, err)

	require.NoError(t, store.AcceptInvite(invite.Id, "invitee@horus.edu.eg", "invitee"))

	var status InviteStatus
	require.NoError(t, store.Connection.QueryRow(
		"SELECT status FROM collaboration_invites WHERE id = ?", invite.Id,
	).Scan(&status))
	require.Equal(t, StatusAccepted, status)

	collaborators, err := store.GetCollaborators("project")
	require.NoError(t, err)
	require.Len(t, collaborators, 2)
	require.Equal(t, RoleOwner, collaborators[0].Role)
	require.Equal(t, "invitee", collaborators[1].UserId)
	require.Equal(t, RoleCollaborator, collaborators[1].Role)
	require.Equal(t, "Ines Invitee", collaborators[1].FullName)
}

func TestAcceptInvite_TerminalStatesStayTerminal(t *testing.T) {
	store := newSeededStore(t)

	accepted, err := store.AddInvite("project", "owner", "invitee@horus.edu.eg")
	require.NoError(t, err)
	require.NoError(t, store.AcceptInvite(accepted.Id, "invitee@horus.edu.eg", "invitee"))

	// a second acceptance, or a decline, must bounce off the accepted state
	require.ErrorIs(t, store.AcceptInvite(accepted.Id, "invitee@horus.edu.eg", "invitee"), ErrNotPending)
	require.ErrorIs(t, store.DeclineInvite(accepted.Id, "invitee@horus.edu.eg"), ErrNotPending)

	declined, err := store.AddInvite("project", "owner", "invitee@horus.edu.eg")
	require.NoError(t, err)
	require.NoError(t, store.DeclineInvite(declined.Id, "invitee@horus.edu.eg"))
	require.ErrorIs(t, store.AcceptInvite(declined.Id, "invitee@horus.edu.eg", "invitee"), ErrNotPending)
}

func TestAcceptInvite_FailureAddsNoCollaborator(t *testing.T) {
	store := newSeededStore(t)

	invite, err := store.AddInvite("project", "owner", "invitee@horus.edu.eg")
	require.NoError(t, err)
	require.NoError(t, store.DeclineInvite(invite.Id, "invitee@horus.edu.eg"))

	require.ErrorIs(t, store.AcceptInvite(invite.Id, "invitee@horus.edu.eg", "invitee"), ErrNotPending)

	collaborators, err := store.GetCollaborators("project")
	require.NoError(t, err)
	require.Len(t, collaborators, 1)
	require.Equal(t, RoleOwner, collaborators[0].Role)
}

func TestAcceptInvite_WrongInvitee(t *testing.T) {
	store := newSeededStore(t)

	invite, err := store.AddInvite("project", "owner", "invitee@horus.edu.eg")
	require.NoError(t, err)

	require.ErrorIs(t, store.AcceptInvite(invite.Id, "stranger@horus.edu.eg", "stranger"), ErrNotFound)
}

func TestAcceptInvite_AlreadyCollaborating(t *testing.T) {
	store := newSeededStore(t)

	first, err := store.AddInvite("project", "owner", "invitee@horus.edu.eg")
	require.NoError(t, err)
	second, err := store.AddInvite("project", "owner", "invitee@horus.edu.eg")
	require.NoError(t, err)

	require.NoError(t, store.AcceptInvite(first.Id, "invitee@horus.edu.eg", "invitee"))
	require.ErrorIs(t, store.AcceptInvite(second.Id, "invitee@horus.edu.eg", "invitee"), ErrAlreadyCollaborating)

	// the doomed acceptance must leave the second invite pending
	var status InviteStatus
	require.NoError(t, store.Connection.QueryRow(
		"SELECT status FROM collaboration_invites WHERE id = ?", second.Id,
	).Scan(&status))
	require.Equal(t, StatusPending, status)
}

func TestDeclineInvite_DistinguishesMissingFromTerminal(t *testing.T) {
	store := newSeededStore(t)

	// an id nobody ever issued, and somebody else's invite, are both not found
	require.ErrorIs(t, store.DeclineInvite("missing", "invitee@horus.edu.eg"), ErrNotFound)

	invite, err := store.AddInvite("project", "owner", "invitee@horus.edu.eg")
	require.NoError(t, err)
	require.ErrorIs(t, store.DeclineInvite(invite.Id, "stranger@horus.edu.eg"), ErrNotFound)

	// whereas a terminal invite is reported as such
	require.NoError(t, store.DeclineInvite(invite.Id, "invitee@horus.edu.eg"))
	require.ErrorIs(t, store.DeclineInvite(invite.Id, "invitee@horus.edu.eg"), ErrNotPending)
}

func TestCancelInvite(t *testing.T) {
	store := newSeededStore(t)

	invite, err := store.AddInvite("project", "owner", "invitee@horus.edu.eg")
	require.NoError(t, err)

	// only the project owner may withdraw the invite
	require.ErrorIs(t, store.CancelInvite(invite.Id, "invitee"), ErrNotPending)
	require.NoError(t, store.CancelInvite(invite.Id, "owner"))

	invites, err := store.GetProjectInvites("project")
	require.NoError(t, err)
	require.Empty(t, invites)

	require.ErrorIs(t, store.CancelInvite(invite.Id, "owner"), ErrNotPending)
}

func TestGetProjectInvites_PendingOnly(t *testing.T) {
	store := newSeededStore(t)

	pending, err := store.AddInvite("project", "owner", "pending@horus.edu.eg")
	require.NoError(t, err)
	declined, err := store.AddInvite("project", "owner", "invitee@horus.edu.eg")
	require.NoError(t, err)
	require.NoError(t, store.DeclineInvite(declined.Id, "invitee@horus.edu.eg"))

	invites, err := store.GetProjectInvites("project")
	require.NoError(t, err)
	require.Len(t, invites, 1)
	require.Equal(t, pending.Id, invites[0].Id)
}

func TestRemoveCollaborator(t *testing.T) {
	store := newSeededStore(t)

	invite, err := store.AddInvite("project", "owner", "invitee@horus.edu.eg")
	require.NoError(t, err)
	require.NoError(t, store.AcceptInvite(invite.Id, "invitee@horus.edu.eg", "invitee"))

	// strangers can't expel collaborators, and nobody can expel the owner
	require.ErrorIs(t, store.RemoveCollaborator("project", "invitee", "invitee"), ErrNotFound)
	require.ErrorIs(t, store.RemoveCollaborator("project", "owner", "owner"), ErrNotFound)

	require.NoError(t, store.RemoveCollaborator("project", "invitee", "owner"))

	collaborators, err := store.GetCollaborators("project")
	require.NoError(t, err)
	require.Len(t, collaborators, 1)
	require.Equal(t, RoleOwner, collaborators[0].Role)
}

func TestIsProjectOwner(t *testing.T) {
	store := newSeededStore(t)

	require.True(t, store.IsProjectOwner("project", "owner"))
	require.False(t, store.IsProjectOwner("project", "invitee"))
	require.False(t, store.IsProjectOwner("missing", "owner"))
}

func TestInviteData_Validate(t *testing.T) {
	require.NoError(t, InviteData{InviteeEmail: "peer@horus.edu.eg"}.Validate())
	require.Error(t, InviteData{}.Validate())
	require.Error(t, InviteData{InviteeEmail: "not-an-address"}.Validate())
	require.Error(t, InviteData{InviteeEmail: "missing@domain"}.Validate())
}
