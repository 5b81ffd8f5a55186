package collaborations

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/hazemadel/vitrine/pkg/ntime"
	"github.com/hazemadel/vitrine/pkg/rest"
	"github.com/mattn/go-sqlite3"
)

type Storer interface {
	AddInvite(projectId, inviterId, inviteeEmail string) (Invite, error)
	GetProjectInvites(projectId string) ([]Invite, error)
	GetUserInvites(inviteeEmail string) ([]UserInvite, error)
	AcceptInvite(inviteId, inviteeEmail, userId string) error
	DeclineInvite(inviteId, inviteeEmail string) error
	CancelInvite(inviteId, requesterId string) error
	GetCollaborators(projectId string) ([]Collaborator, error)
	RemoveCollaborator(projectId, targetUserId, requesterId string) error
	IsProjectOwner(projectId, userId string) bool
}

type Store struct {
	Connection *sql.DB
}

var (
	ErrNotFound = errors.New("not found")

	// ErrNotPending rejects transitions out of the accepted and declined terminal states.
	ErrNotPending = errors.New("invite is no longer pending")

	ErrAlreadyCollaborating = errors.New("user already collaborates on the project")
)

func NewStore(connection *sql.DB) *Store {
	return &Store{connection}
}

// AddInvite records a pending invite; the invitee may well lack an account at this point,
// hence the email key rather than a user id.
func (cs *Store) AddInvite(projectId, inviterId, inviteeEmail string) (Invite, error) {

	var invite = Invite{
		Id:           rest.MustGetNewUUID(),
		ProjectId:    projectId,
		InviterId:    inviterId,
		InviteeEmail: strings.ToLower(strings.TrimSpace(inviteeEmail)),
		Status:       StatusPending,
		Created:      ntime.Now(),
	}

	_, err := cs.Connection.Exec(`
		INSERT INTO collaboration_invites (id, project_id, inviter_id, invitee_email, status, created)
		VALUES (?, ?, ?, ?, ?, ?)`,
		invite.Id, invite.ProjectId, invite.InviterId, invite.InviteeEmail, invite.Status, invite.Created,
	)
	if err != nil {
		return Invite{}, err
	}
	return invite, nil
}

// GetProjectInvites lists a project's pending invites, for its owner's eyes.
func (cs *Store) GetProjectInvites(projectId string) ([]Invite, error) {

	var invites = make([]Invite, 0)
	rows, err := cs.Connection.Query(`
		SELECT id, project_id, inviter_id, invitee_email, status, created
		FROM collaboration_invites
		WHERE project_id = ? AND status = 'pending'
		ORDER BY created DESC`,
		projectId,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var invite Invite
		if err = rows.Scan(&invite.Id, &invite.ProjectId, &invite.InviterId,
			&invite.InviteeEmail, &invite.Status, &invite.Created); err != nil {
			return invites, err
		}
		invites = append(invites, invite)
	}
	return invites, rows.Err()
}

// GetUserInvites lists the pending invites addressed to the given email, enriched with the
// target projects' titles and creator names.
func (cs *Store) GetUserInvites(inviteeEmail string) ([]UserInvite, error) {

	var invites = make([]UserInvite, 0)
	rows, err := cs.Connection.Query(`
		SELECT ci.id, ci.project_id, ci.inviter_id, ci.invitee_email, ci.status, ci.created,
			projects.title, coalesce(projects.creator_name, coalesce(full_name, ''))
		FROM collaboration_invites as ci
		JOIN projects ON ci.project_id = projects.id
		LEFT JOIN profiles ON projects.user_id = profiles.user_id
		WHERE ci.invitee_email = ? AND ci.status = 'pending'
		ORDER BY ci.created DESC`,
		strings.ToLower(inviteeEmail),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var invite UserInvite
		if err = rows.Scan(&invite.Id, &invite.ProjectId, &invite.InviterId,
			&invite.InviteeEmail, &invite.Status, &invite.Created,
			&invite.ProjectTitle, &invite.CreatorName); err != nil {
			return invites, err
		}
		invites = append(invites, invite)
	}
	return invites, rows.Err()
}

// AcceptInvite performs the whole acceptance as one serialisable transaction: the status
// flips to accepted only while still pending, and the collaborator row materialises in the
// same unit, so neither effect can surface without the other.
func (cs *Store) AcceptInvite(inviteId, inviteeEmail, userId string) error {

	tx, err := cs.Connection.Begin()
	if err != nil {
		return err
	}
	// rolling back after a transaction commit results in a safe NOP
	defer func() { _ = tx.Rollback() }()

	var projectId string
	var status InviteStatus
	if err = tx.QueryRow(
		"SELECT project_id, status FROM collaboration_invites WHERE id = ? AND invitee_email = ?",
		inviteId, strings.ToLower(inviteeEmail),
	).Scan(&projectId, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if status != StatusPending {
		return ErrNotPending
	}

	// the guarded update spots rows concurrently flipped since the read above
	result, err := tx.Exec(
		"UPDATE collaboration_invites SET status = 'accepted' WHERE id = ? AND status = 'pending'",
		inviteId,
	)
	if err != nil {
		return err
	}
	if updated, err := result.RowsAffected(); err != nil {
		return err
	} else if updated == 0 {
		return ErrNotPending
	}

	if _, err = tx.Exec(
		"INSERT INTO project_collaborators (id, project_id, user_id, role, added) VALUES (?, ?, ?, 'collaborator', ?)",
		rest.MustGetNewUUID(), projectId, userId, ntime.Now(),
	); err != nil {
		// detects whether the invitee already collaborates, the owner included
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrAlreadyCollaborating
		}
		return err
	}

	return tx.Commit()
}

// DeclineInvite marks a pending invite as declined, a terminal state.
func (cs *Store) DeclineInvite(inviteId, inviteeEmail string) error {
	result, err := cs.Connection.Exec(
		"UPDATE collaboration_invites SET status = 'declined' WHERE id = ? AND invitee_email = ? AND status = 'pending'",
		inviteId, strings.ToLower(inviteeEmail),
	)
	if err != nil {
		return err
	}
	if updated, err := result.RowsAffected(); err != nil {
		return err
	} else if updated == 0 {
		// tell invites in a terminal state apart from ones that never existed
		var exists bool
		if err = cs.Connection.QueryRow(
			"SELECT TRUE FROM collaboration_invites WHERE id = ? AND invitee_email = ?",
			inviteId, strings.ToLower(inviteeEmail),
		).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		return ErrNotPending
	}
	return nil
}

// CancelInvite lets the project owner withdraw an invite while still pending.
func (cs *Store) CancelInvite(inviteId, requesterId string) error {
	result, err := cs.Connection.Exec(`
		DELETE FROM collaboration_invites
		WHERE id = ? AND status = 'pending'
		AND project_id IN (SELECT id FROM projects WHERE user_id = ?)`,
		inviteId, requesterId,
	)
	if err != nil {
		return err
	}
	if deleted, err := result.RowsAffected(); err != nil {
		return err
	} else if deleted == 0 {
		return ErrNotPending
	}
	return nil
}

// GetCollaborators lists a project's collaborators, owner included, with display names
// resolved from profiles.
func (cs *Store) GetCollaborators(projectId string) ([]Collaborator, error) {

	var collaborators = make([]Collaborator, 0)
	rows, err := cs.Connection.Query(`
		SELECT pc.id, pc.project_id, pc.user_id, coalesce(full_name, ''), pc.role, pc.added
		FROM project_collaborators as pc
		LEFT JOIN profiles ON pc.user_id = profiles.user_id
		WHERE pc.project_id = ?
		ORDER BY pc.added`,
		projectId,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var collaborator Collaborator
		if err = rows.Scan(&collaborator.Id, &collaborator.ProjectId, &collaborator.UserId,
			&collaborator.FullName, &collaborator.Role, &collaborator.Added); err != nil {
			return collaborators, err
		}
		collaborators = append(collaborators, collaborator)
	}
	return collaborators, rows.Err()
}

// RemoveCollaborator expels a collaborator at the owner's behest; owner rows can't be
// removed, which shields projects from losing their creator.
func (cs *Store) RemoveCollaborator(projectId, targetUserId, requesterId string) error {
	result, err := cs.Connection.Exec(`
		DELETE FROM project_collaborators
		WHERE project_id = ? AND user_id = ? AND role = 'collaborator'
		AND project_id IN (SELECT id FROM projects WHERE user_id = ?)`,
		projectId, targetUserId, requesterId,
	)
	if err != nil {
		return err
	}
	if deleted, err := result.RowsAffected(); err != nil {
		return err
	} else if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

// IsProjectOwner verifies whether the given user created the project.
func (cs *Store) IsProjectOwner(projectId, userId string) bool {
	var exists = false
	var err = cs.Connection.QueryRow(
		"SELECT TRUE FROM projects WHERE id = ? AND user_id = ?",
		projectId, userId,
	).Scan(&exists)
	return err == nil && exists
}
