package projects

import (
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/hazemadel/vitrine/pkg/storage/sqlite"
	"github.com/hazemadel/vitrine/pkg/users"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	storage, err := sqlite.New(logger, ":memory:")
	require.NoError(t, err)

	// a single connection keeps every query on the same in-memory database
	storage.Connection.SetMaxOpenConns(1)
	t.Cleanup(storage.Close)

	return NewStore(storage.Connection, users.NewRepository(storage.Connection))
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

func submission(authorId, title string) AddProjectData {
	return AddProjectData{
		AuthorId:    authorId,
		CreatorName: "Sara Student",
		Title:       title,
		Description: "A line following robot built from scratch.",
		Department:  "Engineering",
		Level:       3,
		FileURL:     "http://localhost:3000/static/project-images/author/cover.png",
		FilesURLs:   []string{"http://localhost:3000/static/project-files/author/report.pdf"},
	}
}

func TestAddProject(t *testing.T) {
	store := newTestStore(t)
	addUser(t, store.Connection, "author", "author@horus.edu.eg", "Sara Student")

	project, err := store.AddProject(submission("author", "Line Follower"))
	require.NoError(t, err)
	require.NotEmpty(t, project.Id)
	require.True(t, store.OwnsProject(project.Id, "author"))

	// the primary asset must appear among the attached files
	require.Contains(t, project.FilesURLs, project.FileURL)
	require.Len(t, project.FilesURLs, 2)

	// the owner's collaborator row materialises with the project itself
	fetched, err := store.GetProject(project.Id)
	require.NoError(t, err)
	require.Equal(t, 1, fetched.Collaborators)
	require.Equal(t, project.FilesURLs, fetched.FilesURLs)
	require.Zero(t, fetched.Ratings)
	require.Zero(t, fetched.RatingAverage)
}

func TestGetProject_Aggregates(t *testing.T) {
	store := newTestStore(t)
	addUser(t, store.Connection, "author", "author@horus.edu.eg", "Sara Student")
	addUser(t, store.Connection, "peer", "peer@horus.edu.eg", "Peter Peer")
	addUser(t, store.Connection, "critic", "critic@horus.edu.eg", "Carl Critic")

	project, err := store.AddProject(submission("author", "Line Follower"))
	require.NoError(t, err)

	var now = time.Now().UTC()
	_, err = store.Connection.Exec(
		"INSERT INTO project_ratings (project_id, user_id, rating, date) VALUES (?, 'peer', 4, ?), (?, 'critic', 5, ?)",
		project.Id, now, project.Id, now,
	)
	require.NoError(t, err)
	_, err = store.Connection.Exec(
		"INSERT INTO project_likes (project_id, user_id, date) VALUES (?, 'peer', ?)",
		project.Id, now,
	)
	require.NoError(t, err)
	_, err = store.Connection.Exec(
		"INSERT INTO project_reviews (id, project_id, user_id, comment, created, updated) VALUES ('r1', ?, 'critic', 'Sound build.', ?, ?)",
		project.Id, now, now,
	)
	require.NoError(t, err)

	fetched, err := store.GetProject(project.Id)
	require.NoError(t, err)
	require.Equal(t, 2, fetched.Ratings)
	require.InDelta(t, 4.5, fetched.RatingAverage, 1e-9)
	require.Equal(t, 1, fetched.Likes)
	require.Equal(t, 1, fetched.Reviews)

	summaries, err := store.ListProjects(Filter{Level: anyLevel, Sort: SortNewest})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, 2, summaries[0].Ratings)
	require.InDelta(t, 4.5, summaries[0].RatingAverage, 1e-9)
	require.Equal(t, 1, summaries[0].Likes)
	require.Equal(t, 1, summaries[0].Reviews)
}

func TestListProjects_AggregatesKeyedPerProject(t *testing.T) {
	store := newTestStore(t)
	addUser(t, store.Connection, "author", "author@horus.edu.eg", "Sara Student")
	addUser(t, store.Connection, "peer", "peer@horus.edu.eg", "Peter Peer")
	addUser(t, store.Connection, "critic", "critic@horus.edu.eg", "Carl Critic")

	rated, err := store.AddProject(submission("author", "Line Follower"))
	require.NoError(t, err)
	liked, err := store.AddProject(submission("author", "Water Purifier"))
	require.NoError(t, err)

	// distinct engagement per project; the joined subtotals must not bleed across rows
	var now = time.Now().UTC()
	_, err = store.Connection.Exec(
		"INSERT INTO project_ratings (project_id, user_id, rating, date) VALUES (?, 'peer', 2, ?), (?, 'critic', 4, ?)",
		rated.Id, now, rated.Id, now,
	)
	require.NoError(t, err)
	_, err = store.Connection.Exec(
		"INSERT INTO project_likes (project_id, user_id, date) VALUES (?, 'peer', ?), (?, 'critic', ?)",
		liked.Id, now, liked.Id, now,
	)
	require.NoError(t, err)

	summaries, err := store.ListProjects(Filter{Level: anyLevel, Sort: SortNewest})
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	var byId = make(map[string]ProjectSummary, len(summaries))
	for _, s := range summaries {
		byId[s.Id] = s
	}
	require.Equal(t, 2, byId[rated.Id].Ratings)
	require.InDelta(t, 3.0, byId[rated.Id].RatingAverage, 1e-9)
	require.Zero(t, byId[rated.Id].Likes)
	require.Zero(t, byId[liked.Id].Ratings)
	require.Zero(t, byId[liked.Id].RatingAverage)
	require.Equal(t, 2, byId[liked.Id].Likes)
}

func TestGetProject_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetProject("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetUserProjects(t *testing.T) {
	store := newTestStore(t)
	addUser(t, store.Connection, "author", "author@horus.edu.eg", "Sara Student")
	addUser(t, store.Connection, "other", "other@horus.edu.eg", "Omar Other")

	_, err := store.AddProject(submission("author", "Line Follower"))
	require.NoError(t, err)
	_, err = store.AddProject(submission("other", "Water Purifier"))
	require.NoError(t, err)

	owned, err := store.GetUserProjects("author")
	require.NoError(t, err)
	require.Len(t, owned, 1)
	require.Equal(t, "Line Follower", owned[0].Title)
}

func TestUpdateProject_OwnerOnly(t *testing.T) {
	store := newTestStore(t)
	addUser(t, store.Connection, "author", "author@horus.edu.eg", "Sara Student")

	project, err := store.AddProject(submission("author", "Line Follower"))
	require.NoError(t, err)

	var changes = UpdateProjectData{
		Title:       "Line Follower Mark II",
		Description: "A faster line following robot built from scratch.",
		Department:  "Engineering",
		Level:       4,
	}

	require.ErrorIs(t, store.UpdateProject(project.Id, "impostor", changes), ErrNotFound)

	require.NoError(t, store.UpdateProject(project.Id, "author", changes))
	fetched, err := store.GetProject(project.Id)
	require.NoError(t, err)
	require.Equal(t, "Line Follower Mark II", fetched.Title)
	require.Equal(t, 4, fetched.Level)
}

func TestSetProjectImage(t *testing.T) {
	store := newTestStore(t)
	addUser(t, store.Connection, "author", "author@horus.edu.eg", "Sara Student")

	project, err := store.AddProject(submission("author", "Line Follower"))
	require.NoError(t, err)

	var replacement = "http://localhost:3000/static/project-images/author/new-cover.png"
	previous, err := store.SetProjectImage(project.Id, "author", replacement)
	require.NoError(t, err)
	require.Equal(t, project.FileURL, previous)

	fetched, err := store.GetProject(project.Id)
	require.NoError(t, err)
	require.Equal(t, replacement, fetched.FileURL)

	// the files list swaps the previous primary for the new one, keeping the rest
	require.Contains(t, fetched.FilesURLs, replacement)
	require.NotContains(t, fetched.FilesURLs, previous)
	require.Len(t, fetched.FilesURLs, 2)

	_, err = store.SetProjectImage(project.Id, "impostor", replacement)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProject_CascadesAndReturnsAssets(t *testing.T) {
	store := newTestStore(t)
	addUser(t, store.Connection, "author", "author@horus.edu.eg", "Sara Student")
	addUser(t, store.Connection, "peer", "peer@horus.edu.eg", "Peter Peer")

	project, err := store.AddProject(submission("author", "Line Follower"))
	require.NoError(t, err)

	var now = time.Now().UTC()
	_, err = store.Connection.Exec(
		"INSERT INTO project_ratings (project_id, user_id, rating, date) VALUES (?, 'peer', 4, ?)",
		project.Id, now,
	)
	require.NoError(t, err)

	_, err = store.DeleteProject(project.Id, "impostor")
	require.ErrorIs(t, err, ErrNotFound)

	assets, err := store.DeleteProject(project.Id, "author")
	require.NoError(t, err)
	require.ElementsMatch(t, project.FilesURLs, assets)

	_, err = store.GetProject(project.Id)
	require.ErrorIs(t, err, ErrNotFound)

	// engagement and collaborator rows vanish through the cascading foreign keys
	var orphans int
	require.NoError(t, store.Connection.QueryRow(
		"SELECT (SELECT count(*) FROM project_ratings) + (SELECT count(*) FROM project_collaborators)",
	).Scan(&orphans))
	require.Zero(t, orphans)
}
