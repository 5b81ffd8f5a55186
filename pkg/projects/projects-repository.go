package projects

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/hazemadel/vitrine/pkg/ntime"
	"github.com/hazemadel/vitrine/pkg/rest"
	"github.com/hazemadel/vitrine/pkg/users"
)

type Storer interface {
	AddProject(data AddProjectData) (*Project, error)
	GetProject(projectId string) (*Project, error)
	ListProjects(filter Filter) ([]ProjectSummary, error)
	GetUserProjects(authorId string) ([]ProjectSummary, error)
	UpdateProject(projectId, authorId string, data UpdateProjectData) error
	SetProjectImage(projectId, authorId, url string) (previous string, err error)
	DeleteProject(projectId, authorId string) (assets []string, err error)
	OwnsProject(projectId, userId string) bool
}

type Store struct {
	Connection *sql.DB
	UserStore  users.UserRepository
}

var (
	ErrNotFound    = errors.New("not found")
	ErrNotModified = errors.New("not modified")
)

// NewStore returns a project repository, or store, which wraps the necessary dependencies
// and provides relevant interface implementations.
func NewStore(connection *sql.DB, userStore users.UserRepository) *Store {
	return &Store{connection, userStore}
}

func closeRows(rows *sql.Rows) {
	_ = rows.Close()
}

// AddProject persists a new submission along with its implicit owner role, in one
// transaction; a project must never exist without its owner's collaborator row.
func (ps *Store) AddProject(data AddProjectData) (*Project, error) {

	var id = rest.MustGetNewUUID()
	var now = ntime.Now()

	// uphold the legacy invariant: the primary asset always appears among files_urls
	var filesURLs = data.FilesURLs
	if data.FileURL != "" && !contains(filesURLs, data.FileURL) {
		filesURLs = append([]string{data.FileURL}, filesURLs...)
	}
	encodedFiles, err := json.Marshal(filesURLs)
	if err != nil {
		return nil, err
	}

	tx, err := ps.Connection.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.Exec(`
		INSERT INTO projects (id, user_id, title, description, department, level, creator_name,
			file_url, files_urls, video_url, github_url, created, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, data.AuthorId, data.Title, data.Description, data.Department, data.Level,
		data.CreatorName, data.FileURL, string(encodedFiles), data.VideoURL, data.GithubURL,
		now, now,
	); err != nil {
		return nil, err
	}

	if _, err = tx.Exec(
		"INSERT INTO project_collaborators (id, project_id, user_id, role, added) VALUES (?, ?, ?, 'owner', ?)",
		rest.MustGetNewUUID(), id, data.AuthorId, now,
	); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return &Project{
		Id:            id,
		AuthorId:      data.AuthorId,
		Title:         data.Title,
		Description:   data.Description,
		Department:    data.Department,
		Level:         data.Level,
		CreatorName:   data.CreatorName,
		FileURL:       data.FileURL,
		FilesURLs:     filesURLs,
		VideoURL:      data.VideoURL,
		GithubURL:     data.GithubURL,
		Collaborators: 1,
		Created:       now,
		Updated:       now,
	}, nil
}

// GetProject fetches one project with its engagement aggregates, recomputed from raw rows
// on each call rather than maintained incrementally.
func (ps *Store) GetProject(projectId string) (*Project, error) {

	var project Project
	var encodedFiles string
	var ratingSum sql.NullFloat64

	if err := ps.Connection.QueryRow(`
		SELECT id, user_id, title, description, department, level,
			coalesce(creator_name, ''), coalesce(file_url, ''), files_urls,
			coalesce(video_url, ''), coalesce(github_url, ''), created, updated,
			(SELECT count(*) FROM project_ratings WHERE project_id = projects.id) as ratings,
			(SELECT sum(rating) FROM project_ratings WHERE project_id = projects.id) as ratings_sum,
			(SELECT count(*) FROM project_likes WHERE project_id = projects.id) as likes,
			(SELECT count(*) FROM project_reviews WHERE project_id = projects.id) as reviews,
			(SELECT count(*) FROM project_collaborators WHERE project_id = projects.id) as collaborators
		FROM projects
		WHERE id = ?`,
		projectId,
	).Scan(
		&project.Id,
		&project.AuthorId,
		&project.Title,
		&project.Description,
		&project.Department,
		&project.Level,
		&project.CreatorName,
		&project.FileURL,
		&encodedFiles,
		&project.VideoURL,
		&project.GithubURL,
		&project.Created,
		&project.Updated,
		&project.Ratings,
		&ratingSum,
		&project.Likes,
		&project.Reviews,
		&project.Collaborators,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(encodedFiles), &project.FilesURLs); err != nil {
		return nil, err
	}
	if project.Ratings > 0 {
		project.RatingAverage = ratingSum.Float64 / float64(project.Ratings)
	}
	return &project, nil
}

// ListProjects fetches the full catalogue with per-project aggregates through a single
// grouped query, then filters and sorts in memory; no pagination applies.
func (ps *Store) ListProjects(filter Filter) ([]ProjectSummary, error) {
	summaries, err := ps.getSummaries("", "created DESC")
	if err != nil {
		return nil, err
	}
	summaries = FilterSummaries(summaries, filter)
	SortSummaries(summaries, filter.Sort)
	return summaries, nil
}

// GetUserProjects returns the projects owned by the given user, newest first.
func (ps *Store) GetUserProjects(authorId string) ([]ProjectSummary, error) {
	return ps.getSummaries(authorId, "created DESC")
}

// GetAllSummaries exposes the unfiltered catalogue; the admin dashboard aggregates over it.
func (ps *Store) GetAllSummaries() ([]ProjectSummary, error) {
	return ps.getSummaries("", "created DESC")
}

func (ps *Store) getSummaries(authorId string, order string) ([]ProjectSummary, error) {

	// a single aggregate query replaces the three per-project lookups a naive
	// client-driven approach would fan out
	var query = `
		SELECT id, user_id, title, department, level, coalesce(creator_name, ''),
			coalesce(file_url, ''), created,
			coalesce(rc, 0), coalesce(rs, 0), coalesce(lc, 0), coalesce(vc, 0)
		FROM projects
		LEFT JOIN (SELECT project_id as id, count(*) as rc, sum(rating) as rs
			FROM project_ratings GROUP BY project_id) USING (id)
		LEFT JOIN (SELECT project_id as id, count(*) as lc
			FROM project_likes GROUP BY project_id) USING (id)
		LEFT JOIN (SELECT project_id as id, count(*) as vc
			FROM project_reviews GROUP BY project_id) USING (id)`

	var args []any
	if authorId != "" {
		query += " WHERE user_id = ?"
		args = append(args, authorId)
	}
	query += " ORDER BY " + order

	rows, err := ps.Connection.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var summaries = make([]ProjectSummary, 0)
	for rows.Next() {
		var summary ProjectSummary
		var ratingSum float64
		if err = rows.Scan(
			&summary.Id,
			&summary.AuthorId,
			&summary.Title,
			&summary.Department,
			&summary.Level,
			&summary.CreatorName,
			&summary.FileURL,
			&summary.Created,
			&summary.Ratings,
			&ratingSum,
			&summary.Likes,
			&summary.Reviews,
		); err != nil {
			return summaries, err
		}
		if summary.Ratings > 0 {
			summary.RatingAverage = ratingSum / float64(summary.Ratings)
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// UpdateProject edits a submission's metadata; only the owner's requests take effect.
func (ps *Store) UpdateProject(projectId, authorId string, data UpdateProjectData) error {
	result, err := ps.Connection.Exec(`
		UPDATE projects SET title = ?, description = ?, department = ?, level = ?,
			video_url = ?, github_url = ?, updated = ?
		WHERE id = ? AND user_id = ?`,
		data.Title, data.Description, data.Department, data.Level,
		data.VideoURL, data.GithubURL, ntime.Now(),
		projectId, authorId,
	)
	if err != nil {
		return err
	}
	if affected, e := result.RowsAffected(); e != nil {
		return e
	} else if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetProjectImage replaces the primary asset, keeping files_urls a superset of the primary
// URL; the previous URL is returned so callers can reclaim its storage.
func (ps *Store) SetProjectImage(projectId, authorId, url string) (string, error) {

	tx, err := ps.Connection.Begin()
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	var previous, encodedFiles string
	if err = tx.QueryRow(
		"SELECT coalesce(file_url, ''), files_urls FROM projects WHERE id = ? AND user_id = ?",
		projectId, authorId,
	).Scan(&previous, &encodedFiles); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}

	var filesURLs []string
	if err = json.Unmarshal([]byte(encodedFiles), &filesURLs); err != nil {
		return "", err
	}

	// swap the previous primary out of the files list and lead with the new one
	var updatedFiles = []string{url}
	for _, existing := range filesURLs {
		if existing != previous && existing != url {
			updatedFiles = append(updatedFiles, existing)
		}
	}
	encoded, err := json.Marshal(updatedFiles)
	if err != nil {
		return "", err
	}

	if _, err = tx.Exec(
		"UPDATE projects SET file_url = ?, files_urls = ?, updated = ? WHERE id = ? AND user_id = ?",
		url, string(encoded), ntime.Now(), projectId, authorId,
	); err != nil {
		return "", err
	}

	return previous, tx.Commit()
}

// DeleteProject removes a submission and returns its stored asset URLs; engagement rows
// and invites disappear through cascading foreign keys.
func (ps *Store) DeleteProject(projectId, authorId string) ([]string, error) {

	tx, err := ps.Connection.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var encodedFiles string
	if err = tx.QueryRow(
		"SELECT files_urls FROM projects WHERE id = ? AND user_id = ?",
		projectId, authorId,
	).Scan(&encodedFiles); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var assets []string
	if err = json.Unmarshal([]byte(encodedFiles), &assets); err != nil {
		return nil, err
	}

	if _, err = tx.Exec("DELETE FROM projects WHERE id = ? AND user_id = ?", projectId, authorId); err != nil {
		return nil, err
	}

	return assets, tx.Commit()
}

// OwnsProject verifies whether a given project exists and is owned by the specified user.
func (ps *Store) OwnsProject(projectId, userId string) bool {
	var exists = false
	var err = ps.Connection.QueryRow(
		"SELECT TRUE FROM projects WHERE id = ? AND user_id = ?",
		projectId, userId,
	).Scan(&exists)
	return err == nil && exists
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
