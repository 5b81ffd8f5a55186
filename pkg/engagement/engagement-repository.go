package engagement

import (
	"database/sql"
	"errors"

	"github.com/hazemadel/vitrine/pkg/ntime"
	"github.com/hazemadel/vitrine/pkg/rest"
)

type Storer interface {
	GetAggregate(projectId, userId string) (Aggregate, error)
	GetReviews(projectId string) ([]Review, error)
	SetRating(projectId, userId string, rating int) error
	ToggleLike(projectId, userId string) (liked bool, err error)
	RemoveLike(projectId, userId string) error
	UpsertReview(projectId, userId, comment string) (Review, error)
	RemoveReview(projectId, userId string) error
}

type Store struct {
	Connection *sql.DB
}

var (
	ErrNotFound = errors.New("not found")

	// ErrSelfInteraction rejects principals engaging with their own projects. The rule is
	// enforced here, at the data access boundary, rather than trusted from clients.
	ErrSelfInteraction = errors.New("can't rate, like or review one's own project")
)

func NewStore(connection *sql.DB) *Store {
	return &Store{connection}
}

// GetAggregate recomputes the project's engagement figures from raw rows. When a user id is
// supplied their own rating, like and review are resolved as well; an empty id skips those.
func (es *Store) GetAggregate(projectId, userId string) (aggregate Aggregate, err error) {

	var ratingSum sql.NullFloat64
	if err = es.Connection.QueryRow(`
		SELECT
			(SELECT count(*) FROM project_ratings WHERE project_id = ?),
			(SELECT sum(rating) FROM project_ratings WHERE project_id = ?),
			(SELECT count(*) FROM project_likes WHERE project_id = ?),
			(SELECT count(*) FROM project_reviews WHERE project_id = ?)`,
		projectId, projectId, projectId, projectId,
	).Scan(&aggregate.Ratings.Count, &ratingSum, &aggregate.Likes.Count, &aggregate.Reviews.Count); err != nil {
		return aggregate, err
	}

	// the average stems from a plain arithmetic mean, zero valued absent any rating
	if aggregate.Ratings.Count > 0 {
		aggregate.Ratings.Average = ratingSum.Float64 / float64(aggregate.Ratings.Count)
	}

	if userId == "" {
		return aggregate, nil
	}

	var myRating int
	switch err = es.Connection.QueryRow(
		"SELECT rating FROM project_ratings WHERE project_id = ? AND user_id = ?",
		projectId, userId,
	).Scan(&myRating); {
	case err == nil:
		aggregate.Ratings.Mine = &myRating
	case !errors.Is(err, sql.ErrNoRows):
		return aggregate, err
	}

	var liked bool
	if err = es.Connection.QueryRow(
		"SELECT TRUE FROM project_likes WHERE project_id = ? AND user_id = ?",
		projectId, userId,
	).Scan(&liked); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return aggregate, err
	}
	aggregate.Likes.Mine = liked

	var myComment string
	switch err = es.Connection.QueryRow(
		"SELECT comment FROM project_reviews WHERE project_id = ? AND user_id = ?",
		projectId, userId,
	).Scan(&myComment); {
	case err == nil:
		aggregate.Reviews.Mine = &myComment
	case !errors.Is(err, sql.ErrNoRows):
		return aggregate, err
	}

	return aggregate, nil
}

// GetReviews lists a project's reviews in reverse chronological order, with reviewer names
// resolved from profiles when available.
func (es *Store) GetReviews(projectId string) ([]Review, error) {

	var reviews = make([]Review, 0)
	rows, err := es.Connection.Query(`
		SELECT project_reviews.id, project_reviews.user_id, coalesce(full_name, ''),
			comment, project_reviews.created, project_reviews.updated
		FROM project_reviews
		LEFT JOIN profiles ON project_reviews.user_id = profiles.user_id
		WHERE project_id = ?
		ORDER BY project_reviews.created DESC`,
		projectId,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	// return partial results in case of errors
	for rows.Next() {
		var review Review
		if err = rows.Scan(&review.Id, &review.AuthorId, &review.ReviewerName,
			&review.Comment, &review.Created, &review.Updated); err != nil {
			return reviews, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

// SetRating upserts the caller's rating, keyed on the (project, user) pair, so resubmissions
// replace the previous value rather than accumulate rows.
func (es *Store) SetRating(projectId, userId string, rating int) error {

	if err := es.checkInteraction(projectId, userId); err != nil {
		return err
	}

	var now = ntime.Now()
	_, err := es.Connection.Exec(`
		INSERT INTO project_ratings (project_id, user_id, rating, date)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (project_id, user_id) DO UPDATE SET rating = ?, date = ?`,
		projectId, userId, rating, now, rating, now,
	)
	return err
}

// ToggleLike flips the caller's like: absent rows are inserted, present ones deleted.
// Applying the toggle twice always returns to the starting state.
func (es *Store) ToggleLike(projectId, userId string) (bool, error) {

	if err := es.checkInteraction(projectId, userId); err != nil {
		return false, err
	}

	result, err := es.Connection.Exec(
		"DELETE FROM project_likes WHERE project_id = ? AND user_id = ?",
		projectId, userId,
	)
	if err != nil {
		return false, err
	}
	if deleted, err := result.RowsAffected(); err != nil {
		return false, err
	} else if deleted > 0 {
		return false, nil
	}

	_, err = es.Connection.Exec(
		"INSERT INTO project_likes (project_id, user_id, date) VALUES (?, ?, ?)",
		projectId, userId, ntime.Now(),
	)
	return err == nil, err
}

// RemoveLike deletes the caller's like; removing a non existent one is a silent no-op.
func (es *Store) RemoveLike(projectId, userId string) error {
	_, err := es.Connection.Exec(
		"DELETE FROM project_likes WHERE project_id = ? AND user_id = ?",
		projectId, userId,
	)
	return err
}

// UpsertReview creates or edits the caller's single review of a project; edits retain the
// original creation timestamp while refreshing the updated one.
func (es *Store) UpsertReview(projectId, userId, comment string) (Review, error) {

	if err := es.checkInteraction(projectId, userId); err != nil {
		return Review{}, err
	}

	var now = ntime.Now()
	var id = rest.MustGetNewUUID()
	if _, err := es.Connection.Exec(`
		INSERT INTO project_reviews (id, project_id, user_id, comment, created, updated)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (project_id, user_id) DO UPDATE SET comment = ?, updated = ?`,
		id, projectId, userId, comment, now, now, comment, now,
	); err != nil {
		return Review{}, err
	}

	// fetch the winning row; on conflict the original id and creation date survive
	var review Review
	if err := es.Connection.QueryRow(`
		SELECT id, user_id, comment, created, updated FROM project_reviews
		WHERE project_id = ? AND user_id = ?`,
		projectId, userId,
	).Scan(&review.Id, &review.AuthorId, &review.Comment, &review.Created, &review.Updated); err != nil {
		return Review{}, err
	}
	return review, nil
}

// RemoveReview deletes the caller's own review; absent rows make for a silent no-op.
func (es *Store) RemoveReview(projectId, userId string) error {
	_, err := es.Connection.Exec(
		"DELETE FROM project_reviews WHERE project_id = ? AND user_id = ?",
		projectId, userId,
	)
	return err
}

// checkInteraction establishes that the project exists and isn't owned by the caller.
func (es *Store) checkInteraction(projectId, userId string) error {
	var ownerId string
	if err := es.Connection.QueryRow(
		"SELECT user_id FROM projects WHERE id = ?", projectId,
	).Scan(&ownerId); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if ownerId == userId {
		return ErrSelfInteraction
	}
	return nil
}
