package admin

import (
	"database/sql"
	"sort"
)

// OverallStats aggregates engagement across every project on the platform.
type OverallStats struct {
	Projects      int
	Ratings       int
	Likes         int
	Reviews       int
	RatingAverage float64
}

// ProjectStat ranks a single project for the dashboard's top list.
type ProjectStat struct {
	Id            string
	Title         string
	CreatorName   string
	Ratings       int
	RatingAverage float64
	Likes         int
	Reviews       int
}

// top list admission thresholds and size
const (
	minTopRatings = 3
	minTopLikes   = 5
	topListSize   = 5
)

type Storer interface {
	GetOverallStats() (OverallStats, error)
	GetTopProjects() ([]ProjectStat, error)
}

type Store struct {
	Connection *sql.DB
}

func NewStore(connection *sql.DB) *Store {
	return &Store{connection}
}

// GetOverallStats recomputes platform wide engagement totals from raw rows.
func (as *Store) GetOverallStats() (stats OverallStats, err error) {

	var ratingSum sql.NullFloat64
	if err = as.Connection.QueryRow(`
		SELECT
			(SELECT count(*) FROM projects),
			(SELECT count(*) FROM project_ratings),
			(SELECT sum(rating) FROM project_ratings),
			(SELECT count(*) FROM project_likes),
			(SELECT count(*) FROM project_reviews)`,
	).Scan(&stats.Projects, &stats.Ratings, &ratingSum, &stats.Likes, &stats.Reviews); err != nil {
		return stats, err
	}

	if stats.Ratings > 0 {
		stats.RatingAverage = ratingSum.Float64 / float64(stats.Ratings)
	}
	return stats, nil
}

// GetTopProjects returns the five projects with enough traction, ordered by computed
// average rating and, among evenly rated ones, by like count.
func (as *Store) GetTopProjects() ([]ProjectStat, error) {

	rows, err := as.Connection.Query(`
		SELECT id, title, coalesce(creator_name, ''),
			coalesce(rc, 0), coalesce(rs, 0), coalesce(lc, 0), coalesce(vc, 0)
		FROM projects
		LEFT JOIN (SELECT project_id as id, count(*) as rc, sum(rating) as rs
			FROM project_ratings GROUP BY project_id) USING (id)
		LEFT JOIN (SELECT project_id as id, count(*) as lc
			FROM project_likes GROUP BY project_id) USING (id)
		LEFT JOIN (SELECT project_id as id, count(*) as vc
			FROM project_reviews GROUP BY project_id) USING (id)`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var candidates = make([]ProjectStat, 0)
	for rows.Next() {
		var stat ProjectStat
		var ratingSum float64
		if err = rows.Scan(&stat.Id, &stat.Title, &stat.CreatorName,
			&stat.Ratings, &ratingSum, &stat.Likes, &stat.Reviews); err != nil {
			return nil, err
		}
		if stat.Ratings > 0 {
			stat.RatingAverage = ratingSum / float64(stat.Ratings)
		}
		// projects lacking both a ratings base and a likes base don't rank
		if stat.Ratings >= minTopRatings || stat.Likes >= minTopLikes {
			candidates = append(candidates, stat)
		}
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].RatingAverage != candidates[j].RatingAverage {
			return candidates[i].RatingAverage > candidates[j].RatingAverage
		}
		return candidates[i].Likes > candidates[j].Likes
	})

	if len(candidates) > topListSize {
		candidates = candidates[:topListSize]
	}
	return candidates, nil
}
