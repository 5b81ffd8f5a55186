package engagement

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hazemadel/vitrine/pkg/ntime"
)

// Aggregate bundles the three engagement kinds for one project. Counts and averages are
// recomputed from raw rows on every fetch; nothing here is persisted or cached.
type Aggregate struct {
	Ratings RatingAggregate
	Likes   LikeAggregate
	Reviews ReviewAggregate
}

type RatingAggregate struct {
	Count   int
	Average float64
	Mine    *int `json:",omitempty"`
}

type LikeAggregate struct {
	Count int
	Mine  bool
}

type ReviewAggregate struct {
	Count int
	Mine  *string `json:",omitempty"`
}

type RatingData struct {
	Rating int
}

func (data RatingData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Rating, validation.Required, validation.Min(1), validation.Max(5)),
	)
}

type ReviewData struct {
	Comment string
}

func (data ReviewData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Comment, validation.Required, validation.Length(1, 3000)),
	)
}

// Review is the full representation served by review listings, newest first.
type Review struct {
	Id           string
	AuthorId     string
	ReviewerName string
	Comment      string
	Created      ntime.NTime
	Updated      ntime.NTime
}
