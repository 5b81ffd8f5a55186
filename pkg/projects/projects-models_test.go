package projects

import (
	"mime/multipart"
	"net/textproto"
	"net/url"
	"testing"
	"time"

	"github.com/hazemadel/vitrine/pkg/ntime"
	"github.com/stretchr/testify/require"
)

func summary(id, title, department string, level int, average float64, likes int, created time.Time) ProjectSummary {
	return ProjectSummary{
		Id:            id,
		Title:         title,
		Department:    department,
		Level:         level,
		CreatorName:   "Sara Student",
		RatingAverage: average,
		Likes:         likes,
		Created:       ntime.FromTime(created),
	}
}

func ids(summaries []ProjectSummary) []string {
	var ordered = make([]string, 0, len(summaries))
	for _, s := range summaries {
		ordered = append(ordered, s.Id)
	}
	return ordered
}

func TestFilterSummaries(t *testing.T) {
	var base = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var catalogue = []ProjectSummary{
		summary("a", "Solar Tracker", "Engineering", 3, 4.5, 2, base),
		summary("b", "Chatbot Tutor", "Computer Science", 2, 4.5, 7, base.Add(time.Hour)),
		summary("c", "Water Purifier", "Engineering", 3, 3.0, 1, base.Add(2*time.Hour)),
		summary("d", "Bridge Model", "Engineering", 1, 4.5, 2, base.Add(3*time.Hour)),
	}

	matched := FilterSummaries(catalogue, Filter{Department: "Engineering", Level: anyLevel})
	require.Equal(t, []string{"a", "c", "d"}, ids(matched))

	matched = FilterSummaries(catalogue, Filter{Department: "Engineering", Level: 3})
	require.Equal(t, []string{"a", "c"}, ids(matched))

	// searches match titles and creator names, case-insensitively
	matched = FilterSummaries(catalogue, Filter{Search: "TRACKER", Level: anyLevel})
	require.Equal(t, []string{"a"}, ids(matched))

	matched = FilterSummaries(catalogue, Filter{Search: "sara", Level: anyLevel})
	require.Len(t, matched, 4)

	matched = FilterSummaries(catalogue, Filter{Search: "quantum", Level: anyLevel})
	require.Empty(t, matched)
}

func TestSortSummaries_StableTies(t *testing.T) {
	var base = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var catalogue = []ProjectSummary{
		summary("a", "Solar Tracker", "Engineering", 3, 4.5, 2, base),
		summary("b", "Chatbot Tutor", "Computer Science", 2, 4.8, 7, base.Add(time.Hour)),
		summary("c", "Water Purifier", "Engineering", 3, 3.0, 1, base.Add(2*time.Hour)),
		summary("d", "Bridge Model", "Engineering", 1, 4.5, 2, base.Add(3*time.Hour)),
	}

	SortSummaries(catalogue, SortNewest)
	require.Equal(t, []string{"d", "c", "b", "a"}, ids(catalogue))

	SortSummaries(catalogue, SortOldest)
	require.Equal(t, []string{"a", "b", "c", "d"}, ids(catalogue))

	// a and d tie on rating: their pre-sort relative order (a before d) must survive
	SortSummaries(catalogue, SortRating)
	require.Equal(t, []string{"b", "a", "d", "c"}, ids(catalogue))

	// a and d also tie on likes, and now follow the rating order above
	SortSummaries(catalogue, SortLikes)
	require.Equal(t, []string{"b", "a", "d", "c"}, ids(catalogue))
}

func TestParseFilter(t *testing.T) {
	filter, err := ParseFilter(url.Values{})
	require.NoError(t, err)
	require.Equal(t, Filter{Level: anyLevel, Sort: SortNewest}, filter)

	filter, err = ParseFilter(url.Values{
		"search": {"robot"}, "department": {"Engineering"}, "level": {"3"}, "sort": {"rating"},
	})
	require.NoError(t, err)
	require.Equal(t, Filter{Search: "robot", Department: "Engineering", Level: 3, Sort: SortRating}, filter)

	_, err = ParseFilter(url.Values{"level": {"seven"}})
	require.Error(t, err)
	_, err = ParseFilter(url.Values{"level": {"9"}})
	require.Error(t, err)
	_, err = ParseFilter(url.Values{"sort": {"alphabetical"}})
	require.Error(t, err)
}

func uploadHeader(name, mediaType string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{
		Filename: name,
		Header:   textproto.MIMEHeader{"Content-Type": {mediaType}},
		Size:     size,
	}
}

func TestValidateImageUpload(t *testing.T) {
	extension, err := ValidateImageUpload(uploadHeader("cover.png", "image/png", 512))
	require.NoError(t, err)
	require.Equal(t, "png", extension)

	// declared parameters don't disturb the media type check
	extension, err = ValidateImageUpload(uploadHeader("cover.jpg", "image/jpeg; charset=binary", 512))
	require.NoError(t, err)
	require.Equal(t, "jpg", extension)

	_, err = ValidateImageUpload(uploadHeader("cover.pdf", "application/pdf", 512))
	require.Error(t, err)

	// the ceiling rejection happens on the declared size, before any storage write
	_, err = ValidateImageUpload(uploadHeader("huge.png", "image/png", MaxImageSize+1))
	require.Error(t, err)

	_, err = ValidateImageUpload(uploadHeader("fits.png", "image/png", MaxImageSize))
	require.NoError(t, err)
}

func TestValidateDocumentUpload(t *testing.T) {
	extension, err := ValidateDocumentUpload(uploadHeader("report.pdf", "application/pdf", 1024))
	require.NoError(t, err)
	require.Equal(t, "pdf", extension)

	// images double as documents with the larger ceiling
	_, err = ValidateDocumentUpload(uploadHeader("figure.png", "image/png", MaxImageSize+1))
	require.NoError(t, err)

	_, err = ValidateDocumentUpload(uploadHeader("huge.pdf", "application/pdf", MaxDocumentSize+1))
	require.Error(t, err)

	_, err = ValidateDocumentUpload(uploadHeader("script.sh", "application/x-sh", 64))
	require.Error(t, err)
}

func TestAddProjectData_Validate(t *testing.T) {
	var valid = AddProjectData{
		Title:       "Line Follower",
		Description: "A line following robot built from scratch.",
		Department:  "Engineering",
		Level:       3,
		VideoURL:    "https://example.com/demo",
	}
	require.NoError(t, valid.Validate())

	var short = valid
	short.Title = "ab"
	require.Error(t, short.Validate())

	var unknown = valid
	unknown.Department = "Alchemy"
	require.Error(t, unknown.Validate())

	var level = valid
	level.Level = 6
	require.Error(t, level.Validate())

	var video = valid
	video.VideoURL = "not a url"
	require.Error(t, video.Validate())
}
