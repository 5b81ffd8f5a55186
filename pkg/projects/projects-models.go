package projects

import (
	"fmt"
	"mime/multipart"
	"net/url"
	"sort"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/hazemadel/vitrine/pkg/ntime"
)

// departmentRules constrain submissions to the known departments catalogue; the default list
// mirrors the university's official one and can be replaced at startup through SetDepartments.
var departmentRules = buildDepartmentRules(DefaultDepartments)

var DefaultDepartments = []string{
	"Computer Science",
	"Engineering",
	"Business Administration",
	"Medicine",
	"Arts & Humanities",
	"Sciences",
	"Law",
	"Architecture",
}

func buildDepartmentRules(departments []string) []validation.Rule {
	var allowed = make([]interface{}, 0, len(departments))
	for _, department := range departments {
		allowed = append(allowed, department)
	}
	return []validation.Rule{validation.Required, validation.In(allowed...).Error("unknown department")}
}

// SetDepartments replaces the departments catalogue used to validate submissions.
// It must be invoked before handlers registration, never after.
func SetDepartments(departments []string) {
	departmentRules = buildDepartmentRules(departments)
}

var titleRules = []validation.Rule{validation.Required, validation.Length(3, 120)}
var descriptionRules = []validation.Rule{validation.Required, validation.Length(10, 5000)}
var levelRules = []validation.Rule{validation.Min(0), validation.Max(5)}

// Project is the detail representation, carrying engagement aggregates recomputed from raw
// rows on every fetch; none of the counts are persisted.
type Project struct {
	Id            string
	AuthorId      string
	Title         string
	Description   string
	Department    string
	Level         int
	CreatorName   string
	FileURL       string
	FilesURLs     []string
	VideoURL      string
	GithubURL     string
	Ratings       int
	RatingAverage float64
	Likes         int
	Reviews       int
	Collaborators int
	Created       ntime.NTime
	Updated       ntime.NTime
}

// ProjectSummary is the catalog representation returned by list views.
type ProjectSummary struct {
	Id            string
	AuthorId      string
	Title         string
	Department    string
	Level         int
	CreatorName   string
	FileURL       string
	Ratings       int
	RatingAverage float64
	Likes         int
	Reviews       int
	Created       ntime.NTime
}

type AddProjectData struct {
	AuthorId    string
	CreatorName string
	Title       string
	Description string
	Department  string
	Level       int
	FileURL     string
	FilesURLs   []string
	VideoURL    string
	GithubURL   string
}

func (data AddProjectData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Title, titleRules...),
		validation.Field(&data.Description, descriptionRules...),
		validation.Field(&data.Department, departmentRules...),
		validation.Field(&data.Level, levelRules...),
		validation.Field(&data.VideoURL, is.URL),
		validation.Field(&data.GithubURL, is.URL),
	)
}

type UpdateProjectData struct {
	Title       string
	Description string
	Department  string
	Level       int
	VideoURL    string
	GithubURL   string
}

func (data UpdateProjectData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Title, titleRules...),
		validation.Field(&data.Description, descriptionRules...),
		validation.Field(&data.Department, departmentRules...),
		validation.Field(&data.Level, levelRules...),
		validation.Field(&data.VideoURL, is.URL),
		validation.Field(&data.GithubURL, is.URL),
	)
}

// Catalog filtering and sorting. Both operate on the full fetched set, in memory; the
// catalogue renders every match without pagination.

type SortOrder string

const (
	SortNewest  SortOrder = "newest"
	SortOldest  SortOrder = "oldest"
	SortRating  SortOrder = "rating"
	SortLikes   SortOrder = "likes"
	anyLevel              = -1
)

type Filter struct {
	Search     string
	Department string
	Level      int
	Sort       SortOrder
}

// ParseFilter extracts catalog filters from query parameters, tolerating absent ones.
func ParseFilter(params url.Values) (filter Filter, err error) {
	filter.Search = params.Get("search")
	filter.Department = params.Get("department")
	filter.Level = anyLevel

	if raw := params.Get("level"); raw != "" {
		level, convErr := strconv.Atoi(raw)
		if convErr != nil || level < 0 || level > 5 {
			return filter, fmt.Errorf("invalid level %q", raw)
		}
		filter.Level = level
	}

	switch sortParam := SortOrder(params.Get("sort")); sortParam {
	case SortNewest, SortOldest, SortRating, SortLikes:
		filter.Sort = sortParam
	case "":
		filter.Sort = SortNewest
	default:
		return filter, fmt.Errorf("invalid sort order %q", params.Get("sort"))
	}

	return filter, nil
}

// FilterSummaries returns the summaries matching the filter, preserving input order.
// Search matches case-insensitively against titles and creator names, as plain substrings.
func FilterSummaries(summaries []ProjectSummary, filter Filter) []ProjectSummary {
	var matched = make([]ProjectSummary, 0, len(summaries))
	var search = strings.ToLower(filter.Search)

	for _, summary := range summaries {
		if filter.Department != "" && summary.Department != filter.Department {
			continue
		}
		if filter.Level != anyLevel && summary.Level != filter.Level {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(summary.Title), search) &&
			!strings.Contains(strings.ToLower(summary.CreatorName), search) {
			continue
		}
		matched = append(matched, summary)
	}
	return matched
}

// SortSummaries orders the summaries in place; ties retain their pre-sort relative order.
func SortSummaries(summaries []ProjectSummary, order SortOrder) {
	switch order {
	case SortOldest:
		sort.SliceStable(summaries, func(i, j int) bool {
			return summaries[i].Created.Before(summaries[j].Created)
		})
	case SortRating:
		sort.SliceStable(summaries, func(i, j int) bool {
			return summaries[i].RatingAverage > summaries[j].RatingAverage
		})
	case SortLikes:
		sort.SliceStable(summaries, func(i, j int) bool {
			return summaries[i].Likes > summaries[j].Likes
		})
	default:
		sort.SliceStable(summaries, func(i, j int) bool {
			return summaries[j].Created.Before(summaries[i].Created)
		})
	}
}

// Upload constraints, enforced before any storage interaction. The checks remain advisory:
// contents aren't inspected beyond the declared media type.

const (
	MaxImageSize    = 10 << 20 // primary project images
	MaxDocumentSize = 50 << 20 // per file, extended submissions
)

// allowed media types mapped to canonical file extensions
var imageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

var documentTypes = map[string]string{
	"application/pdf":    "pdf",
	"application/msword": "doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   "docx",
	"application/vnd.ms-powerpoint":                                             "ppt",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": "pptx",
	"application/vnd.ms-excel": "xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": "xlsx",
}

// ValidateImageUpload vets a primary image against the allow-list and the 10MB ceiling,
// returning the canonical extension for storage.
func ValidateImageUpload(header *multipart.FileHeader) (extension string, err error) {
	var mediaType = headerMediaType(header)
	extension, allowed := imageTypes[mediaType]
	if !allowed {
		return "", fmt.Errorf("unsupported image type %q: upload a JPEG, PNG, GIF or WebP file", mediaType)
	}
	if header.Size > MaxImageSize {
		return "", fmt.Errorf("image %q exceeds the 10MB limit", header.Filename)
	}
	return extension, nil
}

// ValidateDocumentUpload vets an additional project file, accepting both image and document
// types up to the 50MB per-file ceiling.
func ValidateDocumentUpload(header *multipart.FileHeader) (extension string, err error) {
	var mediaType = headerMediaType(header)
	extension, allowed := imageTypes[mediaType]
	if !allowed {
		if extension, allowed = documentTypes[mediaType]; !allowed {
			return "", fmt.Errorf("unsupported file type %q", mediaType)
		}
	}
	if header.Size > MaxDocumentSize {
		return "", fmt.Errorf("file %q exceeds the 50MB limit", header.Filename)
	}
	return extension, nil
}

func headerMediaType(header *multipart.FileHeader) string {
	var declared = header.Header.Get("Content-Type")
	if semicolon := strings.IndexByte(declared, ';'); semicolon != -1 {
		declared = declared[:semicolon]
	}
	return strings.ToLower(strings.TrimSpace(declared))
}
