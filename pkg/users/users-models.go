package users

import (
	"fmt"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var nameRules = []validation.Rule{validation.Required, validation.Length(2, 80)}
var passwordRules = []validation.Rule{validation.Required, validation.Length(8, 50)}

// emailRules restrict sign-ups to a single institutional domain; the pattern is built at
// startup through SetInstitutionDomain, with the university's domain as a sensible default.
var emailRules = institutionEmailRules("horus.edu.eg")

func institutionEmailRules(domain string) []validation.Rule {
	var pattern = regexp.MustCompile(`(?i)^[a-zA-Z0-9]+@` + regexp.QuoteMeta(domain) + `$`)
	return []validation.Rule{
		validation.Required,
		validation.Match(pattern).Error(fmt.Sprintf("must be an institutional email, i.e. 8241106@%s", domain)),
	}
}

// SetInstitutionDomain rebuilds the institutional email rule around the configured domain.
// It must be invoked before handlers registration, never after.
func SetInstitutionDomain(domain string) {
	emailRules = institutionEmailRules(domain)
}

type User struct {
	Id      string
	Email   string
	Created time.Time
	Updated time.Time
}

// Profile carries the user attributes students edit themselves; it exists independently of
// the user row and comes to life lazily, on the first save.
type Profile struct {
	UserId    string
	FullName  string
	Major     string
	StudentId string
}

type SignUpData struct {
	Email     string
	Password  string
	FullName  string
	Major     string
	StudentId string
}

func (data SignUpData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Email, emailRules...),
		validation.Field(&data.Password, passwordRules...),
		validation.Field(&data.FullName, nameRules...),
		validation.Field(&data.Major, validation.Length(0, 80)),
		validation.Field(&data.StudentId, validation.Length(0, 30)),
	)
}

type ProfileData struct {
	FullName  string
	Major     string
	StudentId string
}

func (data ProfileData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.FullName, nameRules...),
		validation.Field(&data.Major, validation.Length(0, 80)),
		validation.Field(&data.StudentId, validation.Length(0, 30)),
	)
}
