package auth

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// User is the authenticated principal attached to requests. The auth package defines its
// own minimal shape, rather than importing the users package, to avoid cyclic imports.
type User struct {
	Id    string
	Name  string
	Email string
}

type SignInData struct {
	Email    string
	Password string
}

func (data SignInData) Validate() error {
	// EmailFormat rather than Email: the latter runs an existence-style check which
	// rejects addresses under multi-label institutional domains
	return validation.ValidateStruct(&data,
		validation.Field(&data.Email, validation.Required, is.EmailFormat),
		validation.Field(&data.Password, validation.Required, validation.Length(8, 50)),
	)
}
