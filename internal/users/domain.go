// Package users holds the user record domain model and its persistence.
package users

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrNotFound indicates the requested user does not exist.
var ErrNotFound = errors.New("user not found")

// User is a single imported or hand-entered record.
type User struct {
	ID        int64
	Name      string
	Email     string
	Address   string
	About     string
	Number    string
	CreatedAt time.Time
}

// Input carries the mutable fields of a user, as submitted by a form
// or produced by the CSV importer. ID and CreatedAt are never part of it.
type Input struct {
	Name    string `validate:"required"`
	Email   string
	Address string
	About   string
	Number  string
}

var validate = validator.New()

// Normalize trims whitespace from every field.
func (in *Input) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Address = strings.TrimSpace(in.Address)
	in.About = strings.TrimSpace(in.About)
	in.Number = strings.TrimSpace(in.Number)
}

// Validate normalizes the input and checks required fields.
// It returns a map of field name to message for form redisplay.
func (in *Input) Validate() map[string]string {
	in.Normalize()

	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	errs := make(map[string]string)
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		for _, fe := range invalid {
			switch fe.Tag() {
			case "required":
				errs[fe.Field()] = fe.Field() + " is required"
			default:
				errs[fe.Field()] = fe.Field() + " is invalid"
			}
		}
		return errs
	}
	errs["general"] = "invalid input"
	return errs
}
