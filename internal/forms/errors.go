package forms

import (
	"errors"
	"fmt"
	"strings"
)

var ErrAlreadySubmitted = errors.New("forms: already submitted")

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Toast is the transient notification shown after a form action.
type Toast struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Variant     Variant `json:"variant"`
}

var (
	MissingInformation = Toast{Title: "Missing information", Description: "Please fill in all required fields", Variant: VariantDestructive}
	InvalidPrice       = Toast{Title: "Missing information", Description: "Please enter a valid price", Variant: VariantDestructive}
	DefaultUpdated     = Toast{Title: "Default account updated", Description: "Your default payment account has been updated successfully.", Variant: VariantDefault}
	AccountRemoved     = Toast{Title: "Account removed", Description: "The payment account has been removed successfully.", Variant: VariantDefault}
)

// ValidationError is the only user-facing failure: required fields are
// missing. Toast is nil for forms that fail silently.
type ValidationError struct {
	Fields []string
	Toast  *Toast
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("forms: missing required fields: %s", strings.Join(e.Fields, ", "))
}

// AsValidation unwraps err into a *ValidationError.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
