package forms

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/sellmate/internal/payments"
)

type AccountInput struct {
	MethodID      string `json:"methodId" validate:"required"`
	AccountName   string `json:"accountName" validate:"required"`
	AccountNumber string `json:"accountNumber" validate:"required"`
}

// AddAccount validates the "Add New Account" dialog and appends the account
// to book. The returned toast confirms the addition.
func AddAccount(book *payments.Book, in AccountInput) (payments.Account, Toast, error) {
	in.MethodID = strings.TrimSpace(in.MethodID)
	in.AccountName = strings.TrimSpace(in.AccountName)
	in.AccountNumber = strings.TrimSpace(in.AccountNumber)

	if err := Check(in, &MissingInformation); err != nil {
		return payments.Account{}, Toast{}, err
	}
	method, ok := payments.LookupMethod(in.MethodID)
	if !ok {
		return payments.Account{}, Toast{}, &ValidationError{Fields: []string{"methodId"}, Toast: &MissingInformation}
	}

	a, err := book.AddAccount(method.ID, in.AccountName, in.AccountNumber)
	if errors.Is(err, payments.ErrMissingFields) {
		return payments.Account{}, Toast{}, &ValidationError{Fields: []string{"accountName", "accountNumber"}, Toast: &MissingInformation}
	}
	if err != nil {
		return payments.Account{}, Toast{}, err
	}
	return a, Toast{
		Title:       "Account added",
		Description: fmt.Sprintf("Your %s account has been successfully added.", method.Name),
		Variant:     VariantDefault,
	}, nil
}
