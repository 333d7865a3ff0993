package payments

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/ariefcatur/sellmate/internal/orders"
)

var (
	ErrMissingFields   = errors.New("payments: account name and number are required")
	ErrUnknownMethod   = errors.New("payments: unknown payment method")
	ErrAccountNotFound = errors.New("payments: account not found")
)

type Method struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// Methods is fixed; accounts reference it by ID.
var Methods = []Method{
	{ID: "gcash", Name: "GCash", Icon: "/GCash-Logo.png", Description: "Connect your GCash account for secure transactions with middlemen"},
	{ID: "maya", Name: "Paymaya", Icon: "/PayMaya-Logo_Vertical.png", Description: "Use Paymaya for fast and reliable payments with middlemen"},
	{ID: "credit-card", Name: "GOtyme", Icon: "/OIP-removebg-preview.png", Description: "Add your GOtyme card for convenient transactions"},
}

func LookupMethod(id string) (Method, bool) {
	i := slices.IndexFunc(Methods, func(m Method) bool { return m.ID == id })
	if i < 0 {
		return Method{}, false
	}
	return Methods[i], true
}

type Account struct {
	ID            string `json:"id"`
	MethodID      string `json:"methodId"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	IsDefault     bool   `json:"isDefault"`
}

// Seed is the pair of accounts a fresh buyer session starts with.
func Seed() []Account {
	return []Account{
		{ID: "1", MethodID: "gcash", AccountName: "Personal GCash", AccountNumber: "09123456789", IsDefault: true},
		{ID: "2", MethodID: "maya", AccountName: "Maya Account", AccountNumber: "09876543210", IsDefault: false},
	}
}

// Book is one buyer's list of payment accounts.
type Book struct {
	mu       sync.RWMutex
	accounts []Account
	newID    func() string
}

func NewBook(seed []Account) *Book {
	return &Book{accounts: slices.Clone(seed), newID: orders.NewID}
}

// Accounts lists accounts of methodID, or every account when methodID is empty.
func (b *Book) Accounts(methodID string) []Account {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Account, 0, len(b.accounts))
	for _, a := range b.accounts {
		if methodID == "" || a.MethodID == methodID {
			out = append(out, a)
		}
	}
	return out
}

// AddAccount appends an account. It becomes the default only when it is the
// first account of its method.
func (b *Book) AddAccount(methodID, name, number string) (Account, error) {
	if _, ok := LookupMethod(methodID); !ok {
		return Account{}, ErrUnknownMethod
	}
	if strings.TrimSpace(name) == "" || strings.TrimSpace(number) == "" {
		return Account{}, ErrMissingFields
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	first := !slices.ContainsFunc(b.accounts, func(a Account) bool { return a.MethodID == methodID })
	a := Account{
		ID:            b.newID(),
		MethodID:      methodID,
		AccountName:   name,
		AccountNumber: number,
		IsDefault:     len(b.accounts) == 0 || first,
	}
	b.accounts = append(b.accounts, a)
	return a, nil
}

// SetDefault makes id the only default account across all methods.
func (b *Book) SetDefault(id string) (Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(id)
	if i < 0 {
		return Account{}, ErrAccountNotFound
	}
	for j := range b.accounts {
		b.accounts[j].IsDefault = j == i
	}
	return b.accounts[i], nil
}

// DeleteAccount removes id. A removed default is not replaced.
func (b *Book) DeleteAccount(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(id)
	if i < 0 {
		return ErrAccountNotFound
	}
	b.accounts = slices.Delete(b.accounts, i, i+1)
	return nil
}

func (b *Book) index(id string) int {
	return slices.IndexFunc(b.accounts, func(a Account) bool { return a.ID == id })
}
