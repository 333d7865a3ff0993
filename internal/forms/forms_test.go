package forms

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ariefcatur/sellmate/internal/orders"
	"github.com/ariefcatur/sellmate/internal/payments"
	"github.com/ariefcatur/sellmate/internal/storage"
)

func TestSubmission_Lifecycle(t *testing.T) {
	s := NewSubmission(0)
	assert.Equal(t, Idle, s.State())

	committed := 0
	err := s.Submit(context.Background(), func() error { return nil }, func(context.Context) error {
		committed++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, Success, s.State())
	assert.Equal(t, 1, committed)

	err = s.Submit(context.Background(), func() error { return nil }, func(context.Context) error {
		committed++
		return nil
	})
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Equal(t, 1, committed)
}

func TestSubmission_FailedCheckStaysIdle(t *testing.T) {
	s := NewSubmission(0)
	want := &ValidationError{Fields: []string{"expertise"}}
	err := s.Submit(context.Background(), func() error { return want }, func(context.Context) error {
		t.Fatal("commit must not run")
		return nil
	})
	assert.Same(t, want, err)
	assert.Equal(t, Idle, s.State())
}

func TestSubmission_CommitErrorReturnsToIdle(t *testing.T) {
	s := NewSubmission(0)
	boom := errors.New("boom")
	err := s.Submit(context.Background(), func() error { return nil }, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Idle, s.State())
}

func TestSubmission_SubmittingDuringDelay(t *testing.T) {
	s := NewSubmission(50 * time.Millisecond)
	done := make(chan error, 1)
	go func() {
		done <- s.Submit(context.Background(), func() error { return nil }, func(context.Context) error { return nil })
	}()

	require.Eventually(t, func() bool { return s.State() == Submitting }, time.Second, time.Millisecond)
	err := s.Submit(context.Background(), func() error { return nil }, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	require.NoError(t, <-done)
	assert.Equal(t, Success, s.State())
}

func TestSubmission_CancelDoesNotAbort(t *testing.T) {
	s := NewSubmission(20 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var seen error
	err := s.Submit(ctx, func() error { return nil }, func(ctx context.Context) error {
		seen = ctx.Err()
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, seen)
	assert.Equal(t, Success, s.State())
}

func TestState_MarshalText(t *testing.T) {
	b, err := Submitting.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "submitting", string(b))

	var s State
	require.NoError(t, s.UnmarshalText([]byte("success")))
	assert.Equal(t, Success, s)
	assert.Error(t, s.UnmarshalText([]byte("done")))
}

func newLister(store orders.Store) *ProductLister {
	l := NewProductLister(store)
	l.Now = func() time.Time { return time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC) }
	l.OrderNumber = func() string { return "ORDER-55555" }
	return l
}

func TestProductLister_AddsProductAndPendingOrder(t *testing.T) {
	ctx := context.Background()
	store := orders.NewMemoryStore(nil, nil)

	got, err := newLister(store).Submit(ctx, ProductInput{Name: "Test", Description: "d", Price: "10"})
	require.NoError(t, err)

	products, err := store.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Test", products[0].Name)
	assert.True(t, products[0].Price.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, orders.StatusActive, products[0].Status)

	list, err := store.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	o := list[0]
	assert.Equal(t, orders.StatusPending, o.Status)
	assert.True(t, o.Total.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 1, o.Items)
	assert.Equal(t, "Test", o.ProductName)
	assert.Equal(t, "2024-03-09", o.Date)
	assert.Equal(t, "ORDER-55555", o.OrderNumber)
	assert.Equal(t, got.Order, o)
	assert.Equal(t, got.Product, products[0])
}

func TestProductLister_MissingFields(t *testing.T) {
	ctx := context.Background()
	store := orders.NewMemoryStore(nil, nil)

	_, err := newLister(store).Submit(ctx, ProductInput{Name: "  ", Price: "10"})
	ve, ok := AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"name"}, ve.Fields)
	require.NotNil(t, ve.Toast)
	assert.Equal(t, MissingInformation, *ve.Toast)

	products, _ := store.ListProducts(ctx)
	assert.Empty(t, products)
}

func TestProductLister_InvalidPrice(t *testing.T) {
	ctx := context.Background()
	store := orders.NewMemoryStore(nil, nil)

	for _, price := range []string{"abc", "-1"} {
		_, err := newLister(store).Submit(ctx, ProductInput{Name: "Lamp", Price: price})
		ve, ok := AsValidation(err)
		require.True(t, ok, price)
		assert.Equal(t, &InvalidPrice, ve.Toast)
	}
	list, _ := store.ListOrders(ctx)
	assert.Empty(t, list)
}

func TestAddAccount(t *testing.T) {
	book := payments.NewBook(nil)

	a, toast, err := AddAccount(book, AccountInput{MethodID: "maya", AccountName: " Shop ", AccountNumber: "0917"})
	require.NoError(t, err)
	assert.Equal(t, "Shop", a.AccountName)
	assert.True(t, a.IsDefault)
	assert.Equal(t, "Account added", toast.Title)
	assert.Equal(t, "Your Paymaya account has been successfully added.", toast.Description)
	assert.Len(t, book.Accounts(""), 1)
}

func TestAddAccount_Rejects(t *testing.T) {
	book := payments.NewBook(nil)

	_, _, err := AddAccount(book, AccountInput{MethodID: "gcash", AccountName: "x"})
	ve, ok := AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"accountNumber"}, ve.Fields)
	assert.Equal(t, &MissingInformation, ve.Toast)

	_, _, err = AddAccount(book, AccountInput{MethodID: "paypal", AccountName: "x", AccountNumber: "1"})
	_, ok = AsValidation(err)
	assert.True(t, ok)

	assert.Empty(t, book.Accounts(""))
}

type memDisk struct {
	mu    sync.Mutex
	files map[string][]byte
	fail  error
}

func (d *memDisk) Put(_ context.Context, path string, r io.Reader, _ string) error {
	if d.fail != nil {
		return d.fail
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.files == nil {
		d.files = map[string][]byte{}
	}
	d.files[path] = b
	return nil
}

func (d *memDisk) Get(_ context.Context, path string) (io.ReadCloser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.files[path]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (d *memDisk) Exists(_ context.Context, path string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.files[path]
	return ok, nil
}

func (d *memDisk) Delete(_ context.Context, path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.files, path)
	return nil
}

func (d *memDisk) URL(path string) string { return "/uploads/" + path }

func upload(name, body string) *Upload {
	return &Upload{Filename: name, ContentType: "image/png", Body: strings.NewReader(body)}
}

func TestMiddlemanDesk_Submit(t *testing.T) {
	disk := &memDisk{}
	var notified []Application
	desk := NewMiddlemanDesk(disk, nil, func(_ context.Context, a Application) { notified = append(notified, a) })
	form := NewSubmission(0)

	app, err := desk.Submit(context.Background(), "session-1", form, MiddlemanInput{
		Name:       "Jane Doe",
		Email:      "jane@example.com",
		Password:   "secret123",
		Expertise:  " Electronics ",
		IDDocument: upload("ID.PNG", "id-bytes"),
		ProofImage: upload("proof.jpg", "proof-bytes"),
	})
	require.NoError(t, err)

	assert.Equal(t, Success, form.State())
	assert.Equal(t, Success, app.State)
	assert.Equal(t, "Electronics", app.Expertise)
	assert.Equal(t, "/uploads/applications/"+app.ID+"/jane-doe-id-document.png", app.IDDocument)
	assert.Equal(t, "/uploads/applications/"+app.ID+"/jane-doe-proof.jpg", app.ProofImage)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(app.PasswordHash), []byte("secret123")))
	assert.Equal(t, []byte("id-bytes"), disk.files["applications/"+app.ID+"/jane-doe-id-document.png"])

	stored, err := desk.Get(context.Background(), "session-1", app.ID)
	require.NoError(t, err)
	assert.Equal(t, app, stored)
	require.Len(t, notified, 1)
	assert.Equal(t, app.ID, notified[0].ID)
	assert.Equal(t, "session-1", app.Owner)

	_, err = desk.Get(context.Background(), "session-2", app.ID)
	assert.ErrorIs(t, err, ErrApplicationNotFound)

	rc, err := desk.Document(context.Background(), "session-1", "applications/"+app.ID+"/jane-doe-proof.jpg")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "proof-bytes", string(got))
	_ = rc.Close()

	for _, key := range []string{
		"applications/" + app.ID + "/jane-doe-proof.jpg", // other session
		"applications/nope/jane-doe-proof.jpg",
		"other/" + app.ID + "/jane-doe-proof.jpg",
	} {
		_, err = desk.Document(context.Background(), "session-2", key)
		assert.ErrorIs(t, err, ErrApplicationNotFound, key)
	}
	_, err = desk.Document(context.Background(), "session-1", "applications/"+app.ID+"/stray.png")
	assert.ErrorIs(t, err, ErrApplicationNotFound)

	_, err = desk.Submit(context.Background(), "session-1", form, MiddlemanInput{
		Expertise:  "Books",
		IDDocument: upload("a.png", "a"),
		ProofImage: upload("b.png", "b"),
	})
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestMiddlemanDesk_MissingFieldStaysIdle(t *testing.T) {
	disk := &memDisk{}
	desk := NewMiddlemanDesk(disk, nil, nil)
	form := NewSubmission(0)

	app, err := desk.Submit(context.Background(), "session-1", form, MiddlemanInput{
		Expertise:  "Fashion",
		ProofImage: upload("proof.png", "p"),
	})
	ve, ok := AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"idDocument"}, ve.Fields)
	assert.Nil(t, ve.Toast)
	assert.Equal(t, Idle, form.State())
	assert.Equal(t, Idle, app.State)
	assert.Empty(t, disk.files)

	_, err = desk.Get(context.Background(), "session-1", app.ID)
	assert.ErrorIs(t, err, ErrApplicationNotFound)
}

func TestMiddlemanDesk_StorageFailureReturnsToIdle(t *testing.T) {
	disk := &memDisk{fail: errors.New("disk full")}
	desk := NewMiddlemanDesk(disk, nil, nil)
	form := NewSubmission(0)

	_, err := desk.Submit(context.Background(), "session-1", form, MiddlemanInput{
		Expertise:  "Fashion",
		IDDocument: upload("id.png", "i"),
		ProofImage: upload("proof.png", "p"),
	})
	require.Error(t, err)
	assert.Equal(t, Idle, form.State())
}
