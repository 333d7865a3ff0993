package forms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"

	"github.com/ariefcatur/sellmate/internal/orders"
	"github.com/ariefcatur/sellmate/internal/storage"
)

type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// MiddlemanInput carries the account details collected by the sign-up step
// plus the middleman-specific fields.
type MiddlemanInput struct {
	Name       string  `json:"name"`
	Email      string  `json:"email" validate:"omitempty,email"`
	Password   string  `json:"-"`
	Expertise  string  `json:"expertise" validate:"required"`
	IDDocument *Upload `json:"idDocument" validate:"required"`
	ProofImage *Upload `json:"proofImage" validate:"required"`
}

type Application struct {
	ID           string    `json:"id"`
	Owner        string    `json:"-"` // session that submitted it
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Expertise    string    `json:"expertise"`
	IDDocument   string    `json:"idDocument"`
	ProofImage   string    `json:"proofImage"`
	State        State     `json:"state"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

// MiddlemanDesk receives middleman applications and keeps their documents
// on disk.
type MiddlemanDesk struct {
	Disk   storage.Disk
	Apps   ApplicationStore
	Notify func(context.Context, Application)
	Now    func() time.Time
}

func NewMiddlemanDesk(disk storage.Disk, apps ApplicationStore, notify func(context.Context, Application)) *MiddlemanDesk {
	if apps == nil {
		apps = NewMemoryApplications()
	}
	return &MiddlemanDesk{Disk: disk, Apps: apps, Notify: notify, Now: time.Now}
}

// Submit drives form with in on behalf of owner. A missing idDocument,
// expertise or proofImage leaves form Idle and returns a *ValidationError
// without a toast.
func (d *MiddlemanDesk) Submit(ctx context.Context, owner string, form *Submission, in MiddlemanInput) (Application, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Expertise = strings.TrimSpace(in.Expertise)

	app := Application{ID: orders.NewID(), Owner: owner, Name: in.Name, Email: in.Email, Expertise: in.Expertise}
	check := func() error { return Check(in, nil) }
	commit := func(ctx context.Context) error {
		if in.Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			app.PasswordHash = string(hash)
		}
		var err error
		if app.IDDocument, err = d.store(ctx, app, "id-document", in.IDDocument); err != nil {
			return err
		}
		if app.ProofImage, err = d.store(ctx, app, "proof", in.ProofImage); err != nil {
			return err
		}
		app.State = Success
		app.SubmittedAt = d.Now().UTC()
		if err := d.Apps.SaveApplication(ctx, app); err != nil {
			return err
		}
		if d.Notify != nil {
			d.Notify(ctx, app)
		}
		return nil
	}

	if err := form.Submit(ctx, check, commit); err != nil {
		return Application{ID: app.ID, State: form.State()}, err
	}
	return app, nil
}

// Get returns application id when owner submitted it. Anyone else gets
// ErrApplicationNotFound.
func (d *MiddlemanDesk) Get(ctx context.Context, owner, id string) (Application, error) {
	app, err := d.Apps.GetApplication(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if app.Owner != owner {
		return Application{}, ErrApplicationNotFound
	}
	return app, nil
}

// Document opens an uploaded document by its disk key, for the owner of the
// application it belongs to only.
func (d *MiddlemanDesk) Document(ctx context.Context, owner, key string) (io.ReadCloser, error) {
	rest, ok := strings.CutPrefix(key, "applications/")
	if !ok {
		return nil, ErrApplicationNotFound
	}
	id, _, ok := strings.Cut(rest, "/")
	if !ok {
		return nil, ErrApplicationNotFound
	}
	app, err := d.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if url := d.Disk.URL(key); url != app.IDDocument && url != app.ProofImage {
		return nil, ErrApplicationNotFound
	}
	rc, err := d.Disk.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrApplicationNotFound
	}
	return rc, err
}

func (d *MiddlemanDesk) store(ctx context.Context, app Application, kind string, u *Upload) (string, error) {
	who := slug.Make(app.Name)
	if who == "" {
		who = "applicant"
	}
	key := fmt.Sprintf("applications/%s/%s-%s%s", app.ID, who, kind, strings.ToLower(path.Ext(u.Filename)))
	if err := d.Disk.Put(ctx, key, u.Body, u.ContentType); err != nil {
		return "", fmt.Errorf("store %s: %w", kind, err)
	}
	return d.Disk.URL(key), nil
}
