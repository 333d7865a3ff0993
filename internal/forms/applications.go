package forms

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrApplicationNotFound = errors.New("forms: application not found")

type ApplicationStore interface {
	SaveApplication(ctx context.Context, a Application) error
	GetApplication(ctx context.Context, id string) (Application, error)
}

type MemoryApplications struct {
	mu   sync.RWMutex
	apps map[string]Application
}

func NewMemoryApplications() *MemoryApplications {
	return &MemoryApplications{apps: map[string]Application{}}
}

func (m *MemoryApplications) SaveApplication(_ context.Context, a Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apps[a.ID] = a
	return nil
}

func (m *MemoryApplications) GetApplication(_ context.Context, id string) (Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.apps[id]
	if !ok {
		return Application{}, ErrApplicationNotFound
	}
	return a, nil
}

// ApplicationRepo keeps submitted applications in Postgres.
type ApplicationRepo struct {
	DB *pgxpool.Pool
}

func (r *ApplicationRepo) SaveApplication(ctx context.Context, a Application) error {
	_, err := r.DB.Exec(ctx, `
INSERT INTO middleman_applications (id, owner, name, email, password_hash, expertise, id_document, proof_image, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.Owner, a.Name, a.Email, a.PasswordHash, a.Expertise, a.IDDocument, a.ProofImage, a.SubmittedAt)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (r *ApplicationRepo) GetApplication(ctx context.Context, id string) (Application, error) {
	a := Application{ID: id, State: Success}
	err := r.DB.QueryRow(ctx, `
SELECT owner, name, email, password_hash, expertise, id_document, proof_image, submitted_at
FROM middleman_applications WHERE id = $1`, id).
		Scan(&a.Owner, &a.Name, &a.Email, &a.PasswordHash, &a.Expertise, &a.IDDocument, &a.ProofImage, &a.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Application{}, ErrApplicationNotFound
	}
	if err != nil {
		return Application{}, fmt.Errorf("get application: %w", err)
	}
	return a, nil
}
