package repository

import (
	"context"
	"sync"
	"time"

	credentials "github.com/goliatone/go-credentials"
	"github.com/google/uuid"
)

// MemoryUserRepository is a map backed credentials.CredentialStore. All
// records handed in or out are copies.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*credentials.User
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

var _ credentials.CredentialStore = (*MemoryUserRepository)(nil)

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[uuid.UUID]*credentials.User),
		byEmail: make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*credentials.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[credentials.NormalizeEmail(email)]
	if !ok {
		return nil, credentials.ErrUserNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id uuid.UUID) (*credentials.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, credentials.ErrUserNotFound
	}
	return user.Clone(), nil
}

func (r *MemoryUserRepository) Insert(_ context.Context, user *credentials.User) (*credentials.User, error) {
	record := user.Clone()
	record.Email = credentials.NormalizeEmail(record.Email)
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Role == "" {
		record.Role = credentials.RoleStandard
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = r.now()
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[record.Email]; taken {
		return nil, credentials.ErrDuplicateEmail
	}
	if _, taken := r.byID[record.ID]; taken {
		return nil, credentials.ErrDuplicateEmail
	}

	r.byID[record.ID] = record
	r.byEmail[record.Email] = record.ID
	return record.Clone(), nil
}

func (r *MemoryUserRepository) UpdateByID(_ context.Context, id uuid.UUID, update credentials.UserUpdate) (*credentials.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, credentials.ErrUserNotFound
	}
	if update.RequireUnverified && user.IsVerified {
		return nil, credentials.ErrAlreadyVerified
	}
	if !update.IsEmpty() {
		update.Apply(user, r.now())
	}
	return user.Clone(), nil
}

// Len returns the number of stored users.
func (r *MemoryUserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
