package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	credentials "github.com/goliatone/go-credentials"
	gorepo "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRepository implements credentials.CredentialStore using Bun. Reads
// and inserts go through the generic repository; UpdateByID runs its own
// transaction so the verification precondition holds under concurrency.
type UserRepository struct {
	gorepo.Repository[*credentials.User]
	db  *bun.DB
	now func() time.Time
}

var (
	_ credentials.CredentialStore          = (*UserRepository)(nil)
	_ gorepo.Repository[*credentials.User] = (*UserRepository)(nil)
)

// UserRepositoryOption customizes the repository.
type UserRepositoryOption func(*UserRepository)

// WithRepositoryClock injects a custom clock (useful for tests).
func WithRepositoryClock(clock func() time.Time) UserRepositoryOption {
	return func(r *UserRepository) {
		if clock != nil {
			r.now = clock
		}
	}
}

// NewUserRepository creates a new repository.
func NewUserRepository(db *bun.DB, opts ...UserRepositoryOption) *UserRepository {
	base := gorepo.NewRepository[*credentials.User](db, gorepo.ModelHandlers[*credentials.User]{
		NewRecord: func() *credentials.User { return &credentials.User{} },
		GetID: func(u *credentials.User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *credentials.User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	r := &UserRepository{Repository: base, db: db, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// GetByIdentifier looks a user up by email, or by id when identifier is
// not an email address.
func (r *UserRepository) GetByIdentifier(ctx context.Context, identifier string, criteria ...gorepo.SelectCriteria) (*credentials.User, error) {
	return r.GetByIdentifierTx(ctx, r.db, identifier, criteria...)
}

func (r *UserRepository) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...gorepo.SelectCriteria) (*credentials.User, error) {
	column, value := "id", strings.TrimSpace(identifier)
	if strings.Contains(value, "@") {
		column, value = "email", credentials.NormalizeEmail(value)
	}

	record := &credentials.User{}
	q := tx.NewSelect().Model(record)
	for _, c := range criteria {
		q.Apply(c)
	}

	err := q.Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gorepo.NewRecordNotFound().
				WithMetadata(map[string]any{
					"identifier": identifier,
				})
		}
		return nil, err
	}
	return record, nil
}

// FindByEmail implements credentials.CredentialStore.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*credentials.User, error) {
	email = credentials.NormalizeEmail(email)
	if !strings.Contains(email, "@") {
		return nil, credentials.ErrUserNotFound
	}
	user, err := r.GetByIdentifier(ctx, email)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return user, nil
}

// FindByID implements credentials.CredentialStore.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*credentials.User, error) {
	user, err := r.Repository.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapNotFound(err)
	}
	return user, nil
}

// Insert implements credentials.CredentialStore.
func (r *UserRepository) Insert(ctx context.Context, user *credentials.User) (*credentials.User, error) {
	record := user.Clone()
	record.Email = credentials.NormalizeEmail(record.Email)
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Role == "" {
		record.Role = credentials.RoleStandard
	}
	now := r.now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}

	if _, err := r.Repository.CreateTx(ctx, r.db, record); err != nil {
		if r.isDuplicate(ctx, record.Email, err) {
			return nil, credentials.ErrDuplicateEmail
		}
		return nil, err
	}
	return record, nil
}

// isDuplicate checks the driver error first and falls back to looking
// for the email, since the generic repository may rewrap driver errors.
func (r *UserRepository) isDuplicate(ctx context.Context, email string, err error) bool {
	if IsUniqueViolation(err) || isConflict(err) {
		return true
	}
	_, ferr := r.GetByIdentifier(ctx, email)
	return ferr == nil
}

// UpdateByID implements credentials.CredentialStore. The read, the
// precondition check and the write happen in one transaction; the
// unverified precondition is also part of the UPDATE predicate.
func (r *UserRepository) UpdateByID(ctx context.Context, id uuid.UUID, update credentials.UserUpdate) (*credentials.User, error) {
	user := new(credentials.User)

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().Model(user).Where("?TableAlias.id = ?", id).Scan(ctx); err != nil {
			return mapNotFound(err)
		}

		if update.RequireUnverified && user.IsVerified {
			return credentials.ErrAlreadyVerified
		}

		if update.IsEmpty() {
			return nil
		}

		update.Apply(user, r.now())

		q := tx.NewUpdate().
			Model(user).
			Column(updateColumns(update)...).
			WherePK()
		if update.RequireUnverified {
			q = q.Where("?TableAlias.is_verified = ?", false)
		}

		res, err := q.Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			if update.RequireUnverified {
				return credentials.ErrAlreadyVerified
			}
			return credentials.ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func updateColumns(update credentials.UserUpdate) []string {
	cols := make([]string, 0, 5)
	if update.IsVerified != nil {
		cols = append(cols, "is_verified")
	}
	if update.PasswordHash != nil {
		cols = append(cols, "password_hash")
	}
	if update.LastLoginAt != nil {
		cols = append(cols, "last_login_at")
	}
	if update.BumpCredentialsVersion {
		cols = append(cols, "credentials_version")
	}
	return append(cols, "updated_at")
}
