package credentials

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the persisted credential record.
type User struct {
	bun.BaseModel      `bun:"table:users,alias:usr"`
	ID                 uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Email              string     `bun:"email,notnull,unique" json:"email"`
	PasswordHash       string     `bun:"password_hash,notnull" json:"-"`
	FirstName          string     `bun:"first_name,notnull" json:"first_name"`
	LastName           string     `bun:"last_name,notnull" json:"last_name"`
	Phone              string     `bun:"phone_number,notnull" json:"phone_number,omitempty"`
	IsVerified         bool       `bun:"is_verified,notnull" json:"is_verified"`
	Role               Role       `bun:"user_role,notnull" json:"user_role"`
	LastLoginAt        *time.Time `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`
	CredentialsVersion int        `bun:"credentials_version,notnull" json:"-"`
	CreatedAt          time.Time  `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt          time.Time  `bun:"updated_at,notnull" json:"updated_at"`
}

// Snapshot returns a copy of the record without secrets.
func (u *User) Snapshot() UserSnapshot {
	if u == nil {
		return UserSnapshot{}
	}
	s := UserSnapshot{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Phone:      u.Phone,
		IsVerified: u.IsVerified,
		Role:       u.Role,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		s.LastLoginAt = &t
	}
	return s
}

// Clone returns a deep copy of the record.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

// FullName joins first and last name.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserSnapshot is the public view of a user, used as event payload.
type UserSnapshot struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       string     `json:"phone_number,omitempty"`
	IsVerified  bool       `json:"is_verified"`
	Role        Role       `json:"user_role"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UserUpdate is a partial update applied by CredentialStore.UpdateByID.
// Nil fields are left untouched.
type UserUpdate struct {
	IsVerified   *bool
	PasswordHash *string
	LastLoginAt  *time.Time

	// BumpCredentialsVersion increments CredentialsVersion by one.
	BumpCredentialsVersion bool

	// RequireUnverified makes the update conditional on the record still
	// being unverified. Stores return ErrAlreadyVerified otherwise.
	RequireUnverified bool
}

// IsEmpty reports whether the update would change nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.IsVerified == nil &&
		u.PasswordHash == nil &&
		u.LastLoginAt == nil &&
		!u.BumpCredentialsVersion
}

// Apply mutates user in place. It does not check RequireUnverified.
func (u UserUpdate) Apply(user *User, now time.Time) {
	if u.IsVerified != nil {
		user.IsVerified = *u.IsVerified
	}
	if u.PasswordHash != nil {
		user.PasswordHash = *u.PasswordHash
	}
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		user.LastLoginAt = &t
	}
	if u.BumpCredentialsVersion {
		user.CredentialsVersion++
	}
	user.UpdatedAt = now
}

// Principal is the result of authorizing a session token.
type Principal struct {
	UserID     uuid.UUID
	Role       Role
	IsVerified bool
}

// AuthResult is returned by Register and Authenticate.
type AuthResult struct {
	User         *User
	SessionToken string
	ExpiresAt    time.Time
}
