package bakery

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is a registered back-office account. Credentials are stored as a
// bcrypt hash; IsVerified flips once the activation link is consumed and
// IsActive can be cleared by an admin to lock the account out.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FirstName      string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName       string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone          string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"-"`
	IsActive       bool       `bun:"is_active" json:"is_active"`
	IsVerified     bool       `bun:"is_verified" json:"is_verified"`
	LoginAttempts  int        `bun:"login_attempts" json:"-"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"-"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"-"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// PublicUser is the representation returned by the registration endpoint.
// The credential hash and login counters never leave the server.
type PublicUser struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Phone      string    `json:"phone_number"`
	IsActive   bool      `json:"is_active"`
	IsVerified bool      `json:"is_verified"`
}

// Public returns the serializable view of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Phone:      u.Phone,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
	}
}

// AuthToken is an opaque session credential. Only the SHA-512 digest of
// the cleartext token is persisted; the cleartext is handed to the client
// exactly once at login. A user may hold many tokens at a time and they
// are deleted in bulk when the password changes.
type AuthToken struct {
	bun.BaseModel `bun:"table:auth_tokens,alias:tok"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Digest        string     `bun:"digest,notnull,unique" json:"-"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Expired reports whether the credential is past its TTL.
func (t *AuthToken) Expired() bool {
	return time.Now().After(t.ExpiresAt)
}
