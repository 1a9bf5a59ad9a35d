package domain

import "time"

// UserRole represents the authorization role of a user.
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// User is a registered account.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	Role         UserRole
	IsActive     bool
	CreatedAt    time.Time
}

// IsAdmin reports whether the user has the admin role.
func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// DisplayName returns the full name, falling back to the username.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Session is a server-side login session.
type Session struct {
	ID           string
	UserID       string
	SessionKey   string
	IPAddress    string
	UserAgent    string
	CreatedAt    time.Time
	LastActivity time.Time
	ExpiresAt    time.Time
	IsActive     bool
}

// Valid reports whether the session can still authenticate requests.
func (s Session) Valid(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}

// Actor identifies the caller of an operation. A zero Actor is anonymous.
type Actor struct {
	UserID     string
	Role       UserRole
	FullName   string
	GuestToken string
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == UserRoleAdmin
}

// IsAuthenticated reports whether the actor is a logged-in user.
func (a Actor) IsAuthenticated() bool {
	return a.UserID != ""
}

// CanAccessBooking reports whether the actor owns b, holds its guest token, or is an admin.
func (a Actor) CanAccessBooking(b Booking) bool {
	if a.IsAdmin() {
		return true
	}
	if b.UserID != "" {
		return a.UserID == b.UserID
	}
	return a.GuestToken != "" && a.GuestToken == b.GuestToken
}
