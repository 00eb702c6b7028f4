package guard

import "github.com/upb/monument-scanner/models"

// AuthStatus is the resolution state of the current session
type AuthStatus int

const (
	// StatusLoading means the session has not been resolved yet
	StatusLoading AuthStatus = iota
	StatusUnauthenticated
	StatusAuthenticated
)

// String returns the status name used in logs and API responses
func (s AuthStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// AuthState is the observed authentication state. User is set only when
// Status is StatusAuthenticated.
type AuthState struct {
	Status AuthStatus
	User   *models.User
}

// Loading returns the unresolved state
func Loading() AuthState {
	return AuthState{Status: StatusLoading}
}

// Unauthenticated returns the signed-out state
func Unauthenticated() AuthState {
	return AuthState{Status: StatusUnauthenticated}
}

// Authenticated returns the signed-in state for user
func Authenticated(user *models.User) AuthState {
	return AuthState{Status: StatusAuthenticated, User: user}
}

// IsLoading reports whether the session is still being resolved
func (s AuthState) IsLoading() bool {
	return s.Status == StatusLoading
}

// IsAuthenticated reports whether a user is signed in
func (s AuthState) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated
}

// Equal compares two states by status and user identity
func (s AuthState) Equal(other AuthState) bool {
	if s.Status != other.Status {
		return false
	}
	if s.User == nil || other.User == nil {
		return s.User == other.User
	}
	return s.User.ID == other.User.ID
}

// Snapshot is the combined input pair the guard evaluates. Producers publish
// both values together so the guard never sees one fresh and one stale value.
type Snapshot struct {
	Auth  AuthState
	Group string
}

// Equal reports whether two snapshots would produce the same decision
func (s Snapshot) Equal(other Snapshot) bool {
	return s.Group == other.Group && s.Auth.Equal(other.Auth)
}
