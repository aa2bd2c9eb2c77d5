package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is the opaque proof of an authenticated identity issued by the auth
// backend. The zero value means "not authenticated". The controller replaces
// sessions wholesale on every transition and never mutates one in place.
type Session struct {
	// UserID identifies the authenticated user (uuid.Nil when anonymous).
	UserID uuid.UUID

	// AccessToken and RefreshToken are opaque backend credentials; the
	// controller carries them but never inspects them.
	AccessToken  string
	RefreshToken string

	ExpiresAt time.Time
}

// IsAuthenticated reports whether the session carries a user identity.
func (s Session) IsAuthenticated() bool {
	return s.UserID != uuid.Nil && s.AccessToken != ""
}

// EventKind identifies an auth-change notification from the backend.
type EventKind string

const (
	EventInitialSession   EventKind = "INITIAL_SESSION"
	EventSignedIn         EventKind = "SIGNED_IN"
	EventSignedOut        EventKind = "SIGNED_OUT"
	EventTokenRefreshed   EventKind = "TOKEN_REFRESHED"
	EventUserUpdated      EventKind = "USER_UPDATED"
	EventPasswordRecovery EventKind = "PASSWORD_RECOVERY"
)

// AuthEvent is one auth-change notification. An empty Session signals
// sign-out.
type AuthEvent struct {
	Kind    EventKind
	Session Session
}

// AuthBackend is the external authentication collaborator.
//
// Implementations must emit an AuthEvent on the Events stream after
// successful SignIn/SignUp/SignOut calls; the controller applies all session
// state changes through that stream, not through the call results.
type AuthBackend interface {
	// CurrentSession returns the restored session, or the zero Session when
	// no user is signed in.
	CurrentSession(ctx context.Context) (Session, error)
	SignIn(ctx context.Context, identifier, secret string) (Session, error)
	SignUp(ctx context.Context, identifier, secret string, profile map[string]string) (Session, error)
	SignOut(ctx context.Context) error
	// Events delivers auth-change notifications until the backend closes.
	Events() <-chan AuthEvent
}

// Hydrator supplies the post-authentication fetch operations. The controller
// treats them as black boxes that are idempotent, safe to retry, and safe to
// run concurrently with each other.
type Hydrator interface {
	FetchProfile(ctx context.Context) error
	// FetchCurrentGroup returns the user's current group, or uuid.Nil when
	// the user belongs to none.
	FetchCurrentGroup(ctx context.Context) (uuid.UUID, error)
	FetchPreferences(ctx context.Context) error
}

// AppState is an OS application state transition.
type AppState string

const (
	AppStateActive     AppState = "active"
	AppStateInactive   AppState = "inactive"
	AppStateBackground AppState = "background"
)

// AppStateNotifier delivers OS foreground/background transitions.
type AppStateNotifier interface {
	States() <-chan AppState
}
