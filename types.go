package authsync

import (
	"time"

	"github.com/virelio/authsync/api"
	"github.com/virelio/authsync/tokenstore"
)

// AuthTokens is the access/refresh token pair held by the engine.
type AuthTokens = tokenstore.Tokens

// TokenClass distinguishes refreshable session grants from static
// credentials such as API keys.
type TokenClass = tokenstore.Class

const (
	// ClassSession is an exported constant or variable used by the session engine.
	ClassSession = tokenstore.ClassSession
	// ClassStatic is an exported constant or variable used by the session engine.
	ClassStatic = tokenstore.ClassStatic
)

// AccountStatus represents the lifecycle state of a user account.
type AccountStatus = api.AccountStatus

const (
	// StatusActive is an exported constant or variable used by the session engine.
	StatusActive = api.StatusActive
	// StatusPendingVerification is an exported constant or variable used by the session engine.
	StatusPendingVerification = api.StatusPendingVerification
	// StatusDisabled is an exported constant or variable used by the session engine.
	StatusDisabled = api.StatusDisabled
	// StatusLocked is an exported constant or variable used by the session engine.
	StatusLocked = api.StatusLocked
)

// UserProfile is the full account representation returned by the remote
// service and cached by the engine.
type UserProfile = api.UserProfile

// Credentials carries the identifier and password consumed by [Engine.Login].
type Credentials = api.Credentials

// Registration is the input for [Engine.Register].
type Registration = api.Registration

// ProfilePatch is a partial profile update applied by [Engine.UpdateProfile].
// Nil fields are left untouched.
type ProfilePatch = api.ProfilePatch

// UserContext is the engine's projection of the authenticated user, exposed
// through [Engine.Session]. It carries only the fields session consumers
// routinely need; the full [UserProfile] remains available via
// [Engine.CurrentUser].
type UserContext struct {
	UserID      string
	Email       string
	Status      AccountStatus
	FirstName   string
	LastName    string
	LastLoginAt time.Time
}

// LoginResult is returned by [Engine.Login] and [Engine.Register]. It
// includes the granted token pair and the profile the server attached to
// the grant.
type LoginResult struct {
	Tokens AuthTokens
	User   UserProfile
}

// SessionState is a derived view of the session, returned by
// [Engine.Session]. Authenticated is true only when both a token pair and
// a cached user are present; neither alone is sufficient.
type SessionState struct {
	Authenticated  bool
	TokensPresent  bool
	UserPresent    bool
	User           UserContext
	TokenExpiresAt time.Time
}

// SessionReport is a read-only snapshot of the engine's session posture,
// returned by [Engine.SessionReport].
type SessionReport struct {
	Authenticated     bool
	Token             TokenInfo
	RefreshDue        bool
	AutoRefreshActive bool
	RefreshInterval   time.Duration
	RefreshSkew       time.Duration
	UserCached        bool
	UserFresh         bool
	CacheEntries      int
	AuditDropped      uint64
}

func projectUser(p UserProfile) UserContext {
	return UserContext{
		UserID:      p.ID,
		Email:       p.Email,
		Status:      p.Status,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		LastLoginAt: p.LastLoginAt,
	}
}
