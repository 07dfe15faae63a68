package api

import "time"

// AccountStatus is the server-reported lifecycle state of an account.
type AccountStatus string

const (
	// StatusActive is an exported constant or variable used by the session engine.
	StatusActive AccountStatus = "active"
	// StatusPendingVerification is an exported constant or variable used by the session engine.
	StatusPendingVerification AccountStatus = "pending_verification"
	// StatusDisabled is an exported constant or variable used by the session engine.
	StatusDisabled AccountStatus = "disabled"
	// StatusLocked is an exported constant or variable used by the session engine.
	StatusLocked AccountStatus = "locked"
)

// UserProfile defines a public type used by authsync APIs.
//
// UserProfile instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type UserProfile struct {
	ID          string        `json:"id"`
	Email       string        `json:"email"`
	FirstName   string        `json:"firstName"`
	LastName    string        `json:"lastName"`
	DisplayName string        `json:"displayName,omitempty"`
	Status      AccountStatus `json:"status"`
	TenantID    string        `json:"tenantId,omitempty"`
	Roles       []string      `json:"roles,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	LastLoginAt time.Time     `json:"lastLoginAt"`
}

// Credentials carries one login attempt.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration carries an account-creation request: credentials plus the
// initial profile fields.
type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// ProfilePatch is a partial profile update. Nil fields are omitted from the
// request body and left untouched by the server.
type ProfilePatch struct {
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	DisplayName *string `json:"displayName,omitempty"`
}

// Apply returns a copy of base with the non-nil patch fields replaced.
func (p ProfilePatch) Apply(base UserProfile) UserProfile {
	out := base
	if p.FirstName != nil {
		out.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		out.LastName = *p.LastName
	}
	if p.DisplayName != nil {
		out.DisplayName = *p.DisplayName
	}
	return out
}

// IsZero reports whether the patch changes nothing.
func (p ProfilePatch) IsZero() bool {
	return p.FirstName == nil && p.LastName == nil && p.DisplayName == nil
}

// SessionPayload is the response shape shared by login and register: a full
// token grant plus the authenticated profile.
type SessionPayload struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	TokenType    string      `json:"tokenType"`
	ExpiresIn    int64       `json:"expiresIn"`
	User         UserProfile `json:"user"`
}

// TokenPayload is the refresh response: a new grant with no profile.
type TokenPayload struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}
