package authsync

import "errors"

var (
	// ErrNotAuthenticated is an exported constant or variable used by the session engine.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNotRefreshable is an exported constant or variable used by the session engine.
	ErrNotRefreshable = errors.New("token grant is not refreshable")
	// ErrInvalidCredentials is an exported constant or variable used by the session engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRegistration is an exported constant or variable used by the session engine.
	ErrInvalidRegistration = errors.New("invalid registration request")
	// ErrPasswordPolicy is an exported constant or variable used by the session engine.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrPasswordReuse is an exported constant or variable used by the session engine.
	ErrPasswordReuse = errors.New("new password must be different from current password")
	// ErrEmptyProfilePatch is an exported constant or variable used by the session engine.
	ErrEmptyProfilePatch = errors.New("profile patch is empty")
	// ErrEngineNotReady is an exported constant or variable used by the session engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrBuilderUsed is an exported constant or variable used by the session engine.
	ErrBuilderUsed = errors.New("builder already used")
)
