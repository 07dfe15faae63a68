package api

import "context"

// TokenSource supplies the bearer credential attached to authenticated
// calls. The engine implements it over its token store so the client always
// sends the freshest access token.
type TokenSource interface {
	AccessToken(ctx context.Context) (token string, ok bool)
}

// Client is the remote Auth API surface the engine consumes. Implementations
// must report failures as [Error] values so callers can classify them by
// [Kind].
type Client interface {
	Login(ctx context.Context, creds Credentials) (SessionPayload, error)
	Register(ctx context.Context, reg Registration) (SessionPayload, error)
	RefreshToken(ctx context.Context, refreshToken string) (TokenPayload, error)
	Logout(ctx context.Context) error
	LogoutAll(ctx context.Context) error
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	UpdateProfile(ctx context.Context, patch ProfilePatch) (UserProfile, error)
	CurrentUser(ctx context.Context) (UserProfile, error)
}
