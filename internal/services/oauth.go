package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/dclone/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// GoogleAuth implements [OAuthService] for Google accounts with full Drive scope.
type GoogleAuth struct {
	config *oauth2.Config
}

// NewGoogleAuth creates the OAuth client from client_id, client_secret, and redirect_uri credentials.
func NewGoogleAuth(credentials map[string]string) (*GoogleAuth, error) {
	clientID := credentials["client_id"]
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret := credentials["client_secret"]
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = "http://localhost:5000/api/auth/callback"
	}

	return &GoogleAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{drive.DriveScope},
			Endpoint:     google.Endpoint,
		},
	}, nil
}

// GetAuthURL returns the consent URL, requesting offline access so a refresh token is issued.
func (g *GoogleAuth) GetAuthURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// GetOAuthConfig returns the underlying [oauth2.Config].
func (g *GoogleAuth) GetOAuthConfig() *oauth2.Config {
	return g.config
}

// Exchange trades an authorization code for a token.
func (g *GoogleAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange failed: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// TokenSource returns a source that refreshes token when it expires.
func (g *GoogleAuth) TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource {
	return g.config.TokenSource(ctx, token)
}

// Refresh returns a valid token, refreshing token when it has expired.
func (g *GoogleAuth) Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	if token == nil {
		return nil, shared.ErrNotAuthenticated
	}
	fresh, err := g.TokenSource(ctx, token).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
	}
	return fresh, nil
}

// NewDriveService creates a [DriveService] authenticated as token.
func (g *GoogleAuth) NewDriveService(ctx context.Context, token *oauth2.Token, opts DriveOpts) (*DriveService, error) {
	if token == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return NewDriveService(ctx, opts, option.WithTokenSource(g.TokenSource(ctx, token)))
}

// DriveOptsFromConfig builds [DriveOpts] from the [drive] config section.
func DriveOptsFromConfig(cfg shared.DriveConfig) DriveOpts {
	return DriveOpts{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		PageSize:          cfg.PageSize,
	}
}
