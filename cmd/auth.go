package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/dclone/internal/server"
	"github.com/desertthunder/dclone/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthLogin performs the OAuth2 code flow for Google.
//
// Starts a local HTTP server on the redirect URI, opens the browser for consent, and saves the tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.auth == nil {
		return fmt.Errorf("%w: client_id and client_secret must be set in %s", shared.ErrMissingCredentials, r.configPath)
	}

	token, err := r.doOAuth(ctx, cmd.Duration("timeout"))
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", r.configPath)
	r.writePlain("You can now use: dclone clone <share-link>\n")
	return nil
}

// AuthStatus reports whether the saved token can be used, refreshing it when expired.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	token := r.config.Credentials.Google.Token()
	if token == nil {
		return r.writePlain("Authentication: ✗ Not authenticated\n")
	}
	if r.auth == nil {
		return fmt.Errorf("%w: client_id and client_secret must be set in %s", shared.ErrMissingCredentials, r.configPath)
	}

	fresh, err := r.auth.Refresh(ctx, token)
	if err != nil {
		r.logger.Debug("token refresh failed", "error", err)
		return r.writePlain("Authentication: ✗ Token expired, run 'dclone auth login'\n")
	}

	if fresh.AccessToken != token.AccessToken {
		r.logger.Info("access token refreshed")
		if err := r.saveTokens(fresh); err != nil {
			r.logger.Warn("failed to save refreshed token", "error", err)
		}
	}

	r.writePlain("Authentication: ✓ Authenticated\n")
	if !fresh.Expiry.IsZero() {
		r.writePlain("Expires: %s\n", fresh.Expiry.Local().Format(time.RFC1123))
	}
	return nil
}

func (r *Runner) doOAuth(ctx context.Context, timeout time.Duration) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, err
	}

	redirect, err := url.Parse(r.auth.GetOAuthConfig().RedirectURL)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("%w: bad redirect_uri %q", shared.ErrInvalidConfig, r.auth.GetOAuthConfig().RedirectURL)
	}

	handler := server.NewCallbackHandler(r.auth.Exchange, state, redirect.Path)
	router := server.NewBasicRouter()
	router.Handler(handler)

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot listen on %s: %v", shared.ErrServiceUnavailable, redirect.Host, err)
	}

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("waiting for OAuth callback", "addr", listener.Addr().String())
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := r.auth.GetAuthURL(state)
	r.writePlain("→ Opening browser for Google authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser automatically", "error", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case result := <-handler.Result():
		if result.Err != nil {
			return nil, fmt.Errorf("authorization failed: %w", result.Err)
		}
		return result.Token, nil
	case err := <-serverErrors:
		return nil, fmt.Errorf("%w: callback server: %v", shared.ErrServiceUnavailable, err)
	case <-waitCtx.Done():
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	}
}
