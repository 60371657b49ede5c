// Package services defines the [RemoteStore] capability used by the clone engine and implements it on Google Drive.
//
// # Remote Store
//
// [RemoteStore] exposes the four calls cloning needs: get metadata, list children, copy file, and create folder.
// The engine never sees provider types, only [models.Node] snapshots.
//
// # Drive Implementation
//
// [DriveService] wraps the generated drive/v3 client. Listing follows every page and excludes trashed items.
// Shared drives are supported. A [rate.Limiter] paces all calls made through one service value.
//
// # OAuth
//
// [GoogleAuth] implements [OAuthService] for the authorization code flow used by the CLI and the web server.
// Tokens are refreshed on demand through [oauth2.TokenSource].
//
// # Error Handling
//
// Every remote failure is returned as a [*RemoteError] whose Kind is a sentinel from the shared package:
//   - [shared.ErrRemoteNotFound] : 404
//   - [shared.ErrPermissionDenied] : 401/403 that is not a rate limit
//   - [shared.ErrNotAuthenticated] : the token could not be refreshed
//   - [shared.ErrRemoteTransient] : 429, 5xx, rate limits, network failures
//   - [shared.ErrRemotePermanent] : everything else
//
// Nothing here retries. Callers decide what a failure means.
//
// # API Client
//
// [APIClient] talks to a running `dclone serve` instance and maps error responses back onto the same sentinels.
package services
