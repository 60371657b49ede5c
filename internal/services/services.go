// package services defines the [RemoteStore] capability and its Google Drive implementation
package services

import (
	"context"

	"github.com/desertthunder/dclone/internal/models"
	"golang.org/x/oauth2"
)

// RemoteStore is the set of remote operations the clone engine depends on.
//
// Every failure is a [*RemoteError] classified as transient or permanent.
type RemoteStore interface {
	// GetMetadata fetches a single item.
	GetMetadata(ctx context.Context, id string) (*models.Node, error)

	// ListChildren returns all direct, non-trashed children of a folder in store order.
	ListChildren(ctx context.Context, folderID string) ([]models.Node, error)

	// CopyFile copies a file under parentID with a new name. An empty parentID uses the default container.
	CopyFile(ctx context.Context, id, name, parentID string) (*models.Node, error)

	// CreateFolder creates an empty folder under parentID. An empty parentID uses the default container.
	CreateFolder(ctx context.Context, name, parentID string) (*models.Node, error)
}

// OAuthService is implemented by providers that authorize through the OAuth2 code flow.
type OAuthService interface {
	GetAuthURL(state string) string  // GetAuthURL returns the consent page URL carrying state
	GetOAuthConfig() *oauth2.Config // GetOAuthConfig returns the client configuration used for code exchange
}
