package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dclone/internal/models"
	"github.com/desertthunder/dclone/internal/services"
	"github.com/desertthunder/dclone/internal/shared"
)

// Resolve turns a share URL or bare id into a [models.SourceInfo].
//
// Folders include a recursive item count computed like the clone total.
func Resolve(ctx context.Context, store services.RemoteStore, ref string, logger *log.Logger) (*models.SourceInfo, error) {
	if store == nil {
		return nil, shared.ErrNotAuthenticated
	}

	id, err := shared.ParseSourceID(ref)
	if err != nil {
		return nil, err
	}

	node, err := store.GetMetadata(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", id, err)
	}

	info := &models.SourceInfo{
		ID:   node.ID,
		Name: node.Name,
		Kind: node.Kind,
		Size: node.Size,
	}

	if node.IsFolder() {
		count := NewCounter(store, logger).CountFolder(ctx, node.ID)
		info.ItemCount = &count
	}
	return info, nil
}
