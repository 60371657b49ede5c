package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dclone/internal/services"
	"github.com/desertthunder/dclone/internal/shared"
)

// Counter estimates how many items a clone will create.
//
// Remote failures are logged and the unreadable subtree counts as one item, so the result is always >= 1.
type Counter struct {
	store  services.RemoteStore
	logger *log.Logger
}

// NewCounter creates a Counter over store.
func NewCounter(store services.RemoteStore, logger *log.Logger) *Counter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Counter{store: store, logger: logger}
}

// Count returns the number of items rooted at id, including id itself.
func (c *Counter) Count(ctx context.Context, id string) int {
	node, err := c.store.GetMetadata(ctx, id)
	if err != nil {
		c.logger.Warn("counting items failed", "id", id, "error", err)
		return 1
	}
	if !node.IsFolder() {
		return 1
	}
	return c.CountFolder(ctx, id)
}

// CountFolder counts a folder already known to be a folder, without fetching its metadata.
func (c *Counter) CountFolder(ctx context.Context, folderID string) int {
	children, err := c.store.ListChildren(ctx, folderID)
	if err != nil {
		c.logger.Warn("counting items failed", "id", folderID, "error", err)
		return 1
	}

	count := 1
	for _, child := range children {
		if child.IsFolder() {
			count += c.CountFolder(ctx, child.ID)
		} else {
			count++
		}
	}
	return count
}
