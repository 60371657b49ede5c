package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dclone/internal/metrics"
	"github.com/desertthunder/dclone/internal/models"
	"github.com/desertthunder/dclone/internal/services"
	"github.com/desertthunder/dclone/internal/shared"
)

// DefaultNamePrefix is prepended to the name of every copy.
const DefaultNamePrefix = "Copy of "

// Reporter receives per-item progress from a [Cloner].
type Reporter interface {
	Advance(name string)     // one item finished; name is the source item's name
	AppendError(msg string) // a failure that did not stop the whole clone
}

type nopReporter struct{}

func (nopReporter) Advance(string)     {}
func (nopReporter) AppendError(string) {}

// ClonerOpts configures a [Cloner].
type ClonerOpts struct {
	NamePrefix string
	Logger     *log.Logger
}

// Cloner copies a file or a folder tree inside the remote store.
//
// A failed child is recorded and skipped; siblings continue. A folder that cannot be read,
// created, or listed fails along with its whole subtree.
type Cloner struct {
	store  services.RemoteStore
	prefix string
	logger *log.Logger
}

// NewCloner creates a Cloner over store.
func NewCloner(store services.RemoteStore, opts ClonerOpts) *Cloner {
	if opts.NamePrefix == "" {
		opts.NamePrefix = DefaultNamePrefix
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Cloner{store: store, prefix: opts.NamePrefix, logger: opts.Logger}
}

// CloneFile copies fileID into parentID. An empty parentID uses the store's default container.
func (c *Cloner) CloneFile(ctx context.Context, fileID, parentID string, r Reporter) (*models.Node, error) {
	if r == nil {
		r = nopReporter{}
	}

	src, err := c.store.GetMetadata(ctx, fileID)
	if err != nil {
		return nil, c.fail(r, "Error copying file", fileID, err)
	}

	copied, err := c.store.CopyFile(ctx, fileID, c.prefix+src.Name, parentID)
	if err != nil {
		return nil, c.fail(r, "Error copying file", fileID, err)
	}

	metrics.RecordNodeCopied(string(models.KindFile))
	r.Advance(src.Name)
	return copied, nil
}

// CloneFolder recreates folderID and everything below it inside parentID.
func (c *Cloner) CloneFolder(ctx context.Context, folderID, parentID string, r Reporter) (*models.Node, error) {
	if r == nil {
		r = nopReporter{}
	}

	src, err := c.store.GetMetadata(ctx, folderID)
	if err != nil {
		return nil, c.fail(r, "Error cloning folder", folderID, err)
	}

	folder, err := c.store.CreateFolder(ctx, c.prefix+src.Name, parentID)
	if err != nil {
		return nil, c.fail(r, "Error cloning folder", folderID, err)
	}

	metrics.RecordNodeCopied(string(models.KindFolder))
	r.Advance(src.Name)

	children, err := c.store.ListChildren(ctx, folderID)
	if err != nil {
		return nil, c.fail(r, "Error cloning folder", folderID, err)
	}

	for _, child := range children {
		if err := ctx.Err(); err != nil {
			return nil, c.fail(r, "Error cloning folder", folderID, err)
		}

		if child.IsFolder() {
			_, err = c.CloneFolder(ctx, child.ID, folder.ID, r)
		} else {
			_, err = c.CloneFile(ctx, child.ID, folder.ID, r)
		}
		if err != nil {
			c.logger.Debug("skipping failed child", "parent", folderID, "child", child.ID)
		}
	}

	return folder, nil
}

// fail records a failure for id on r and returns it wrapped.
func (c *Cloner) fail(r Reporter, what, id string, err error) error {
	msg := fmt.Sprintf("%s %s: %v", what, id, err)
	c.logger.Warn(msg)
	r.AppendError(msg)
	return fmt.Errorf("%s %s: %w", what, id, err)
}
