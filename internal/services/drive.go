package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dclone/internal/metrics"
	"github.com/desertthunder/dclone/internal/models"
	"github.com/desertthunder/dclone/internal/shared"
	"golang.org/x/time/rate"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const nodeFields = "id, name, mimeType, size, parents"

// DriveOpts tunes a [DriveService].
type DriveOpts struct {
	RequestsPerSecond float64 // <= 0 disables pacing
	Burst             int
	PageSize          int64
	Logger            *log.Logger
}

// DriveService implements [RemoteStore] on the Google Drive v3 API.
//
// All calls share one [rate.Limiter], so every task using the same service is paced together.
type DriveService struct {
	files    *drive.FilesService
	limiter  *rate.Limiter
	pageSize int64
	logger   *log.Logger
}

// NewDriveService creates a Drive client. Authentication comes from clientOpts,
// typically [option.WithTokenSource].
func NewDriveService(ctx context.Context, opts DriveOpts, clientOpts ...option.ClientOption) (*DriveService, error) {
	srv, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}

	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &DriveService{
		files:    srv.Files,
		limiter:  rate.NewLimiter(limit, opts.Burst),
		pageSize: opts.PageSize,
		logger:   opts.Logger,
	}, nil
}

// GetMetadata fetches a single file or folder.
func (d *DriveService) GetMetadata(ctx context.Context, id string) (*models.Node, error) {
	var f *drive.File
	err := d.call(ctx, "get", id, func() (err error) {
		f, err = d.files.Get(id).
			Fields(nodeFields).
			SupportsAllDrives(true).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return toNode(f), nil
}

// ListChildren lists the non-trashed children of folderID, following every page.
func (d *DriveService) ListChildren(ctx context.Context, folderID string) ([]models.Node, error) {
	q := fmt.Sprintf("'%s' in parents and trashed=false", strings.ReplaceAll(folderID, "'", `\'`))
	nodes := []models.Node{}
	pageToken := ""

	for {
		var page *drive.FileList
		err := d.call(ctx, "list", folderID, func() (err error) {
			call := d.files.List().
				Q(q).
				Fields("nextPageToken, files("+nodeFields+")").
				PageSize(d.pageSize).
				SupportsAllDrives(true).
				IncludeItemsFromAllDrives(true).
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			page, err = call.Do()
			return err
		})
		if err != nil {
			return nil, err
		}

		for _, f := range page.Files {
			nodes = append(nodes, *toNode(f))
		}

		if page.NextPageToken == "" {
			return nodes, nil
		}
		pageToken = page.NextPageToken
	}
}

// CopyFile copies id to a new file named name inside parentID.
func (d *DriveService) CopyFile(ctx context.Context, id, name, parentID string) (*models.Node, error) {
	meta := &drive.File{Name: name}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}

	var f *drive.File
	err := d.call(ctx, "copy", id, func() (err error) {
		f, err = d.files.Copy(id, meta).
			Fields(nodeFields).
			SupportsAllDrives(true).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return toNode(f), nil
}

// CreateFolder creates an empty folder named name inside parentID.
func (d *DriveService) CreateFolder(ctx context.Context, name, parentID string) (*models.Node, error) {
	meta := &drive.File{Name: name, MimeType: models.FolderMimeType}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}

	var f *drive.File
	err := d.call(ctx, "create_folder", name, func() (err error) {
		f, err = d.files.Create(meta).
			Fields(nodeFields).
			SupportsAllDrives(true).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return toNode(f), nil
}

// call waits for the limiter, runs fn, and classifies its error.
func (d *DriveService) call(ctx context.Context, op, id string, fn func() error) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return classify(op, id, err)
	}

	start := time.Now()
	err := classify(op, id, fn())
	metrics.RecordRemoteCall(op, KindLabel(err), time.Since(start))

	if err != nil {
		d.logger.Debug("drive call failed", "op", op, "id", id, "error", err)
	}
	return err
}

func toNode(f *drive.File) *models.Node {
	n := &models.Node{
		ID:        f.Id,
		Name:      f.Name,
		Kind:      models.KindOf(f.MimeType),
		MimeType:  f.MimeType,
		ParentIDs: f.Parents,
	}

	// native documents report no size
	if !n.IsFolder() && (f.Size > 0 || !strings.HasPrefix(f.MimeType, "application/vnd.google-apps.")) {
		size := f.Size
		n.Size = &size
	}
	return n
}
