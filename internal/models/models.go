// package models defines remote item snapshots and task progress records
package models

import "time"

// FolderMimeType identifies folders in the remote store.
const FolderMimeType = "application/vnd.google-apps.folder"

// Kind distinguishes files from folders.
type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// KindOf maps a MIME type to a [Kind].
func KindOf(mimeType string) Kind {
	if mimeType == FolderMimeType {
		return KindFolder
	}
	return KindFile
}

// Node is a snapshot of a remote entity.
type Node struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Kind      Kind     `json:"type"`
	MimeType  string   `json:"mime_type,omitempty"`
	Size      *int64   `json:"size,omitempty"` // unknown for folders and native documents
	ParentIDs []string `json:"parents,omitempty"`
}

// IsFolder reports whether the node is a folder.
func (n Node) IsFolder() bool {
	return n.Kind == KindFolder
}

// SourceInfo describes what a share link points at.
type SourceInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Kind      Kind   `json:"type"`
	Size      *int64 `json:"size,omitempty"`
	ItemCount *int   `json:"item_count,omitempty"` // folders only
}

// Status is the lifecycle state of a clone task.
type Status string

const (
	StatusStarting  Status = "starting"
	StatusCloning   Status = "cloning"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether moving from s to next is a legal step.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusStarting:
		return next == StatusCloning || next == StatusFailed
	case StatusCloning:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// Result identifies the root of a finished copy.
type Result struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Progress is a point-in-time snapshot of a task record.
type Progress struct {
	TaskID      string    `json:"task_id"`
	SourceID    string    `json:"source_id"`
	Status      Status    `json:"status"`
	Total       int       `json:"total"`
	Completed   int       `json:"completed"`
	CurrentFile string    `json:"current_file"`
	Errors      []string  `json:"errors"`
	Percentage  float64   `json:"percentage"`
	Result      *Result   `json:"result,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Percentage returns completed/total*100, or 0 while total is unknown.
func Percentage(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
