package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/dclone/internal/models"
	"github.com/desertthunder/dclone/internal/shared"
	"google.golang.org/api/option"
)

// fakeDrive serves the subset of the Drive v3 REST surface DriveService uses.
type fakeDrive struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []map[string]any
	handler  func(w http.ResponseWriter, r *http.Request, body map[string]any)
}

func (f *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			json.Unmarshal(data, &body)
		}
	}

	f.mu.Lock()
	f.requests = append(f.requests, r)
	f.bodies = append(f.bodies, body)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	f.handler(w, r, body)
}

func writeDriveError(w http.ResponseWriter, code int, reason string) {
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": reason,
			"errors":  []map[string]any{{"reason": reason, "message": reason}},
		},
	})
}

func newTestDrive(t *testing.T, fake *fakeDrive) *DriveService {
	t.Helper()
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)

	d, err := NewDriveService(context.Background(), DriveOpts{PageSize: 2},
		option.WithHTTPClient(ts.Client()),
		option.WithEndpoint(ts.URL+"/"),
	)
	if err != nil {
		t.Fatalf("failed to create drive service: %v", err)
	}
	return d
}

func TestDriveService(t *testing.T) {
	t.Run("GetMetadata", func(t *testing.T) {
		t.Run("File With Size", func(t *testing.T) {
			fake := &fakeDrive{handler: func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
				if r.Method != http.MethodGet || r.URL.Path != "/files/abc" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				if r.URL.Query().Get("supportsAllDrives") != "true" {
					t.Error("expected supportsAllDrives=true")
				}
				w.Write([]byte(`{"id":"abc","name":"report.pdf","mimeType":"application/pdf","size":"2048","parents":["root"]}`))
			}}

			node, err := newTestDrive(t, fake).GetMetadata(context.Background(), "abc")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if node.Kind != models.KindFile || node.Name != "report.pdf" {
				t.Errorf("unexpected node: %+v", node)
			}
			if node.Size == nil || *node.Size != 2048 {
				t.Errorf("expected size 2048, got %v", node.Size)
			}
			if len(node.ParentIDs) != 1 || node.ParentIDs[0] != "root" {
				t.Errorf("unexpected parents: %v", node.ParentIDs)
			}
		})

		t.Run("Folder Has No Size", func(t *testing.T) {
			fake := &fakeDrive{handler: func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
				w.Write([]byte(`{"id":"f1","name":"Photos","mimeType":"application/vnd.google-apps.folder"}`))
			}}

			node, err := newTestDrive(t, fake).GetMetadata(context.Background(), "f1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !node.IsFolder() {
				t.Error("expected folder")
			}
			if node.Size != nil {
				t.Errorf("expected nil size, got %v", *node.Size)
			}
		})

		t.Run("Not Found", func(t *testing.T) {
			fake := &fakeDrive{handler: func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
				writeDriveError(w, http.StatusNotFound, "notFound")
			}}

			_, err := newTestDrive(t, fake).GetMetadata(context.Background(), "missing")
			if !errors.Is(err, shared.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
			if IsTransient(err) {
				t.Error("not found should be permanent")
			}

			var re *RemoteError
			if !errors.As(err, &re) || re.Op != "get" || re.ID != "missing" {
				t.Errorf("expected RemoteError for get missing, got %#v", err)
			}
		})
	})

	t.Run("ListChildren", func(t *testing.T) {
		t.Run("Follows Pages", func(t *testing.T) {
			fake := &fakeDrive{handler: func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
				q := r.URL.Query()
				if q.Get("q") != "'parent' in parents and trashed=false" {
					t.Errorf("unexpected query %q", q.Get("q"))
				}
				if q.Get("pageSize") != "2" {
					t.Errorf("expected pageSize 2, got %s", q.Get("pageSize"))
				}

				switch q.Get("pageToken") {
				case "":
					w.Write([]byte(`{"nextPageToken":"p2","files":[
						{"id":"a","name":"a.txt","mimeType":"text/plain","size":"1"},
						{"id":"b","name":"sub","mimeType":"application/vnd.google-apps.folder"}]}`))
				case "p2":
					w.Write([]byte(`{"files":[{"id":"c","name":"c.txt","mimeType":"text/plain","size":"3"}]}`))
				default:
					t.Errorf("unexpected page token %s", q.Get("pageToken"))
				}
			}}

			nodes, err := newTestDrive(t, fake).ListChildren(context.Background(), "parent")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var ids []string
			for _, n := range nodes {
				ids = append(ids, n.ID)
			}
			if strings.Join(ids, ",") != "a,b,c" {
				t.Errorf("expected a,b,c in order, got %v", ids)
			}
			if !nodes[1].IsFolder() {
				t.Error("expected second child to be a folder")
			}
		})

		t.Run("Empty Folder", func(t *testing.T) {
			fake := &fakeDrive{handler: func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
				w.Write([]byte(`{"files":[]}`))
			}}

			nodes, err := newTestDrive(t, fake).ListChildren(context.Background(), "empty")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if nodes == nil || len(nodes) != 0 {
				t.Errorf("expected empty non-nil slice, got %v", nodes)
			}
		})

		t.Run("Server Error Is Transient", func(t *testing.T) {
			fake := &fakeDrive{handler: func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
				writeDriveError(w, http.StatusInternalServerError, "backendError")
			}}

			_, err := newTestDrive(t, fake).ListChildren(context.Background(), "x")
			if !IsTransient(err) || !errors.Is(err, shared.ErrRemoteTransient) {
				t.Errorf("expected transient error, got %v", err)
			}
		})
	})

	t.Run("CopyFile", func(t *testing.T) {
		fake := &fakeDrive{handler: func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			if r.Method != http.MethodPost || r.URL.Path != "/files/src/copy" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			if body["name"] != "Copy of a.txt" {
				t.Errorf("unexpected name %v", body["name"])
			}
			parents, _ := body["parents"].([]any)
			if len(parents) != 1 || parents[0] != "dest" {
				t.Errorf("unexpected parents %v", body["parents"])
			}
			w.Write([]byte(`{"id":"new","name":"Copy of a.txt","mimeType":"text/plain","size":"1"}`))
		}}

		node, err := newTestDrive(t, fake).CopyFile(context.Background(), "src", "Copy of a.txt", "dest")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if node.ID != "new" {
			t.Errorf("expected new id, got %s", node.ID)
		}
	})

	t.Run("CopyFile Without Parent", func(t *testing.T) {
		fake := &fakeDrive{handler: func(w http.ResponseWriter, r *http.Request, body map[string]any) {
			if _, ok := body["parents"]; ok {
				t.Errorf("expected no parents, got %v", body["parents"])
			}
			w.Write([]byte(`{"id":"new","name":"Copy of a.txt","mimeType":"text/plain"}`))
		}}

		if _, err := newTestDrive(t, fake).CopyFile(context.Background(), "src", "Copy of a.txt", ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("CreateFolder", func(t *testing.T) {
		t.Run("Sends Folder MimeType", func(t *testing.T) {
			fake := &fakeDrive{handler: func(w http.ResponseWriter, r *http.Request, body map[string]any) {
				if r.Method != http.MethodPost || r.URL.Path != "/files" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				if body["mimeType"] != models.FolderMimeType {
					t.Errorf("unexpected mimeType %v", body["mimeType"])
				}
				w.Write([]byte(`{"id":"nf","name":"Copy of Photos","mimeType":"application/vnd.google-apps.folder"}`))
			}}

			node, err := newTestDrive(t, fake).CreateFolder(context.Background(), "Copy of Photos", "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !node.IsFolder() || node.ID != "nf" {
				t.Errorf("unexpected node %+v", node)
			}
		})

		t.Run("Forbidden Is Permission Denied", func(t *testing.T) {
			fake := &fakeDrive{handler: func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
				writeDriveError(w, http.StatusForbidden, "insufficientFilePermissions")
			}}

			_, err := newTestDrive(t, fake).CreateFolder(context.Background(), "x", "p")
			if !errors.Is(err, shared.ErrPermissionDenied) {
				t.Errorf("expected ErrPermissionDenied, got %v", err)
			}
		})

		t.Run("Rate Limited Forbidden Is Transient", func(t *testing.T) {
			fake := &fakeDrive{handler: func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
				writeDriveError(w, http.StatusForbidden, "userRateLimitExceeded")
			}}

			_, err := newTestDrive(t, fake).CreateFolder(context.Background(), "x", "p")
			if !IsTransient(err) {
				t.Errorf("expected transient error, got %v", err)
			}
		})
	})

	t.Run("Canceled Context", func(t *testing.T) {
		fake := &fakeDrive{handler: func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
			w.Write([]byte(`{}`))
		}}
		d := newTestDrive(t, fake)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := d.GetMetadata(ctx, "abc"); err == nil {
			t.Error("expected error for canceled context")
		}
	})
}
