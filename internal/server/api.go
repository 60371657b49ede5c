package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dclone/internal/metrics"
	"github.com/desertthunder/dclone/internal/models"
	"github.com/desertthunder/dclone/internal/services"
	"github.com/desertthunder/dclone/internal/shared"
	"github.com/desertthunder/dclone/internal/tasks"
	"golang.org/x/oauth2"
)

// Authenticator is the part of the OAuth client the web flow needs.
type Authenticator interface {
	GetAuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)
}

// StoreFactory builds a remote store authenticated as token.
//
// ctx outlives the request: stores are cached per session and used by background tasks.
type StoreFactory func(ctx context.Context, token *oauth2.Token) (services.RemoteStore, error)

// APIOpts configures an [API].
type APIOpts struct {
	Auth     Authenticator
	Runner   *tasks.Runner
	Sessions *Sessions
	Stores   StoreFactory
	Logger   *log.Logger
	Version  string
}

// API serves the JSON endpoints of the clone service.
type API struct {
	auth     Authenticator
	runner   *tasks.Runner
	sessions *Sessions
	stores   StoreFactory
	logger   *log.Logger
	version  string
}

type urlRequest struct {
	URL string `json:"url"`
}

type cloneRequest struct {
	FileID string `json:"file_id"`
}

// NewAPI creates the handlers. Auth may be nil when no OAuth client is configured.
func NewAPI(opts APIOpts) *API {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Version == "" {
		opts.Version = "1.0"
	}
	return &API{
		auth:     opts.Auth,
		runner:   opts.Runner,
		sessions: opts.Sessions,
		stores:   opts.Stores,
		logger:   opts.Logger,
		version:  opts.Version,
	}
}

// Register adds every route to router.
func (a *API) Register(router Router) {
	router.Handle(http.MethodGet, "/{$}", http.HandlerFunc(a.health))
	router.Handle(http.MethodGet, "/api/auth/login", http.HandlerFunc(a.login))
	router.Handle(http.MethodGet, "/api/auth/callback", http.HandlerFunc(a.callback))
	router.Handle(http.MethodGet, "/api/auth/status", http.HandlerFunc(a.status))
	router.Handle(http.MethodPost, "/api/parse-url", http.HandlerFunc(a.parseURL))
	router.Handle(http.MethodPost, "/api/clone", http.HandlerFunc(a.clone))
	router.Handle(http.MethodGet, "/api/progress/{id}", http.HandlerFunc(a.progress))
	router.Handle(http.MethodGet, "/api/tasks", http.HandlerFunc(a.listTasks))
	router.Handle(http.MethodGet, "/metrics", metrics.Handler())
}

// NewHandler builds the full middleware-wrapped handler for the service.
func NewHandler(api *API, origins []string) http.Handler {
	router := NewBasicRouter()
	router.Use(Recover(api.logger), Metrics(), Logging(api.logger))
	api.Register(router)
	return CORS(origins)(router)
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, services.Health{Status: "Backend is running!", Version: a.version})
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	if a.auth == nil {
		respondError(w, fmt.Errorf("%w: OAuth client is not configured", shared.ErrMissingCredentials))
		return
	}

	sid, err := a.sessions.Ensure(w, r)
	if err != nil {
		respondError(w, err)
		return
	}

	state, err := shared.GenerateState()
	if err != nil {
		respondError(w, err)
		return
	}
	a.sessions.SetState(sid, state)
	writeJSON(w, http.StatusOK, map[string]string{"auth_url": a.auth.GetAuthURL(state)})
}

func (a *API) callback(w http.ResponseWriter, r *http.Request) {
	if a.auth == nil {
		respondError(w, fmt.Errorf("%w: OAuth client is not configured", shared.ErrMissingCredentials))
		return
	}

	sid, ok := a.sessions.ID(r)
	if !ok {
		metrics.RecordAuthAttempt(false)
		respondError(w, fmt.Errorf("%w: no session", shared.ErrAuthFailed))
		return
	}

	q := r.URL.Query()
	expected := a.sessions.TakeState(sid)
	if expected == "" || q.Get("state") != expected {
		metrics.RecordAuthAttempt(false)
		respondError(w, fmt.Errorf("%w: state mismatch", shared.ErrAuthFailed))
		return
	}

	code := q.Get("code")
	if code == "" {
		metrics.RecordAuthAttempt(false)
		respondError(w, fmt.Errorf("%w: %s", shared.ErrAuthFailed, q.Get("error")))
		return
	}

	token, err := a.auth.Exchange(r.Context(), code)
	if err != nil {
		metrics.RecordAuthAttempt(false)
		a.logger.Warn("token exchange failed", "error", err)
		respondError(w, err)
		return
	}

	metrics.RecordAuthAttempt(true)
	a.sessions.SetToken(sid, token)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *API) status(w http.ResponseWriter, r *http.Request) {
	authenticated := false
	if sid, ok := a.sessions.ID(r); ok && a.auth != nil {
		if token := a.sessions.Token(sid); token != nil {
			fresh, err := a.auth.Refresh(r.Context(), token)
			switch {
			case err != nil:
				a.logger.Debug("token refresh failed", "error", err)
			case fresh.AccessToken != token.AccessToken:
				a.sessions.SetToken(sid, fresh)
				authenticated = true
			default:
				authenticated = true
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": authenticated})
}

// store returns the caller's remote store, or [shared.ErrNotAuthenticated].
func (a *API) store(r *http.Request) (string, services.RemoteStore, error) {
	sid, ok := a.sessions.ID(r)
	if !ok {
		return "", nil, shared.ErrNotAuthenticated
	}
	if a.stores == nil {
		return "", nil, fmt.Errorf("%w: no remote store configured", shared.ErrMissingCredentials)
	}
	store, err := a.sessions.Store(sid, func(token *oauth2.Token) (services.RemoteStore, error) {
		return a.stores(context.Background(), token)
	})
	if err != nil {
		return "", nil, err
	}
	return sid, store, nil
}

func (a *API) parseURL(w http.ResponseWriter, r *http.Request) {
	_, store, err := a.store(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req urlRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		respondError(w, fmt.Errorf("%w: url is required", shared.ErrMissingArgument))
		return
	}

	info, err := tasks.Resolve(r.Context(), store, req.URL, a.logger)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (a *API) clone(w http.ResponseWriter, r *http.Request) {
	sid, store, err := a.store(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req cloneRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.FileID == "" {
		respondError(w, fmt.Errorf("%w: file_id is required", shared.ErrMissingArgument))
		return
	}

	id, err := a.runner.Start(store, req.FileID)
	if id != "" {
		a.sessions.AddTask(sid, id)
	}
	if err != nil {
		respondError(w, err)
		return
	}

	a.logger.Info("clone started", "task", id, "source", req.FileID)
	writeJSON(w, http.StatusOK, map[string]string{"task_id": id})
}

func (a *API) progress(w http.ResponseWriter, r *http.Request) {
	p, err := a.runner.Tracker().Get(r.PathValue("id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) listTasks(w http.ResponseWriter, r *http.Request) {
	list := []models.Progress{}
	if sid, ok := a.sessions.ID(r); ok {
		for _, id := range a.sessions.Tasks(sid) {
			if p, err := a.runner.Tracker().Get(id); err == nil {
				list = append(list, *p)
			}
		}
	}
	writeJSON(w, http.StatusOK, list)
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", shared.ErrInvalidArgument, err)
	}
	return nil
}
