package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/dclone/internal/shared"
	"golang.org/x/oauth2"
)

// ExchangeFunc trades an authorization code for a token.
type ExchangeFunc func(ctx context.Context, code string) (*oauth2.Token, error)

// CallbackResult is the outcome of a single OAuth callback.
type CallbackResult struct {
	Token *oauth2.Token
	Err   error
}

// CallbackHandler receives the redirect of a CLI authorization flow on a local listener.
//
// It accepts exactly one callback. Its result is delivered once on [CallbackHandler.Result].
type CallbackHandler struct {
	exchange ExchangeFunc
	state    string
	path     string
	results  chan CallbackResult
	once     sync.Once
	mu       sync.Mutex
	hit      bool
}

// NewCallbackHandler creates a handler serving path that checks state and exchanges the code.
func NewCallbackHandler(exchange ExchangeFunc, state, path string) *CallbackHandler {
	if path == "" {
		path = "/api/auth/callback"
	}
	return &CallbackHandler{
		exchange: exchange,
		state:    state,
		path:     path,
		results:  make(chan CallbackResult, 1),
	}
}

// Routes returns the single callback route.
func (h *CallbackHandler) Routes() []string {
	return []string{"GET " + h.path}
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.hit = true
	h.mu.Unlock()

	q := r.URL.Query()
	if q.Get("state") != h.state {
		h.send(CallbackResult{Err: fmt.Errorf("%w: state mismatch", shared.ErrAuthFailed)})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.send(CallbackResult{Err: fmt.Errorf("%w: %s %s", shared.ErrAuthFailed, q.Get("error"), q.Get("error_description"))})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.exchange(r.Context(), code)
	if err != nil {
		h.send(CallbackResult{Err: err})
		http.Error(w, "Token exchange failed", http.StatusBadGateway)
		return
	}
	h.send(CallbackResult{Token: token})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, callbackPage)
}

func (h *CallbackHandler) send(result CallbackResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result yields exactly one [CallbackResult] and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.results
}

const callbackPage = `<!DOCTYPE html>
<html>
<head>
    <title>dclone</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .box { text-align: center; background: white; padding: 2rem;
               border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1a73e8; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="box">
        <h1>Signed in to Google Drive</h1>
        <p>Return to the terminal; this tab can be closed.</p>
    </div>
</body>
</html>
`
