// Package server exposes the clone service over HTTP and hosts the CLI OAuth callback.
//
// # Router
//
// [BasicRouter] registers method patterns on [http.ServeMux], so paths may carry wildcards
// like /api/progress/{id}. [Middleware] is applied in reverse order of [BasicRouter.Use]
// (last added wraps first) and must be added before routes.
//
// # API
//
// [API] serves the JSON endpoints:
//
//	GET  /                    health
//	GET  /api/auth/login      consent URL, stores OAuth state in the session
//	GET  /api/auth/callback   checks state, exchanges the code, redirects to /
//	GET  /api/auth/status     {"authenticated": bool}, refreshing expired tokens
//	POST /api/parse-url       {"url"} -> source info
//	POST /api/clone           {"file_id"} -> {"task_id"}
//	GET  /api/progress/{id}   progress snapshot or 404
//	GET  /api/tasks           tasks started by this session
//	GET  /metrics             Prometheus exposition
//
// Errors are returned as {"error": message} with a status chosen by [StatusCode].
//
// # Sessions
//
// [Sessions] keeps OAuth state, tokens, and a cached remote store per browser in memory.
// The browser only holds an HS256 JWT naming its session id.
//
// # CLI callback
//
// [CallbackHandler] serves a single OAuth redirect on a short-lived local listener during
// `dclone auth login` and hands the token back through a channel.
package server
