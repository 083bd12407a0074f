// Package api hosts the HTTP server, middleware, and handlers. Routes:
//   - POST /api/check-exposure runs one keyword/article check.
//   - POST /api/check-sheet starts a batch run over a date window.
//   - GET /api/status, POST /api/pause and POST /api/stop control that run.
//   - GET /health and /healthz for probes, GET /metrics for Prometheus.
//
// Error bodies are {"detail": "<message>"}.
package api
