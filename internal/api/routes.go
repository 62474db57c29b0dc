package api

import "net/http"

// Routes registers the export endpoints. When staticDir is set the capture UI
// is served from it at /.
func Routes(h *Handler, staticDir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/saveBVH", h.SaveBVH)
	mux.HandleFunc("GET /exports", h.ListExports)
	mux.HandleFunc("GET /exports/{id}", h.GetExport)
	mux.HandleFunc("GET /healthz", h.Healthz)

	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}
