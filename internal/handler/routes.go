package handler

import "net/http"

// Routes registers the API on mux. events serves the SSE stream and may be
// nil.
func (h *Handler) Routes(mux *http.ServeMux, events http.Handler) {
	mux.HandleFunc("GET /healthz", h.Health)

	mux.HandleFunc("GET /api/devices", h.ListDevices)
	mux.HandleFunc("POST /api/devices/{name}/wake", h.WakeDevice)
	mux.HandleFunc("GET /api/devices/{name}/status", h.DeviceStatus)
	mux.HandleFunc("GET /api/status", h.AllStatuses)

	mux.HandleFunc("POST /api/discovery/scan", h.Scan)
	mux.HandleFunc("GET /api/discovery/latest", h.LatestScan)
	mux.HandleFunc("POST /api/discovery/generate-config", h.GenerateConfig)
	mux.HandleFunc("GET /api/discovery/download-config", h.DownloadConfig)

	if events != nil {
		mux.Handle("GET /events", events)
	}
}
