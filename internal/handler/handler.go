package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"wololo/internal/codec"
	"wololo/internal/domain"
	"wololo/internal/logger"
	"wololo/internal/service"
)

// maxSelectionBody bounds generate-config request bodies.
const maxSelectionBody = 1 << 20

// DeviceManager is the registry side of the API.
type DeviceManager interface {
	List() []domain.Device
	Wake(name string) error
	Status(ctx context.Context, name string) (domain.DeviceStatus, error)
	RefreshAll(ctx context.Context) []service.DeviceStatusReport
}

// DiscoveryManager is the discovery side of the API.
type DiscoveryManager interface {
	Scan(ctx context.Context) (domain.ScanSnapshot, error)
	Latest() domain.ScanSnapshot
	GenerateConfig(selectedIPs []string) string
	Export(format string, w io.Writer) error
}

// Handler serves the REST API.
type Handler struct {
	devices   DeviceManager
	discovery DiscoveryManager
	log       zerolog.Logger
}

// New creates a handler.
func New(devices DeviceManager, discovery DiscoveryManager) *Handler {
	return &Handler{
		devices:   devices,
		discovery: discovery,
		log:       logger.WithComponent("http"),
	}
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// StatusResponse reports the liveness of one device.
type StatusResponse struct {
	Name   string              `json:"name"`
	Status domain.DeviceStatus `json:"status"`
}

// WakeResponse confirms a sent magic packet.
type WakeResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// GenerateConfigRequest selects hosts of the latest scan by IP.
type GenerateConfigRequest struct {
	SelectedDevices []string `json:"selected_devices"`
}

// Health reports that the server is up.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// ListDevices returns the registry.
func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.devices.List(), http.StatusOK)
}

// WakeDevice sends a magic packet to the named device.
func (h *Handler) WakeDevice(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if err := h.devices.Wake(name); err != nil {
		h.writeServiceError(w, "Failed to wake device", err)
		return
	}

	h.writeJSON(w, WakeResponse{Name: name, Message: fmt.Sprintf("Magic packet sent to %s", name)}, http.StatusOK)
}

// DeviceStatus pings the named device.
func (h *Handler) DeviceStatus(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	status, err := h.devices.Status(r.Context(), name)
	if err != nil {
		h.writeServiceError(w, "Failed to check device", err)
		return
	}

	h.writeJSON(w, StatusResponse{Name: name, Status: status}, http.StatusOK)
}

// AllStatuses pings every device.
func (h *Handler) AllStatuses(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.devices.RefreshAll(r.Context()), http.StatusOK)
}

// Scan runs a discovery scan and returns its snapshot. The scan is not
// cancelled when the client goes away.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.discovery.Scan(context.WithoutCancel(r.Context()))
	if err != nil {
		h.writeServiceError(w, "Scan failed", err)
		return
	}

	h.writeJSON(w, snapshot, http.StatusOK)
}

// LatestScan returns the most recent snapshot.
func (h *Handler) LatestScan(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.discovery.Latest(), http.StatusOK)
}

// GenerateConfig reconciles the selected hosts into the registry and
// returns the resulting config file.
func (h *Handler) GenerateConfig(w http.ResponseWriter, r *http.Request) {
	selected, err := parseSelection(r)
	if err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	text := h.discovery.GenerateConfig(selected)

	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, text)
}

// DownloadConfig serves the generated config as an attachment.
func (h *Handler) DownloadConfig(w http.ResponseWriter, r *http.Request) {
	c, err := codec.ForFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, "Unsupported format", err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := h.discovery.Export(c.Format(), &buf); err != nil {
		h.log.Error().Err(err).Str("format", c.Format()).Msg("export failed")
		h.writeError(w, "Failed to export config", err.Error(), http.StatusInternalServerError)
		return
	}

	filename := "config." + codec.FileExtension(c.Format())
	if c.Format() == codec.FormatAnsible {
		filename = "inventory.yaml"
	}

	w.Header().Set("Content-Type", codec.ContentType(c.Format()))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// parseSelection reads selected IPs from a JSON body or from repeated
// selected_devices form values. A value may be a bare IP or a JSON object
// with an ip_address field; values matching neither are ignored.
func parseSelection(r *http.Request) ([]string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxSelectionBody)

	var raw []string
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req GenerateConfigRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		raw = req.SelectedDevices
	} else {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		raw = r.Form["selected_devices"]
	}

	ips := make([]string, 0, len(raw))
	for _, v := range raw {
		if ip := selectionIP(v); ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips, nil
}

func selectionIP(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "{") {
		return v
	}
	var d struct {
		IPAddress string `json:"ip_address"`
	}
	if err := json.Unmarshal([]byte(v), &d); err != nil {
		return ""
	}
	return d.IPAddress
}

// writeServiceError maps service sentinels to HTTP status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrDeviceNotFound):
		status = http.StatusNotFound
		msg = "Not found"
	case errors.Is(err, service.ErrInvalidMAC), errors.Is(err, service.ErrInvalidIP):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrScanInProgress):
		status = http.StatusConflict
	case errors.Is(err, service.ErrNoInterfaces):
		status = http.StatusServiceUnavailable
	default:
		h.log.Error().Err(err).Msg(msg)
	}
	h.writeError(w, msg, err.Error(), status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	h.writeJSON(w, ErrorResponse{Error: error, Details: details}, statusCode)
}
