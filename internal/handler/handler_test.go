package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wololo/internal/domain"
	"wololo/internal/service"
)

type fakeDevices struct {
	devices  []domain.Device
	wakeErr  error
	woken    []string
	statuses map[string]domain.DeviceStatus
}

func (f *fakeDevices) List() []domain.Device { return f.devices }

func (f *fakeDevices) Wake(name string) error {
	if f.wakeErr != nil {
		return f.wakeErr
	}
	f.woken = append(f.woken, name)
	return nil
}

func (f *fakeDevices) Status(_ context.Context, name string) (domain.DeviceStatus, error) {
	s, ok := f.statuses[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", service.ErrDeviceNotFound, name)
	}
	return s, nil
}

func (f *fakeDevices) RefreshAll(context.Context) []service.DeviceStatusReport {
	var out []service.DeviceStatusReport
	for _, d := range f.devices {
		out = append(out, service.DeviceStatusReport{Name: d.Name, Status: f.statuses[d.Name]})
	}
	return out
}

type fakeDiscovery struct {
	snapshot domain.ScanSnapshot
	scanErr  error
	selected []string
	exported string
}

func (f *fakeDiscovery) Scan(context.Context) (domain.ScanSnapshot, error) {
	return f.snapshot, f.scanErr
}

func (f *fakeDiscovery) Latest() domain.ScanSnapshot { return f.snapshot }

func (f *fakeDiscovery) GenerateConfig(selected []string) string {
	f.selected = selected
	return "devices: []\n"
}

func (f *fakeDiscovery) Export(format string, w io.Writer) error {
	f.exported = format
	_, err := io.WriteString(w, "exported "+format)
	return err
}

func newTestServer(devs *fakeDevices, disc *fakeDiscovery) http.Handler {
	mux := http.NewServeMux()
	New(devs, disc).Routes(mux, nil)
	return mux
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestListDevices(t *testing.T) {
	devs := &fakeDevices{devices: []domain.Device{
		{Name: "nas", MACAddress: "AA:BB:CC:DD:EE:FF", IPAddress: "192.168.1.10"},
	}}
	rec := do(t, newTestServer(devs, &fakeDiscovery{}), http.MethodGet, "/api/devices", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got []domain.Device
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, devs.devices, got)
}

func TestWakeDevice(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"sent", nil, http.StatusOK},
		{"unknown device", service.ErrDeviceNotFound, http.StatusNotFound},
		{"bad mac", service.ErrInvalidMAC, http.StatusBadRequest},
		{"bad ip", service.ErrInvalidIP, http.StatusBadRequest},
		{"send failure", errors.New("network unreachable"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			devs := &fakeDevices{wakeErr: tt.err}
			rec := do(t, newTestServer(devs, &fakeDiscovery{}), http.MethodPost, "/api/devices/nas/wake", nil, "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.err == nil {
				assert.Equal(t, []string{"nas"}, devs.woken)
				var resp WakeResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, "nas", resp.Name)
				return
			}
			assert.NotEmpty(t, decodeError(t, rec).Details)
		})
	}
}

func TestWakeDeviceRequiresPost(t *testing.T) {
	rec := do(t, newTestServer(&fakeDevices{}, &fakeDiscovery{}), http.MethodGet, "/api/devices/nas/wake", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDeviceStatus(t *testing.T) {
	devs := &fakeDevices{statuses: map[string]domain.DeviceStatus{"nas": domain.StatusOnline}}
	srv := newTestServer(devs, &fakeDiscovery{})

	rec := do(t, srv, http.MethodGet, "/api/devices/nas/status", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp StatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusResponse{Name: "nas", Status: domain.StatusOnline}, resp)

	rec = do(t, srv, http.MethodGet, "/api/devices/missing/status", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAllStatuses(t *testing.T) {
	devs := &fakeDevices{
		devices:  []domain.Device{{Name: "a"}, {Name: "b"}},
		statuses: map[string]domain.DeviceStatus{"a": domain.StatusOnline, "b": domain.StatusOffline},
	}
	rec := do(t, newTestServer(devs, &fakeDiscovery{}), http.MethodGet, "/api/status", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got []service.DeviceStatusReport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.Equal(t, domain.StatusOffline, got[1].Status)
}

func TestScan(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"completed", nil, http.StatusOK},
		{"already running", service.ErrScanInProgress, http.StatusConflict},
		{"no interfaces", service.ErrNoInterfaces, http.StatusServiceUnavailable},
		{"failure", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			disc := &fakeDiscovery{
				snapshot: domain.ScanSnapshot{Key: domain.LatestScanKey, Devices: []domain.DiscoveredDevice{
					{IPAddress: "192.168.1.5", Status: domain.StatusOnline},
				}},
				scanErr: tt.err,
			}
			rec := do(t, newTestServer(&fakeDevices{}, disc), http.MethodPost, "/api/discovery/scan", nil, "")
			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.err == nil {
				var snap domain.ScanSnapshot
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
				require.Len(t, snap.Devices, 1)
				assert.Equal(t, "192.168.1.5", snap.Devices[0].IPAddress)
			}
		})
	}
}

func TestLatestScan(t *testing.T) {
	disc := &fakeDiscovery{snapshot: domain.ScanSnapshot{Key: domain.LatestScanKey}}
	rec := do(t, newTestServer(&fakeDevices{}, disc), http.MethodGet, "/api/discovery/latest", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var snap domain.ScanSnapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	assert.Equal(t, domain.LatestScanKey, snap.Key)
}

func TestGenerateConfigJSON(t *testing.T) {
	disc := &fakeDiscovery{}
	body := `{"selected_devices":["192.168.1.5","{\"ip_address\":\"192.168.1.6\"}","{bad"]}`
	rec := do(t, newTestServer(&fakeDevices{}, disc), http.MethodPost, "/api/discovery/generate-config",
		strings.NewReader(body), "application/json")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/yaml")
	assert.Equal(t, "devices: []\n", rec.Body.String())
	assert.Equal(t, []string{"192.168.1.5", "192.168.1.6"}, disc.selected)
}

func TestGenerateConfigForm(t *testing.T) {
	disc := &fakeDiscovery{}
	form := url.Values{"selected_devices": {"10.0.0.1", "10.0.0.2"}}
	rec := do(t, newTestServer(&fakeDevices{}, disc), http.MethodPost, "/api/discovery/generate-config",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, disc.selected)
}

func TestGenerateConfigEmptySelection(t *testing.T) {
	disc := &fakeDiscovery{}
	rec := do(t, newTestServer(&fakeDevices{}, disc), http.MethodPost, "/api/discovery/generate-config",
		strings.NewReader(""), "application/json")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, disc.selected)
}

func TestGenerateConfigMalformedJSON(t *testing.T) {
	rec := do(t, newTestServer(&fakeDevices{}, &fakeDiscovery{}), http.MethodPost, "/api/discovery/generate-config",
		strings.NewReader(`{"selected_devices":`), "application/json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadConfig(t *testing.T) {
	tests := []struct {
		query      string
		wantFormat string
		wantType   string
		wantFile   string
	}{
		{"", "yaml", "application/yaml", "config.yaml"},
		{"?format=json", "json", "application/json", "config.json"},
		{"?format=ansible", "ansible", "application/yaml", "inventory.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.wantFormat, func(t *testing.T) {
			disc := &fakeDiscovery{}
			rec := do(t, newTestServer(&fakeDevices{}, disc), http.MethodGet, "/api/discovery/download-config"+tt.query, nil, "")

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantFormat, disc.exported)
			assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Header().Get("Content-Disposition"), tt.wantFile)
			assert.Equal(t, "exported "+tt.wantFormat, rec.Body.String())
		})
	}
}

func TestDownloadConfigUnsupportedFormat(t *testing.T) {
	disc := &fakeDiscovery{}
	rec := do(t, newTestServer(&fakeDevices{}, disc), http.MethodGet, "/api/discovery/download-config?format=toml", nil, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, disc.exported)
}

func TestEventsRouteOptional(t *testing.T) {
	rec := do(t, newTestServer(&fakeDevices{}, &fakeDiscovery{}), http.MethodGet, "/events", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	mux := http.NewServeMux()
	New(&fakeDevices{}, &fakeDiscovery{}).Routes(mux, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec = do(t, mux, http.MethodGet, "/events", nil, "")
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
