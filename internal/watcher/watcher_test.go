package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wololo/internal/config"
	"wololo/internal/domain"
)

func TestWatcherReloadsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := config.Default().Save(path); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *config.Config, 4)
	w := New(path, func(cfg *config.Config) { reloaded <- cfg }).WithDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- w.Watch(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	t.Run("invalid content is ignored", func(t *testing.T) {
		if err := os.WriteFile(path, []byte("devices: [broken\n"), 0644); err != nil {
			t.Fatal(err)
		}
		select {
		case cfg := <-reloaded:
			t.Fatalf("invalid config delivered: %+v", cfg)
		case <-time.After(300 * time.Millisecond):
		}
	})

	t.Run("valid change delivered", func(t *testing.T) {
		cfg := config.Default()
		cfg.Devices = []domain.Device{{Name: "Desktop", MACAddress: "AA:BB:CC:DD:EE:FF", IPAddress: "192.168.1.100"}}
		if err := cfg.Save(path); err != nil {
			t.Fatal(err)
		}

		select {
		case got := <-reloaded:
			if len(got.Devices) != 1 || got.Devices[0].Name != "Desktop" {
				t.Errorf("reloaded devices = %+v", got.Devices)
			}
		case <-time.After(3 * time.Second):
			t.Fatal("no reload after change")
		}
	})

	t.Run("rewrite with same content ignored", func(t *testing.T) {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatal(err)
		}
		select {
		case cfg := <-reloaded:
			t.Fatalf("unchanged config delivered: %+v", cfg)
		case <-time.After(300 * time.Millisecond):
		}
	})

	cancel()
	if err := <-errc; err != nil {
		t.Errorf("Watch() = %v, want nil after cancel", err)
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "absent", "config.yaml"), func(*config.Config) {})
	if err := w.Watch(context.Background()); err == nil {
		t.Error("Watch() on a missing directory should fail")
	}
}
