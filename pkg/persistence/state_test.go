package persistence

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modbee/modbee-dash/pkg/snapshot"
)

func TestControllerStateStore(t *testing.T) {
	t.Run("SaveAndLoadEmpty", func(t *testing.T) {
		store := NewControllerStateStore(filepath.Join(t.TempDir(), "state.json"))

		if err := store.Save(&ControllerState{}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Version != StateVersion {
			t.Errorf("Version = %d, want %d", got.Version, StateVersion)
		}
		if got.SavedAt.IsZero() {
			t.Error("SavedAt not set")
		}
		if got.WiFi != nil || got.Calibration != nil {
			t.Errorf("expected empty state, got %+v", got)
		}
	})

	t.Run("LoadNonExistent", func(t *testing.T) {
		store := NewControllerStateStore(filepath.Join(t.TempDir(), "nonexistent.json"))

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got != nil {
			t.Errorf("Load() = %v, want nil for non-existent file", got)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		store := NewControllerStateStore(filepath.Join(t.TempDir(), "nested", "state.json"))

		cal := snapshot.Calibration{
			ADCZeroOffsets: [4]int{-5, 0, 5, 10},
			ADCHigh:        [4]int{32767, 4095, 4095, 4095},
			DACLow:         [2]int{-32768, 0},
		}
		state := &ControllerState{
			WiFi:        &WiFiConfig{SSID: "HomeNet", Password: "secret"},
			Calibration: &cal,
		}
		before := time.Now()
		if err := store.Save(state); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.WiFi == nil || *got.WiFi != *state.WiFi {
			t.Errorf("WiFi = %+v, want %+v", got.WiFi, state.WiFi)
		}
		if got.Calibration == nil || *got.Calibration != cal {
			t.Errorf("Calibration = %+v, want %+v", got.Calibration, cal)
		}
		if got.SavedAt.Before(before.Add(-time.Second)) {
			t.Errorf("SavedAt = %v, expected refresh", got.SavedAt)
		}
	})

	t.Run("SaveLeavesNoTempFile", func(t *testing.T) {
		dir := t.TempDir()
		store := NewControllerStateStore(filepath.Join(dir, "state.json"))
		if err := store.Save(&ControllerState{}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "state.json.tmp")); !os.IsNotExist(err) {
			t.Errorf("temp file left behind: %v", err)
		}
	})

	t.Run("LoadCorrupt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := NewControllerStateStore(path).Load(); err == nil {
			t.Error("Load() expected error for corrupt file")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		store := NewControllerStateStore(filepath.Join(t.TempDir(), "state.json"))
		if err := store.Save(&ControllerState{}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		got, err := store.Load()
		if err != nil || got != nil {
			t.Errorf("Load() after Clear = %v, %v", got, err)
		}
		if err := store.Clear(); err != nil {
			t.Errorf("second Clear() error = %v", err)
		}
	})
}
