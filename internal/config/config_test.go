package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromFileUnmarshalsJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(`{"filterPaddingSeconds":2.5,"showHidden":true}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	settings, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if settings.FilterPaddingSeconds != 2.5 || !settings.ShowHidden {
		t.Fatalf("unexpected settings: %+v", settings)
	}
}

func TestLoadFromFileMissingFile(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/settings.json"); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestStoreApplyAndGetAreConcurrencySafe(t *testing.T) {
	store := NewStore(DefaultSettings())
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			store.Apply(Settings{FilterPaddingSeconds: float64(i)})
		}
		close(done)
	}()
	for i := 0; i < 100; i++ {
		_ = store.Get()
	}
	<-done
	if store.Get().FilterPaddingSeconds != 99 {
		t.Fatalf("expected final applied value to stick, got %+v", store.Get())
	}
}
