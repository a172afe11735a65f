package config

import (
	"os"
	"path/filepath"
	"testing"
)

func chdir(t *testing.T, dir string) {
	t.Helper()

	original, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() { os.Chdir(original) })
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	cfg := &Config{
		Backends: []Backend{
			{URL: "https://api.ecocollect.example", Alias: "production"},
			{URL: "http://localhost:8080", Alias: "local"},
		},
	}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(loaded.Backends) != 2 {
		t.Fatalf("expected 2 backends, got %d", len(loaded.Backends))
	}
	if loaded.Backends[0].Alias != "production" {
		t.Errorf("expected alias 'production', got %q", loaded.Backends[0].Alias)
	}
}

func TestFindConfigFileInParentDirectory(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("failed to create nested dirs: %v", err)
	}

	cfgPath := filepath.Join(root, ConfigFileName)
	if err := Save(cfgPath, &Config{Backends: []Backend{{URL: "http://localhost:8080", Alias: "local"}}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	chdir(t, nested)

	found, err := FindConfigFile()
	if err != nil {
		t.Fatalf("FindConfigFile failed: %v", err)
	}

	// Resolve symlinks: macOS temp dirs live behind /private
	wantResolved, _ := filepath.EvalSymlinks(cfgPath)
	foundResolved, _ := filepath.EvalSymlinks(found)
	if foundResolved != wantResolved {
		t.Errorf("expected %q, got %q", wantResolved, foundResolved)
	}
}

func TestFindConfigFileMissing(t *testing.T) {
	chdir(t, t.TempDir())

	if _, err := FindConfigFile(); err == nil {
		t.Error("expected an error when no config file exists")
	}
}

func TestGetBackendByAlias(t *testing.T) {
	cfg := &Config{
		Backends: []Backend{
			{URL: "https://api.ecocollect.example", Alias: "production"},
			{URL: "http://localhost:8080", Alias: "local"},
		},
	}

	backend, err := cfg.GetBackendByAlias("local")
	if err != nil {
		t.Fatalf("GetBackendByAlias failed: %v", err)
	}
	if backend.URL != "http://localhost:8080" {
		t.Errorf("expected local URL, got %q", backend.URL)
	}

	if _, err := cfg.GetBackendByAlias("staging"); err == nil {
		t.Error("expected an error for an unknown alias")
	}
}

func TestGetDefaultBackend(t *testing.T) {
	empty := &Config{}
	if _, err := empty.GetDefaultBackend(); err == nil {
		t.Error("expected an error with no backends configured")
	}

	cfg := &Config{Backends: []Backend{{URL: "http://localhost:8080", Alias: "local"}}}
	backend, err := cfg.GetDefaultBackend()
	if err != nil {
		t.Fatalf("GetDefaultBackend failed: %v", err)
	}
	if backend.Alias != "local" {
		t.Errorf("expected 'local', got %q", backend.Alias)
	}
}
