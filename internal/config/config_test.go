package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadJSONOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	data := `{"nasa_mode": true, "verification_level": "strict", "max_diagnostics": 5}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if !cfg.NasaMode {
		t.Error("nasa_mode not applied")
	}
	if cfg.VerificationLevel != VerifyStrict {
		t.Errorf("verification_level = %q", cfg.VerificationLevel)
	}
	if cfg.MaxDiagnostics != 5 {
		t.Errorf("max_diagnostics = %d", cfg.MaxDiagnostics)
	}
}

func TestLoadJSONRejectsBadLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	if err := os.WriteFile(path, []byte(`{"verification_level": "yolo"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadJSON(path); err == nil {
		t.Error("expected error for bad verification level")
	}
}

func TestLoadProjectMissingIsNotError(t *testing.T) {
	p, found, err := LoadProject(t.TempDir())
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if found {
		t.Error("manifest should not be found")
	}
	if p.Transpile.VerificationLevel != VerifyBasic {
		t.Errorf("default level = %q", p.Transpile.VerificationLevel)
	}
}

func TestLoadProjectManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := `
[package]
name = "demo"
version = "0.2.0"

[transpile]
nasa_mode = true
verification_level = "full"
`
	if err := os.WriteFile(filepath.Join(dir, ManifestName), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	p, found, err := LoadProject(dir)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if !found {
		t.Fatal("manifest not found")
	}
	if p.Package.Name != "demo" || p.Package.Version != "0.2.0" {
		t.Errorf("package = %+v", p.Package)
	}
	if !p.Transpile.NasaMode || p.Transpile.VerificationLevel != VerifyFull {
		t.Errorf("transpile = %+v", p.Transpile)
	}
}
