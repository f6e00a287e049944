package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()

	if p.MinDataPoints != 5 {
		t.Errorf("expected MinDataPoints=5, got %d", p.MinDataPoints)
	}
	if p.NPLScaling != 2.66 {
		t.Errorf("expected NPLScaling=2.66, got %g", p.NPLScaling)
	}
	if p.URLScaling != 3.27 {
		t.Errorf("expected URLScaling=3.27, got %g", p.URLScaling)
	}
	if p.QuartileFraction != 2.0/3.0 {
		t.Errorf("expected QuartileFraction=2/3, got %g", p.QuartileFraction)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestOrDefaults(t *testing.T) {
	var zero Params
	p := zero.OrDefaults()
	if p != DefaultParams() {
		t.Errorf("zero params should fill to defaults: %+v", p)
	}

	partial := Params{NPLScaling: 3.0}
	p = partial.OrDefaults()
	if p.NPLScaling != 3.0 {
		t.Errorf("explicit value should survive: got %g", p.NPLScaling)
	}
	if p.MinDataPoints != 5 {
		t.Errorf("unset value should default: got %d", p.MinDataPoints)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{name: "min points too low", mutate: func(p *Params) { p.MinDataPoints = 1 }},
		{name: "negative scaling", mutate: func(p *Params) { p.NPLScaling = -1 }},
		{name: "zero url scaling", mutate: func(p *Params) { p.URLScaling = 0 }},
		{name: "fraction at one", mutate: func(p *Params) { p.QuartileFraction = 1 }},
		{name: "zero iterations", mutate: func(p *Params) { p.OutlierMaxIterations = 0 }},
		{name: "ratio below one", mutate: func(p *Params) { p.AutoLockRatio = 0.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Errorf("expected validation error for %+v", p)
			}
		})
	}
}

func TestYAMLProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	content := `engine:
  min-data-points: 8
  auto-lock-ratio: 1.5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	provider := NewYAMLProvider(path)
	defer provider.Close()

	if !provider.IsReadOnly() {
		t.Errorf("YAML provider should be read-only")
	}

	params, err := provider.LoadParams()
	if err != nil {
		t.Fatalf("LoadParams failed: %v", err)
	}
	if params.MinDataPoints != 8 {
		t.Errorf("expected MinDataPoints=8, got %d", params.MinDataPoints)
	}
	if params.AutoLockRatio != 1.5 {
		t.Errorf("expected AutoLockRatio=1.5, got %g", params.AutoLockRatio)
	}
	// Unlisted keys keep their defaults
	if params.NPLScaling != 2.66 {
		t.Errorf("expected default NPLScaling, got %g", params.NPLScaling)
	}
}

func TestYAMLProviderRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	content := `engine:
  quartile-fraction: 2.5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewYAMLProvider(path).LoadParams(); err == nil {
		t.Errorf("expected validation error for out-of-range fraction")
	}
}

func TestSQLiteProviderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	provider, err := NewSQLiteProvider(filepath.Join(dir, "params.db"), "")
	if err != nil {
		t.Fatalf("failed to open provider: %v", err)
	}
	defer provider.Close()

	if provider.IsReadOnly() {
		t.Errorf("SQLite provider should be writable")
	}
	if err := provider.EnsureSchema(); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	// A fresh database serves defaults
	params, err := provider.LoadParams()
	if err != nil {
		t.Fatalf("LoadParams failed: %v", err)
	}
	if *params != DefaultParams() {
		t.Errorf("fresh database should serve defaults, got %+v", params)
	}

	custom := DefaultParams()
	custom.MinDataPoints = 12
	custom.AutoLockRatio = 2.0
	if err := provider.SaveParams(custom); err != nil {
		t.Fatalf("SaveParams failed: %v", err)
	}

	loaded, err := provider.LoadParams()
	if err != nil {
		t.Fatalf("LoadParams after save failed: %v", err)
	}
	if *loaded != custom {
		t.Errorf("expected %+v, got %+v", custom, loaded)
	}
}
