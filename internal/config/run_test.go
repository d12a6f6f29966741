package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/flexure/internal/flexure"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"run.json", `{"method": "SAS", "q": "load", "te": "25", "output": "defl", "rho_fill": 1000, "w": "NoOutsideLoads", "latlon": true}`},
		{"run.yaml", "method: SAS\nq: load\nte: \"25\"\noutput: defl\nrho_fill: 1000\nw: NoOutsideLoads\nlatlon: true\n"},
		{"run.yml", "method: SAS\nq: load\nte: \"25\"\noutput: defl\nrho_fill: 1000.0\nw: NoOutsideLoads\nlatlon: true\n"},
		{"run.toml", "method = \"SAS\"\nq = \"load\"\nte = \"25\"\noutput = \"defl\"\nrho_fill = 1000.0\nw = \"NoOutsideLoads\"\nlatlon = true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.name, tt.body))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			p := cfg.Params()
			want := flexure.DefaultParams()
			want.Method = "SAS"
			want.Load = "load"
			want.ElasticThickness = "25"
			want.Output = "defl"
			want.RhoFill = 1000
			want.LatLon = true
			if p != want {
				t.Errorf("Params() = %+v\nwant %+v", p, want)
			}
		})
	}
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "partial.json", `{"g": 9.81}`))
	if err != nil {
		t.Fatal(err)
	}
	p := cfg.Params()
	if p.GravAccel != 9.81 {
		t.Errorf("GravAccel = %g, want 9.81", p.GravAccel)
	}
	if p.MantleDensity != 3300 || p.InterpMethod != "lanczos" || p.ColorRamp != "rainbow" {
		t.Errorf("defaults lost: %+v", p)
	}
	if cfg.GetWorkspace() != DefaultWorkspace {
		t.Errorf("GetWorkspace() = %q, want %q", cfg.GetWorkspace(), DefaultWorkspace)
	}
	if cfg.GetVerbose() {
		t.Error("GetVerbose() = true, want false")
	}
}

func TestLoad_EmptyYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, "empty.yaml", "# nothing here\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Method != nil {
		t.Errorf("Method = %v, want nil", *cfg.Method)
	}
}

func TestApplyOverridesOnlySetFields(t *testing.T) {
	ws := "/tmp/other.db"
	method := "FD"
	cfg := &RunConfig{Workspace: &ws, Method: &method}

	p := flexure.DefaultParams()
	p.Load = "from_flags"
	cfg.Apply(&p)
	if p.Method != "FD" || p.Load != "from_flags" {
		t.Errorf("Apply: method=%q load=%q", p.Method, p.Load)
	}
	if cfg.GetWorkspace() != ws {
		t.Errorf("GetWorkspace() = %q", cfg.GetWorkspace())
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"extension", "run.ini", "method=FD", "extension"},
		{"unknown json key", "run.json", `{"methd": "FD"}`, "unknown field"},
		{"unknown yaml key", "run.yaml", "methd: FD\n", "not found"},
		{"unknown toml key", "run.toml", "methd = \"FD\"\n", "unknown keys"},
		{"bad json", "run.json", `{"method": `, "parse config JSON"},
		{"bad method", "run.json", `{"method": "FEM"}`, "method must be"},
		{"bad te", "run.yaml", "te: \"-4\"\n", "elastic thickness"},
		{"negative rho_fill", "run.json", `{"rho_fill": -1}`, "rho_fill"},
		{"zero g", "run.toml", "g = 0.0\n", "g must be"},
		{"poisson", "run.json", `{"poissons_ratio": 0.5}`, "poissons_ratio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingAndTooLarge(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
	big := writeConfig(t, "big.json", `{"method": "FD"}`+strings.Repeat(" ", maxFileSize))
	if _, err := Load(big); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("error = %v, want too large", err)
	}
}
