// Package config loads flexure run configuration files. A file may set any
// subset of the run parameters; fields it omits keep their defaults or the
// values given on the command line.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/flexure/internal/flexure"
)

// DefaultWorkspace is the workspace database used when none is configured.
const DefaultWorkspace = "flexure.db"

// maxFileSize bounds configuration files.
const maxFileSize = 1 * 1024 * 1024 // 1MB

// RunConfig is the on-disk form of a flexure run. Every field is optional.
type RunConfig struct {
	Workspace *string `json:"workspace,omitempty" yaml:"workspace,omitempty" toml:"workspace,omitempty"`
	Verbose   *bool   `json:"verbose,omitempty" yaml:"verbose,omitempty" toml:"verbose,omitempty"`

	Method    *string  `json:"method,omitempty" yaml:"method,omitempty" toml:"method,omitempty"`
	Load      *string  `json:"q,omitempty" yaml:"q,omitempty" toml:"q,omitempty"`
	Thickness *string  `json:"te,omitempty" yaml:"te,omitempty" toml:"te,omitempty"`
	Output    *string  `json:"output,omitempty" yaml:"output,omitempty" toml:"output,omitempty"`
	RhoFill   *float64 `json:"rho_fill,omitempty" yaml:"rho_fill,omitempty" toml:"rho_fill,omitempty"`

	North *string `json:"n,omitempty" yaml:"n,omitempty" toml:"n,omitempty"`
	South *string `json:"s,omitempty" yaml:"s,omitempty" toml:"s,omitempty"`
	West  *string `json:"w,omitempty" yaml:"w,omitempty" toml:"w,omitempty"`
	East  *string `json:"e,omitempty" yaml:"e,omitempty" toml:"e,omitempty"`

	LatLon *bool `json:"latlon,omitempty" yaml:"latlon,omitempty" toml:"latlon,omitempty"`

	// Material constants
	YoungsModulus *float64 `json:"youngs_modulus,omitempty" yaml:"youngs_modulus,omitempty" toml:"youngs_modulus,omitempty"`
	PoissonsRatio *float64 `json:"poissons_ratio,omitempty" yaml:"poissons_ratio,omitempty" toml:"poissons_ratio,omitempty"`
	MantleDensity *float64 `json:"rho_m,omitempty" yaml:"rho_m,omitempty" toml:"rho_m,omitempty"`
	GravAccel     *float64 `json:"g,omitempty" yaml:"g,omitempty" toml:"g,omitempty"`

	// Solver params
	Solver        *string  `json:"solver,omitempty" yaml:"solver,omitempty" toml:"solver,omitempty"`
	PlateSolution *string  `json:"plate_solution,omitempty" yaml:"plate_solution,omitempty" toml:"plate_solution,omitempty"`
	Tolerance     *float64 `json:"tolerance,omitempty" yaml:"tolerance,omitempty" toml:"tolerance,omitempty"`

	// Output params
	Interp *string `json:"interp,omitempty" yaml:"interp,omitempty" toml:"interp,omitempty"`
	Colors *string `json:"colors,omitempty" yaml:"colors,omitempty" toml:"colors,omitempty"`
}

// EmptyRunConfig returns a RunConfig with all fields set to nil.
func EmptyRunConfig() *RunConfig {
	return &RunConfig{}
}

// Load reads a RunConfig from a .json, .yaml, .yml or .toml file. Unknown
// keys are rejected.
func Load(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	switch ext {
	case ".json", ".yaml", ".yml", ".toml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml, .yml or .toml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data, ext)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Parse decodes configuration data in the format named by ext.
func Parse(data []byte, ext string) (*RunConfig, error) {
	cfg := EmptyRunConfig()
	switch ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document is an empty config.
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config TOML: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("failed to parse config TOML: unknown keys %v", undecoded)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	return cfg, nil
}

// Validate checks the values that can be checked without a workspace.
func (c *RunConfig) Validate() error {
	if c.Method != nil && *c.Method != "FD" && *c.Method != "SAS" {
		return fmt.Errorf("method must be FD or SAS, got %q", *c.Method)
	}
	if c.Thickness != nil && *c.Thickness != "" {
		if _, err := flexure.ParseThickness(*c.Thickness); err != nil {
			return err
		}
	}
	nonNegative := []struct {
		key string
		v   *float64
	}{
		{"rho_fill", c.RhoFill},
		{"tolerance", c.Tolerance},
	}
	for _, f := range nonNegative {
		if f.v != nil && !(*f.v >= 0 && !math.IsInf(*f.v, 0)) {
			return fmt.Errorf("%s must be a finite non-negative number, got %g", f.key, *f.v)
		}
	}
	positive := []struct {
		key string
		v   *float64
	}{
		{"youngs_modulus", c.YoungsModulus},
		{"rho_m", c.MantleDensity},
		{"g", c.GravAccel},
	}
	for _, f := range positive {
		if f.v != nil && !(*f.v > 0 && !math.IsInf(*f.v, 0)) {
			return fmt.Errorf("%s must be a finite positive number, got %g", f.key, *f.v)
		}
	}
	if c.PoissonsRatio != nil && !(*c.PoissonsRatio >= 0 && *c.PoissonsRatio < 0.5) {
		return fmt.Errorf("poissons_ratio must be in [0, 0.5), got %g", *c.PoissonsRatio)
	}
	return nil
}

// GetWorkspace returns the workspace path or the default.
func (c *RunConfig) GetWorkspace() string {
	if c.Workspace == nil || *c.Workspace == "" {
		return DefaultWorkspace
	}
	return *c.Workspace
}

// GetVerbose returns the verbose flag or the default.
func (c *RunConfig) GetVerbose() bool {
	if c.Verbose == nil {
		return false
	}
	return *c.Verbose
}

// Params returns flexure.DefaultParams overlaid with every field the
// configuration sets.
func (c *RunConfig) Params() flexure.Params {
	p := flexure.DefaultParams()
	c.Apply(&p)
	return p
}

// Apply copies every set field into p.
func (c *RunConfig) Apply(p *flexure.Params) {
	setString(&p.Method, c.Method)
	setString(&p.Load, c.Load)
	setString(&p.ElasticThickness, c.Thickness)
	setString(&p.Output, c.Output)
	setFloat(&p.RhoFill, c.RhoFill)
	setString(&p.North, c.North)
	setString(&p.South, c.South)
	setString(&p.West, c.West)
	setString(&p.East, c.East)
	if c.LatLon != nil {
		p.LatLon = *c.LatLon
	}
	setFloat(&p.YoungsModulus, c.YoungsModulus)
	setFloat(&p.PoissonsRatio, c.PoissonsRatio)
	setFloat(&p.MantleDensity, c.MantleDensity)
	setFloat(&p.GravAccel, c.GravAccel)
	setString(&p.Solver, c.Solver)
	setString(&p.PlateSolution, c.PlateSolution)
	setFloat(&p.Tolerance, c.Tolerance)
	setString(&p.InterpMethod, c.Interp)
	setString(&p.ColorRamp, c.Colors)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
