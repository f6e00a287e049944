package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements Provider for YAML parameter files
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML parameter provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// paramsYAML mirrors Params with YAML tags. Pointer fields distinguish
// "absent, use default" from an explicit zero.
type paramsYAML struct {
	MinDataPoints        *int     `yaml:"min-data-points,omitempty"`
	NPLScaling           *float64 `yaml:"npl-scaling,omitempty"`
	URLScaling           *float64 `yaml:"url-scaling,omitempty"`
	QuartileFraction     *float64 `yaml:"quartile-fraction,omitempty"`
	OutlierMaxIterations *int     `yaml:"outlier-max-iterations,omitempty"`
	AutoLockRatio        *float64 `yaml:"auto-lock-ratio,omitempty"`
}

// LoadParams loads engine parameters from the YAML file. Absent keys
// keep their default values.
func (y *YAMLProvider) LoadParams() (*Params, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	var yamlParams struct {
		Engine paramsYAML `yaml:"engine"`
	}
	if err := yaml.Unmarshal(cfgFile, &yamlParams); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", y.filename, err)
	}

	params := DefaultParams()
	e := yamlParams.Engine
	if e.MinDataPoints != nil {
		params.MinDataPoints = *e.MinDataPoints
	}
	if e.NPLScaling != nil {
		params.NPLScaling = *e.NPLScaling
	}
	if e.URLScaling != nil {
		params.URLScaling = *e.URLScaling
	}
	if e.QuartileFraction != nil {
		params.QuartileFraction = *e.QuartileFraction
	}
	if e.OutlierMaxIterations != nil {
		params.OutlierMaxIterations = *e.OutlierMaxIterations
	}
	if e.AutoLockRatio != nil {
		params.AutoLockRatio = *e.AutoLockRatio
	}

	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters in %s: %w", y.filename, err)
	}
	return &params, nil
}

// IsReadOnly returns true; YAML files are not written back
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML providers
func (y *YAMLProvider) Close() error {
	return nil
}
