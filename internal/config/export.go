package config

import (
	"slices"
	"strings"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
)

// implement the validatable interface.
var _ validatable = (*ExportConfig)(nil)

// ExportFormats lists the accepted values of export.format.
var ExportFormats = []string{"csv", "xlsx", "pdf"}

// ExportConfig holds where and how exports are written.
type ExportConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"`
}

// Validate checks the export directory and format.
func (c *ExportConfig) Validate(eg *ewrap.ErrorGroup) {
	if strings.TrimSpace(c.Dir) == "" {
		eg.Add(ewrap.New("export dir is required"))
	}

	if !slices.Contains(ExportFormats, strings.ToLower(c.Format)) {
		eg.Add(ewrap.New("unsupported export format").
			WithMetadata("format", c.Format).
			WithMetadata("supported", ExportFormats))
	}
}
