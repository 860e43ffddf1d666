package config

import (
	"time"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
)

// implement the validatable interface.
var _ validatable = (*ListingConfig)(nil)

// ListingConfig holds the list screen defaults.
type ListingConfig struct {
	Debounce    time.Duration `mapstructure:"debounce"`
	PageSize    int           `mapstructure:"page_size"`
	MaxPageSize int           `mapstructure:"max_page_size"`
}

// Validate checks the debounce interval and page sizes.
func (c *ListingConfig) Validate(eg *ewrap.ErrorGroup) {
	if c.Debounce < 0 {
		eg.Add(ewrap.New("listing debounce must not be negative").WithMetadata("debounce", c.Debounce))
	}

	if c.PageSize <= 0 {
		eg.Add(ewrap.New("listing page_size must be greater than 0").WithMetadata("page_size", c.PageSize))
	}

	if c.MaxPageSize < c.PageSize {
		eg.Add(ewrap.New("listing max_page_size must be at least page_size").
			WithMetadata("max_page_size", c.MaxPageSize).
			WithMetadata("page_size", c.PageSize))
	}
}
