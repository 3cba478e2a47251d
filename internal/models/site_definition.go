package models

import "fmt"

// SiteDefinition is one scheduled crawl target loaded from the site
// definitions YAML file in serve mode. Zero-value option fields fall back
// to the crawler defaults from config.
type SiteDefinition struct {
	Name          string `yaml:"name" json:"name"`
	URL           string `yaml:"url" json:"url"`
	Schedule      string `yaml:"schedule" json:"schedule"`
	Workers       int    `yaml:"workers,omitempty" json:"workers,omitempty"`
	MaxDepth      int    `yaml:"max_depth,omitempty" json:"max_depth,omitempty"`
	MaxComponents int    `yaml:"max_components,omitempty" json:"max_components,omitempty"`
	MaxCount      int    `yaml:"max_count,omitempty" json:"max_count,omitempty"`
	StaleHours    int    `yaml:"stale_hours,omitempty" json:"stale_hours,omitempty"`
}

// Validate checks the fields the scheduler cannot default.
func (d *SiteDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("site definition name is required")
	}
	if d.URL == "" {
		return fmt.Errorf("site definition %q: url is required", d.Name)
	}
	if d.Schedule == "" {
		return fmt.Errorf("site definition %q: schedule is required", d.Name)
	}
	return nil
}
