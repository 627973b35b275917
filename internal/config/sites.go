package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed sites.yaml
var defaultSiteStyles string

// SiteStyle is the editorial profile of one content site: who it writes
// for, how its articles should sound, and how image searches are biased.
type SiteStyle struct {
	Name          string   `yaml:"name"`
	Author        string   `yaml:"author"`
	Audience      string   `yaml:"audience"`
	ArticleStyle  string   `yaml:"article_style"`
	ExtraSections string   `yaml:"extra_sections"`
	// ImageQualifier is prefixed to image search queries so results match
	// the site's audience (e.g. "asian", "christian"). Empty means no bias.
	ImageQualifier string   `yaml:"image_qualifier"`
	// ImageFallback enables the secondary provider when the qualified
	// primary search returns nothing.
	ImageFallback bool     `yaml:"image_fallback"`
	Categories    []string `yaml:"categories"`
}

// SiteStyles maps site slugs to their editorial profiles.
type SiteStyles struct {
	Default SiteStyle            `yaml:"default"`
	Sites   map[string]SiteStyle `yaml:"sites"`
}

// For returns the style for a slug, falling back to the default profile
// for unknown sites.
func (s *SiteStyles) For(slug string) SiteStyle {
	if style, ok := s.Sites[slug]; ok {
		return style
	}
	return s.Default
}

// LoadSiteStyles parses the embedded site profiles, or the file at path
// when one is given.
func LoadSiteStyles(path string) (*SiteStyles, error) {
	data := []byte(defaultSiteStyles)
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading site styles %s: %w", path, err)
		}
		data = b
	}

	var styles SiteStyles
	if err := yaml.Unmarshal(data, &styles); err != nil {
		return nil, fmt.Errorf("parsing site styles: %w", err)
	}
	if styles.Sites == nil {
		styles.Sites = map[string]SiteStyle{}
	}
	return &styles, nil
}
