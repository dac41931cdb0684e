package config

import (
	"embed"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed sites/sites.yaml
var sitesYAML embed.FS

// SiteRegistry holds the per-site detection profiles.
type SiteRegistry struct {
	Sites []SiteProfile `yaml:"sites"`
}

// SiteProfile configures detection for one tracked site. The primary
// selector is brittle on purpose: when the site ships new hashed class
// names the detector falls back to its generic locators.
type SiteProfile struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	HostPattern string          `yaml:"host_pattern"`
	Selectors   SelectorProfile `yaml:"selectors"`
	PollMS      int             `yaml:"poll_interval_ms,omitempty"`
}

type SelectorProfile struct {
	ProjectID string `yaml:"project_id,omitempty"`
}

// LoadSites reads the registry from path when a local override exists
// there, otherwise from the embedded copy.
func LoadSites(path string) (*SiteRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		data, err = sitesYAML.ReadFile("sites/sites.yaml")
		if err != nil {
			return nil, err
		}
	}

	expanded := os.ExpandEnv(string(data))

	var reg SiteRegistry
	if err := yaml.Unmarshal([]byte(expanded), &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

// ProfileFor picks the first profile whose host pattern matches the page
// URL. A profile with an empty pattern matches everything, so the
// catch-all belongs last in the registry.
func (r *SiteRegistry) ProfileFor(pageURL string) SiteProfile {
	host := ""
	if u, err := url.Parse(pageURL); err == nil {
		host = strings.ToLower(u.Host)
	}

	for _, p := range r.Sites {
		if p.HostPattern == "" || strings.Contains(host, strings.ToLower(p.HostPattern)) {
			return p
		}
	}
	return SiteProfile{}
}
