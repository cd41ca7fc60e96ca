package seed

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yml
var builtinPresets []byte

// Preset describes how much demo data to generate.
type Preset struct {
	Users                 int `yaml:"users"`
	PortfoliosPerUser     int `yaml:"portfolios_per_user"`
	RatingsPerPortfolio   int `yaml:"ratings_per_portfolio"`
	FeedbacksPerPortfolio int `yaml:"feedbacks_per_portfolio"`
	FollowsPerUser        int `yaml:"follows_per_user"`
}

type presetFile struct {
	Presets map[string]Preset `yaml:"presets"`
}

// ParsePresets decodes a presets document.
func ParsePresets(data []byte) (map[string]Preset, error) {
	var f presetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	for name, p := range f.Presets {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
	}
	return f.Presets, nil
}

// BuiltinPreset returns one of the embedded presets.
func BuiltinPreset(name string) (Preset, error) {
	presets, err := ParsePresets(builtinPresets)
	if err != nil {
		return Preset{}, err
	}
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q (available: %v)", name, presetNames(presets))
	}
	return p, nil
}

// Validate checks that counts are non-negative and that ratings and follows
// fit within the user population, since each pair may occur only once.
func (p Preset) Validate() error {
	if p.Users < 0 || p.PortfoliosPerUser < 0 || p.RatingsPerPortfolio < 0 ||
		p.FeedbacksPerPortfolio < 0 || p.FollowsPerUser < 0 {
		return fmt.Errorf("counts must not be negative")
	}
	if p.Users > 0 && p.RatingsPerPortfolio >= p.Users {
		return fmt.Errorf("ratings_per_portfolio must be below users")
	}
	if p.Users > 0 && p.FollowsPerUser >= p.Users {
		return fmt.Errorf("follows_per_user must be below users")
	}
	return nil
}

func presetNames(m map[string]Preset) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
