package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/propflow/propflow/internal/domain/selection"
)

// Entry is one catalog-provided prop firm.
type Entry struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	MatchKeyword string `yaml:"match_keyword"`
}

// Catalog is the stock list of prop firms offered to every account.
type Catalog struct {
	Firms []Entry `yaml:"firms"`
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that every entry has an id and a name and that ids
// are unique across the catalog.
func (c *Catalog) Validate() error {
	if len(c.Firms) == 0 {
		return fmt.Errorf("catalog has no firms")
	}
	seen := make(map[string]bool, len(c.Firms))
	for i, e := range c.Firms {
		if strings.TrimSpace(e.ID) == "" {
			return fmt.Errorf("catalog firm %d: missing id", i)
		}
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("catalog firm %q: missing name", e.ID)
		}
		if seen[e.ID] {
			return fmt.Errorf("catalog firm %q: duplicate id", e.ID)
		}
		seen[e.ID] = true
	}
	return nil
}

// Seed converts the catalog into a fresh selection set: every firm
// present, none selected, none custom.
func (c *Catalog) Seed() []selection.Firm {
	firms := make([]selection.Firm, 0, len(c.Firms))
	for _, e := range c.Firms {
		firms = append(firms, selection.Firm{
			ID:           e.ID,
			Name:         e.Name,
			Description:  e.Description,
			MatchKeyword: e.MatchKeyword,
		})
	}
	return firms
}
