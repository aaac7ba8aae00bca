package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/JetJadeja/celebxplain/internal/domain"
)

// Catalog holds the persona reference data loaded from a JSON file. The file
// is read once at startup; personas are immutable afterwards.
type Catalog struct {
	personas []domain.Persona
	byID     map[string]domain.Persona
}

type personasFile struct {
	Personas []domain.Persona `json:"personas"`
}

// Load reads the persona catalog from the given path.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var file personasFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	c := &Catalog{
		personas: file.Personas,
		byID:     make(map[string]domain.Persona, len(file.Personas)),
	}
	for _, p := range file.Personas {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog: persona %q has no id", p.Name)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate persona id %q", p.ID)
		}
		c.byID[p.ID] = p
	}
	return c, nil
}

// List returns all personas in file order.
func (c *Catalog) List() []domain.Persona {
	out := make([]domain.Persona, len(c.personas))
	copy(out, c.personas)
	return out
}

// Get returns the persona with the given id.
func (c *Catalog) Get(id string) (domain.Persona, bool) {
	p, ok := c.byID[id]
	return p, ok
}

var _ domain.PersonaCatalog = (*Catalog)(nil)
