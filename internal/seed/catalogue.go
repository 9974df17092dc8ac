package seed

import (
	_ "embed"
	"fmt"

	"wanderlog/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed catalogue.yaml
var catalogueYAML []byte

// Place is a location paired with the kind of place it is.
type Place struct {
	Location string           `yaml:"location"`
	Type     models.StoryType `yaml:"type"`
}

// Catalogue holds the material demo stories are drawn from.
type Catalogue struct {
	Titles       []string `yaml:"titles"`
	Descriptions []string `yaml:"descriptions"`
	Places       []Place  `yaml:"places"`
}

// LoadCatalogue parses the embedded catalogue.
func LoadCatalogue() (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(catalogueYAML, &c); err != nil {
		return nil, fmt.Errorf("parse seed catalogue: %w", err)
	}
	if len(c.Titles) == 0 || len(c.Descriptions) == 0 || len(c.Places) == 0 {
		return nil, fmt.Errorf("seed catalogue is incomplete")
	}
	for _, p := range c.Places {
		if !p.Type.Valid() {
			return nil, fmt.Errorf("seed catalogue: unknown story type %q for %s", p.Type, p.Location)
		}
	}
	return &c, nil
}
