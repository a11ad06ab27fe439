// Package dataset ships the reference destinations used for demos and seeding.
package dataset

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"globetrotter/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed destinations.yaml
var defaultDestinations []byte

// Default returns the embedded destination set.
func Default() ([]domain.Destination, error) {
	return Load(bytes.NewReader(defaultDestinations))
}

// LoadFile reads destinations from a YAML file.
func LoadFile(path string) ([]domain.Destination, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a YAML list of destinations and validates every entry.
func Load(r io.Reader) ([]domain.Destination, error) {
	var destinations []domain.Destination
	if err := yaml.NewDecoder(r).Decode(&destinations); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode destinations: %w", err)
	}
	ids := make(map[string]struct{}, len(destinations))
	for i, d := range destinations {
		if err := validate(d); err != nil {
			return nil, fmt.Errorf("destination %d: %w", i, err)
		}
		if _, dup := ids[d.ID]; dup {
			return nil, fmt.Errorf("destination %d: duplicate id %q", i, d.ID)
		}
		ids[d.ID] = struct{}{}
	}
	return destinations, nil
}

func validate(d domain.Destination) error {
	switch {
	case d.ID == "":
		return fmt.Errorf("missing id")
	case d.City == "":
		return fmt.Errorf("%s: missing city", d.ID)
	case len(d.Clues) == 0:
		return fmt.Errorf("%s: at least one clue required", d.ID)
	}
	return nil
}
