package refcache

import (
	"fmt"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Marker records a complete reference generation of a suite. The marker file
// modification time, not GeneratedAt, is what staleness checks compare.
type Marker struct {
	Suite       string    `yaml:"suite"`
	GeneratedAt time.Time `yaml:"generated_at"`
	Artifacts   int       `yaml:"artifacts"`
}

func writeMarker(fs afero.Fs, path string, marker Marker) error {
	data, err := yaml.Marshal(marker)
	if err != nil {
		return err
	}

	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return err
	}

	return fs.Chtimes(path, marker.GeneratedAt, marker.GeneratedAt)
}

// ReadMarker loads a suite cache marker
func ReadMarker(fs afero.Fs, path string) (Marker, error) {
	var marker Marker

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return marker, err
	}

	if err := yaml.Unmarshal(data, &marker); err != nil {
		return marker, fmt.Errorf("invalid cache marker %s: %w", path, err)
	}

	return marker, nil
}
