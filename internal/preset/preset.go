// Package preset reads and writes saved light settings.
//
// A preset file looks like:
//
//	{"rgb": [255, 0, 0], "brightness": 200, "scene": "Rainbow"}
//
// Files ending in .json are handled as JSON; anything else is YAML, which
// also accepts the JSON form.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preset is one saved combination of color, brightness and scene.
type Preset struct {
	RGB        [3]int `json:"rgb" yaml:"rgb"`
	Brightness int    `json:"brightness" yaml:"brightness"`
	Scene      string `json:"scene,omitempty" yaml:"scene,omitempty"`
}

// Default is what a preset file with no fields means: full white, full
// brightness, no scene.
func Default() Preset {
	return Preset{RGB: [3]int{255, 255, 255}, Brightness: 255}
}

// Load reads a preset file. Missing fields take their Default values.
func Load(path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, fmt.Errorf("reading preset: %w", err)
	}
	return Parse(data, isJSON(path))
}

// Parse decodes preset data as JSON or YAML.
func Parse(data []byte, asJSON bool) (Preset, error) {
	p := Default()
	var err error
	if asJSON {
		err = json.Unmarshal(data, &p)
	} else {
		err = yaml.Unmarshal(data, &p)
	}
	if err != nil {
		return Preset{}, fmt.Errorf("parsing preset: %w", err)
	}
	return p, nil
}

// Save writes p to path, creating parent directories as needed.
func Save(path string, p Preset) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(p, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(p)
	}
	if err != nil {
		return fmt.Errorf("encoding preset: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating preset directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing preset: %w", err)
	}
	return nil
}

// Resolve turns a bare preset name into a path under dir. Names that
// already look like paths are returned unchanged.
func Resolve(dir, name string) string {
	if dir == "" || strings.ContainsRune(name, os.PathSeparator) || filepath.Ext(name) != "" {
		return name
	}
	return filepath.Join(dir, name+".json")
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
