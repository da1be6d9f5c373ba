package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Screen is one display token this device may show.
type Screen struct {
	Token    string `yaml:"token" validate:"token"`
	Name     string `yaml:"name,omitempty" validate:"max=64"`
	Profile  string `yaml:"profile,omitempty" validate:"profile"`
	PinIndex *int   `yaml:"pin_index,omitempty" validate:"omitempty,min=0"`
	Language string `yaml:"language,omitempty" validate:"omitempty,min=2,max=8"`
}

type screensFile struct {
	Screens []Screen `yaml:"screens"`
}

// LoadScreens reads a YAML document with a top-level screens list.
func LoadScreens(path string) ([]Screen, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read screens file: %w", err)
	}
	var file screensFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse screens file: %w", err)
	}
	for i := range file.Screens {
		file.Screens[i].Token = strings.TrimSpace(file.Screens[i].Token)
		file.Screens[i].Profile = strings.ToLower(strings.TrimSpace(file.Screens[i].Profile))
	}
	return file.Screens, nil
}

// mergeTokens appends comma-separated tokens that are not configured yet.
func mergeTokens(screens []Screen, raw string) []Screen {
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		known := false
		for _, screen := range screens {
			if screen.Token == token {
				known = true
				break
			}
		}
		if !known {
			screens = append(screens, Screen{Token: token})
		}
	}
	return screens
}
