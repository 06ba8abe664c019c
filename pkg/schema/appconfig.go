package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrConfigNotObject is returned when an application config is not a JSON object.
	ErrConfigNotObject = errors.New("config must be a JSON object")
)

// AppNavigation is the optional navigation block of an application config.
type AppNavigation struct {
	Layout        string `json:"layout,omitempty"`
	DefaultObject string `json:"default_object,omitempty"`
}

// AppConfig is the typed view of Application.Config. Keys other than
// objects, features and navigation are kept in Extra and written back as-is.
type AppConfig struct {
	Objects    []string
	Features   []string
	Navigation *AppNavigation
	Extra      map[string]json.RawMessage
}

// ParseAppConfig validates raw config JSON at the boundary.
func ParseAppConfig(raw []byte) (AppConfig, error) {
	var cfg AppConfig
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return cfg, ErrConfigNotObject
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keys); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}

	for k, v := range keys {
		switch k {
		case "objects":
			if err := decodeStrings(v, &cfg.Objects); err != nil {
				return cfg, fmt.Errorf("config.objects: %w", err)
			}
		case "features":
			if err := decodeStrings(v, &cfg.Features); err != nil {
				return cfg, fmt.Errorf("config.features: %w", err)
			}
		case "navigation":
			if string(bytes.TrimSpace(v)) == "null" {
				continue
			}
			var nav AppNavigation
			if err := json.Unmarshal(v, &nav); err != nil {
				return cfg, fmt.Errorf("config.navigation: %w", err)
			}
			cfg.Navigation = &nav
		default:
			if cfg.Extra == nil {
				cfg.Extra = make(map[string]json.RawMessage)
			}
			cfg.Extra[k] = v
		}
	}
	return cfg, nil
}

func decodeStrings(raw json.RawMessage, dst *[]string) error {
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return errors.New("must be an array of strings")
	}
	for _, s := range list {
		if s == "" {
			return errors.New("entries must be non-empty")
		}
	}
	*dst = list
	return nil
}

// MarshalJSON writes the typed keys over any preserved extras.
func (c AppConfig) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+3)
	for k, v := range c.Extra {
		out[k] = v
	}
	objects := c.Objects
	if objects == nil {
		objects = []string{}
	}
	out["objects"] = objects
	if c.Features != nil {
		out["features"] = c.Features
	}
	if c.Navigation != nil {
		out["navigation"] = c.Navigation
	}
	return json.Marshal(out)
}

// UnmarshalJSON applies the same checks as ParseAppConfig.
func (c *AppConfig) UnmarshalJSON(data []byte) error {
	parsed, err := ParseAppConfig(data)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
