package config

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// LoadFromTomlFile loads the engine config the way the teacher's
// internal/configs/loader.go loads its app config: defaults provider
// first, then an optional TOML file layered on top. A missing file is
// not an error — the defaults stand alone.
func LoadFromTomlFile(tomlPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(NewDefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if err := k.Load(file.Provider(tomlPath), toml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: load toml file %q: %w", tomlPath, err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
