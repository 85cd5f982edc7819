package main

import (
	"fmt"
	"path/filepath"

	"github.com/gookit/gcli/v2"

	"github.com/ssw-eda/ssw/internal/obs/paths"
)

const configFileName = "ssw.toml"

// newConfigCommand mirrors the teacher's pkg/commands/config.go: print
// the path the loader resolves and stop, no actual loading needed.
func newConfigCommand() *gcli.Command {
	return &gcli.Command{
		Name:   "config",
		UseFor: "Print the configuration file path ssw resolves at startup",
		Func: func(_ *gcli.Command, _ []string) error {
			fmt.Printf("Loaded Configuration File: %s\n", configPath())
			return nil
		},
	}
}

func configPath() string {
	return filepath.Join(paths.ConfigDir(), configFileName)
}
