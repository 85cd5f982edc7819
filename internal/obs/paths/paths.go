// Package paths resolves the XDG base directories ssw writes to (log
// file, bolt cache, config file default), following the teacher's
// utils/app path manager but trimmed to what a headless engine needs:
// no cache/download/runtime dirs, no portable-root override beyond the
// one environment variable that matters for a CLI tool.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
)

const appDir = "ssw"

type manager struct {
	configDir string
	dataDir   string
	stateDir  string
	logDir    string
}

var (
	p    manager
	once sync.Once
)

func ensure() {
	once.Do(func() {
		if root := os.Getenv("SSW_ROOT"); root != "" {
			abs, err := filepath.Abs(root)
			if err != nil {
				panic(fmt.Sprintf("paths: resolve SSW_ROOT: %v", err))
			}
			p.configDir = abs
			p.dataDir = filepath.Join(abs, "data")
			p.stateDir = abs
		} else {
			p.dataDir = filepath.Join(xdg.DataHome, appDir)
			p.stateDir = filepath.Join(xdg.StateHome, appDir)
			cfg, err := xdg.ConfigFile(appDir)
			if err != nil {
				panic(fmt.Sprintf("paths: resolve config dir: %v", err))
			}
			p.configDir = cfg
		}
		p.logDir = filepath.Join(p.stateDir, "log")
		mustCreate(p.configDir, p.dataDir, p.logDir)
	})
}

func mustCreate(dirs ...string) {
	for _, d := range dirs {
		if _, err := os.Stat(d); os.IsNotExist(err) {
			_ = os.MkdirAll(d, 0o755)
		}
	}
}

// ConfigDir returns the directory holding ssw.toml.
func ConfigDir() string { ensure(); return p.configDir }

// DataDir returns the directory holding the bolt cache.
func DataDir() string { ensure(); return p.dataDir }

// LogDir returns the directory ssw.log is written to.
func LogDir() string { ensure(); return p.logDir }
