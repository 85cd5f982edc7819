package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromTomlFileDefaultsOnly(t *testing.T) {
	cfg, err := LoadFromTomlFile(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFromTomlFile: %v", err)
	}
	if cfg.Pars.NFramesK != 1 || cfg.Pars.NBTLimit != 1000 {
		t.Fatalf("unexpected defaults: %+v", cfg.Pars)
	}
}

func TestLoadFromTomlFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ssw.toml")
	body := "[pars]\nn_frames_k = 4\nf_dynamic = true\n\n[rarity]\nn_words = 12\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadFromTomlFile(path)
	if err != nil {
		t.Fatalf("LoadFromTomlFile: %v", err)
	}
	if cfg.Pars.NFramesK != 4 {
		t.Fatalf("NFramesK = %d, want 4", cfg.Pars.NFramesK)
	}
	if !cfg.Pars.FDynamic {
		t.Fatalf("FDynamic = false, want true")
	}
	if cfg.Pars.NBTLimit != 1000 {
		t.Fatalf("NBTLimit = %d, want default 1000", cfg.Pars.NBTLimit)
	}
	if cfg.Rarity.NWords != 12 {
		t.Fatalf("NWords = %d, want 12", cfg.Rarity.NWords)
	}
}
