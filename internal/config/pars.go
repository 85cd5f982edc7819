// Package config defines and loads the engine's parameter records
// (spec.md §6) the way the teacher's internal/configs package defines
// and loads its Config: a struct tagged for koanf, a pure-Go defaults
// constructor, and a loader that layers a TOML file over those
// defaults (internal/configs/loader.go).
package config

// Pars is the refinement controller's parameter record (spec.md §4.6,
// §6).
type Pars struct {
	NFramesK        int  `koanf:"n_frames_k"`
	NFramesAddSim   int  `koanf:"n_frames_add_sim"`
	NBTLimit        int  `koanf:"n_bt_limit"`
	NBTLimitGlobal  int  `koanf:"n_bt_limit_global"`
	NMinDomSize     int  `koanf:"n_min_dom_size"`
	NItersStop      int  `koanf:"n_iters_stop"`
	NStepsMax       int  `koanf:"n_steps_max"`
	NSatVarMax      int  `koanf:"n_sat_var_max"`
	NRecycleCalls   int  `koanf:"n_recycle_calls"`
	NResimDelta     int  `koanf:"n_resim_delta"`
	FLatchCorr      bool `koanf:"f_latch_corr"`
	FLatchCorrOpt   bool `koanf:"f_latch_corr_opt"`
	FConstCorr      bool `koanf:"f_const_corr"`
	FOutputCorr     bool `koanf:"f_output_corr"`
	FDynamic        bool `koanf:"f_dynamic"`
	FPolarFlip      bool `koanf:"f_polar_flip"`
	FSemiFormal     bool `koanf:"f_semi_formal"`
	FConstrs        bool `koanf:"f_constrs"`
	FLocalSim       bool `koanf:"f_local_sim"`
	FMergeFull      bool `koanf:"f_merge_full"`
	FStopWhenGone   bool `koanf:"f_stop_when_gone"`
	FVerbose        bool `koanf:"f_verbose"`
}

// NewDefaultPars returns the spec.md §6 defaults: the lowest-priority
// fallback every loaded config layers on top of.
func NewDefaultPars() *Pars {
	return &Pars{
		NFramesK:       1,
		NBTLimit:       1000,
		NBTLimitGlobal: 5_000_000,
		NMinDomSize:    100,
		NItersStop:     -1,
		NResimDelta:    1000,
	}
}

// NewLatchCorrPars returns the latch-correspondence preset layered
// over the defaults.
func NewLatchCorrPars() *Pars {
	p := NewDefaultPars()
	p.FLatchCorrOpt = true
	p.NBTLimit = 10_000
	return p
}

// RarPars is the rarity engine's parameter record (spec.md §4.8, §6).
type RarPars struct {
	NFrames       int   `koanf:"n_frames"`
	NWords        int   `koanf:"n_words"`
	NBinSize      int   `koanf:"n_bin_size"`
	NRounds       int   `koanf:"n_rounds"`
	NRestart      int   `koanf:"n_restart"`
	NRandSeed     int64 `koanf:"n_rand_seed"`
	TimeOut       int   `koanf:"time_out"`
	TimeOutGap    int   `koanf:"time_out_gap"`
	FSolveAll     bool  `koanf:"f_solve_all"`
	FDropSatOuts  bool  `koanf:"f_drop_sat_outs"`
	FSetLastState bool  `koanf:"f_set_last_state"`
}

// NewDefaultRarPars returns the spec.md §6 rarity-engine defaults.
func NewDefaultRarPars() *RarPars {
	return &RarPars{
		NFrames:  20,
		NWords:   50,
		NBinSize: 8,
	}
}

// Config is the root config file shape, mirroring the teacher's
// internal/configs.Config umbrella struct.
type Config struct {
	Pars   Pars    `koanf:"pars"`
	Rarity RarPars `koanf:"rarity"`
}

// NewDefaultConfig returns the all-defaults root config, the lowest
// priority layer every loaded config starts from.
func NewDefaultConfig() *Config {
	return &Config{
		Pars:   *NewDefaultPars(),
		Rarity: *NewDefaultRarPars(),
	}
}
