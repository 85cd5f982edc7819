// Command ssw is a thin flag-to-struct binder over the engine's
// parameter records, shaped exactly like the teacher's cmd/musicfox
// entry point: a gcli.App with a default command, a global option
// binder, and one small side command (cmd/musicfox/main.go,
// pkg/commands/config.go). Per spec.md §1 the CLI itself is
// documented only as the set of Pars/RarPars fields — there is no
// feature surface beyond running the engine over a named fixture.
package main

import (
	"github.com/gookit/gcli/v2"
)

const (
	appName        = "ssw"
	appVersion     = "0.1.0"
	appDescription = "sequential equivalence checking engine"
)

// globalOpts mirrors the teacher's commands.GlobalOptions: flags bound
// once on the App rather than per-command.
var globalOpts struct {
	verbose bool
}

func main() {
	app := gcli.NewApp()
	app.Name = appName
	app.Version = appVersion
	app.Description = appDescription
	app.GOptsBinder = func(gf *gcli.Flags) {
		gf.BoolOpt(&globalOpts.verbose, "verbose", "v", false, "enable verbose (debug-level) logging")
	}

	runCmd := newRunCommand()
	app.Add(runCmd)
	app.Add(newConfigCommand())
	app.DefaultCommand(runCmd.Name)

	app.Run()
}
