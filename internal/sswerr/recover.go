package sswerr

import (
	"log/slog"
	"runtime/debug"
)

// Recover is a deferred panic guard, ported from the teacher's
// utils/errorx.Recover: it logs a recovered panic and swallows it when
// ignore is set, re-panicking otherwise. The partitioner's errgroup
// workers do not run under it.
func Recover(ignore bool) (hasCaught bool) {
	err := recover()
	if err != nil {
		slog.Error("catch panic", slog.Any("error", err), slog.Any("stack", debug.Stack()))
		if ignore {
			hasCaught = true
			return
		}
		panic(err)
	}
	return
}

// Go launches f in a goroutine guarded by Recover.
func Go(f func(), ignorePanic ...bool) {
	ignore := len(ignorePanic) > 0 && ignorePanic[0]
	go func() {
		defer Recover(ignore)
		f()
	}()
}
