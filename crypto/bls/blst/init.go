package blst

import (
	"runtime"

	blst "github.com/supranational/blst/bindings/go"
)

func init() {
	blst.SetMaxProcs(pairingWorkers(runtime.GOMAXPROCS(0)))
}

// pairingWorkers leaves one core to the goroutines driving the state transition.
func pairingWorkers(procs int) int {
	if procs > 1 {
		return procs - 1
	}
	return 1
}
