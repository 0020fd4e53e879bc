// Package config reads the runtime's environment-variable configuration.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
)

// Config mirrors the environment variables the runtime recognizes:
// NumThreads and PrintVersion for sizing and banner control, plus the
// ambient-stack Debug toggle for the diagnostic log stream.
type Config struct {
	// NumThreads is the worker pool size. Defaults to 2 when NUM_THREADS is
	// unset, empty, non-numeric, or non-positive.
	NumThreads int
	// PrintVersion controls the build-configuration banner: 0 prints
	// nothing, 1 prints and continues, 2+ prints and the caller should exit
	// before doing any work.
	PrintVersion int
	// Debug enables the diagnostic log stream (worker lifecycle, steal
	// attempts, assertion failures) even when PrintVersion is 0. Set via
	// SWAN_DEBUG; any value accepted by strconv.ParseBool as true enables
	// it, everything else (including unset) leaves it off.
	Debug bool
}

const defaultNumThreads = 2

// FromEnv reads NUM_THREADS, PRINT_VERSION, and SWAN_DEBUG from the process
// environment.
func FromEnv() Config {
	cfg := Config{NumThreads: defaultNumThreads}

	if raw, ok := os.LookupEnv("NUM_THREADS"); ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.NumThreads = n
		}
	}
	if raw, ok := os.LookupEnv("PRINT_VERSION"); ok {
		if n, err := strconv.Atoi(raw); err == nil {
			cfg.PrintVersion = n
		}
	}
	if raw, ok := os.LookupEnv("SWAN_DEBUG"); ok {
		if b, err := strconv.ParseBool(raw); err == nil {
			cfg.Debug = b
		}
	}
	return cfg
}

// ShouldExit reports whether the caller printed the banner for diagnostic
// purposes only and should exit without running any work (PRINT_VERSION>=2).
func (c Config) ShouldExit() bool { return c.PrintVersion >= 2 }

// Banner renders the build-configuration banner printed when PrintVersion
// is non-zero.
func (c Config) Banner() string {
	return fmt.Sprintf(
		"swan runtime build=%s/%s go=%s workers=%d",
		runtime.GOOS, runtime.GOARCH, runtime.Version(), c.NumThreads,
	)
}
