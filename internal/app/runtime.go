package app

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"
)

const testModeEnv = "RESONO_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

// InTestMode reports whether runtime side effects (listening sockets,
// background schedulers) should be skipped. The flag comes from
// RESONO_TEST_MODE and accepts any spelling strconv.ParseBool does.
func InTestMode() bool {
	testModeOnce.Do(refreshTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode re-reads the environment, for callers that flip the flag
// after startup.
func RefreshTestMode() {
	refreshTestMode()
}

func refreshTestMode() {
	on, err := strconv.ParseBool(os.Getenv(testModeEnv))
	testModeFlag.Store(err == nil && on)
}
