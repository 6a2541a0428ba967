package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTestModeAcceptsBoolSpellings(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "t"} {
		t.Setenv(testModeEnv, v)
		RefreshTestMode()
		assert.True(t, InTestMode(), "value %q", v)
	}
	for _, v := range []string{"", "0", "false", "yes"} {
		t.Setenv(testModeEnv, v)
		RefreshTestMode()
		assert.False(t, InTestMode(), "value %q", v)
	}
}
