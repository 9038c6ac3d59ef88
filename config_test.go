package witch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewConfig()
	assert.True(t, cfg.AllowSpeculativeFnLiterals)
	assert.Equal(t, 256, cfg.VMStackInitialCapacity)
	assert.False(t, cfg.VMTrace)
}

func TestConfig_FieldsAreIndependentlyOverridable(t *testing.T) {
	cfg := NewConfig()
	cfg.VMTrace = true
	assert.True(t, cfg.VMTrace)

	cfg.VMStackInitialCapacity = 1024
	assert.Equal(t, 1024, cfg.VMStackInitialCapacity)

	assert.True(t, cfg.AllowSpeculativeFnLiterals, "overriding one setting must not disturb the others")
}
