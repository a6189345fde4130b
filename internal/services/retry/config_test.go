package retry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_Valid(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultConfig().Validate())
}

func TestWithMaxAttempts_Overrides(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig().WithMaxAttempts(5)
	assert.Equal(t, 5, cfg.MaxAttempts)
}

func TestValidate_RejectsZeroAttempts(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig().WithMaxAttempts(0)
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNegativeBackoff(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig().WithBaseBackoffMs(-1)
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsMaxBelowBase(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig().WithBaseBackoffMs(5000)
	assert.Error(t, cfg.Validate())
}
