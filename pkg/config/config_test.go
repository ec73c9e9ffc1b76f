package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("CFG_TEST_STR", "value")
	t.Setenv("CFG_TEST_INT", "42")
	t.Setenv("CFG_TEST_BAD_INT", "x")
	t.Setenv("CFG_TEST_BOOL", "true")
	t.Setenv("CFG_TEST_DUR", "15m")
	t.Setenv("CFG_TEST_BAD_DUR", "soon")

	assert.Equal(t, "value", EnvDefault("CFG_TEST_STR", "def"))
	assert.Equal(t, "def", EnvDefault("CFG_TEST_MISSING", "def"))
	assert.Equal(t, 42, EnvIntDefault("CFG_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("CFG_TEST_BAD_INT", 1))
	assert.True(t, EnvBoolDefault("CFG_TEST_BOOL", false))
	assert.Equal(t, 15*time.Minute, EnvDurationDefault("CFG_TEST_DUR", time.Hour))
	assert.Equal(t, time.Hour, EnvDurationDefault("CFG_TEST_BAD_DUR", time.Hour))
}
