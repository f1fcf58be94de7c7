package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvDefaults(t *testing.T) {
	assert.Equal(t, "fallback", getEnv("NO_SUCH_VAR_XYZ", "fallback"))

	t.Setenv("SOME_TEST_VAR", "value")
	assert.Equal(t, "value", getEnv("SOME_TEST_VAR", "fallback"))
}

func TestGetInt(t *testing.T) {
	assert.Equal(t, 42, getInt("NO_SUCH_VAR_XYZ", 42))

	t.Setenv("SOME_INT_VAR", "8192")
	assert.Equal(t, 8192, getInt("SOME_INT_VAR", 42))

	t.Setenv("SOME_BAD_INT_VAR", "not-a-number")
	assert.Equal(t, 42, getInt("SOME_BAD_INT_VAR", 42))
}

func TestGetBool(t *testing.T) {
	assert.False(t, getBool("NO_SUCH_VAR_XYZ", false))
	assert.True(t, getBool("NO_SUCH_VAR_XYZ", true))

	t.Setenv("SOME_BOOL_VAR", "true")
	assert.True(t, getBool("SOME_BOOL_VAR", false))

	t.Setenv("SOME_BOOL_VAR", "1")
	assert.True(t, getBool("SOME_BOOL_VAR", false))

	t.Setenv("SOME_BOOL_VAR", "no")
	assert.False(t, getBool("SOME_BOOL_VAR", true))
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 5*time.Minute, getDuration("NO_SUCH_VAR_XYZ", 5*time.Minute))

	t.Setenv("SOME_DUR_VAR", "30s")
	assert.Equal(t, 30*time.Second, getDuration("SOME_DUR_VAR", time.Minute))

	// 단위 없는 숫자는 초로 해석
	t.Setenv("SOME_DUR_VAR", "90")
	assert.Equal(t, 90*time.Second, getDuration("SOME_DUR_VAR", time.Minute))

	t.Setenv("SOME_DUR_VAR", "garbage")
	assert.Equal(t, time.Minute, getDuration("SOME_DUR_VAR", time.Minute))
}
