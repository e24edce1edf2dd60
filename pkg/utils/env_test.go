package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseWithFallback(t *testing.T) {
	t.Run("set variable wins", func(t *testing.T) {
		t.Setenv("FLASH_SALE_TEST_ENV", "from-env")
		require.Equal(t, "from-env", ParseWithFallback("FLASH_SALE_TEST_ENV", "fallback"))
	})

	t.Run("empty variable falls back", func(t *testing.T) {
		t.Setenv("FLASH_SALE_TEST_ENV", "")
		require.Equal(t, "fallback", ParseWithFallback("FLASH_SALE_TEST_ENV", "fallback"))
	})

	t.Run("unset variable falls back", func(t *testing.T) {
		require.Equal(t, "fallback", ParseWithFallback("FLASH_SALE_TEST_ENV_UNSET", "fallback"))
	})
}
