package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejectsBadPort(t *testing.T) {
	c := Default()
	c.Port = 0
	var cfgErr *ConfigError
	require.ErrorAs(t, c.Validate(), &cfgErr)
	require.Equal(t, "Port", cfgErr.Field)
}

func TestValidateRequiresUserFileWhenAuthRequired(t *testing.T) {
	c := Default()
	c.AuthRequired = true
	c.UserFile = ""
	require.Error(t, c.Validate())

	c.UserFile = "users.txt"
	require.NoError(t, c.Validate())
}

func TestValidateRejectsNonPositiveDimensions(t *testing.T) {
	c := Default()
	c.ScreenWidth = 0
	require.Error(t, c.Validate())
}

func TestValidateRejectsFrameRateOutOfRange(t *testing.T) {
	c := Default()
	c.FrameRate = 0
	var cfgErr *ConfigError
	require.ErrorAs(t, c.Validate(), &cfgErr)
	require.Equal(t, "FrameRate", cfgErr.Field)

	c.FrameRate = 10000
	require.Error(t, c.Validate())

	c.FrameRate = 60
	require.NoError(t, c.Validate())
}
