package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfigDefaults(t *testing.T) {
	require.NoError(t, InitConfig(""))
	assert.Equal(t, 8080, Config.Port)
	assert.Equal(t, 8082, Config.FlightSQLPort)
	assert.Equal(t, "./data", Config.DataDir)
	assert.False(t, Config.DisableFlightSQL)
}

func TestInitConfigEnvOverride(t *testing.T) {
	t.Setenv("SEARCHLENS_PORT", "9090")
	require.NoError(t, InitConfig(""))
	assert.Equal(t, 9090, Config.Port)
}

func TestDataRootEnvWins(t *testing.T) {
	require.NoError(t, InitConfig(""))
	t.Setenv("DATA_DIR", "/mnt/exports")
	assert.Equal(t, "/mnt/exports", DataRoot())
}

func TestInitConfigMissingFile(t *testing.T) {
	assert.Error(t, InitConfig("/does/not/exist.yaml"))
}
