package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	conf, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0", conf.ListenAddress)
	require.Equal(t, 20016, conf.LoginPort)
	require.Equal(t, 20017, conf.BasePort)
	require.Equal(t, 60, conf.HandoffTTLSeconds)
	require.Equal(t, uint8(10), conf.UpdateFrequency)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usher.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"listen_address": "10.0.0.1",
		"login_port": 30016,
		"message_of_the_day": "welcome"
	}`), 0644))

	conf, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "10.0.0.1", conf.ListenAddress)
	require.Equal(t, 30016, conf.LoginPort)
	require.Equal(t, "welcome", conf.MessageOfTheDay)
	// untouched fields keep their defaults
	require.Equal(t, 20017, conf.BasePort)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usher.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"login_port": 30016}`), 0644))

	t.Setenv("USHER_LOGIN_PORT", "40016")
	t.Setenv("USHER_HANDOFF_TTL_SECONDS", "120")

	conf, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 40016, conf.LoginPort)
	require.Equal(t, 120, conf.HandoffTTLSeconds)
}

func TestLoadConfigRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usher.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}
