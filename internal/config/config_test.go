package config

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("UWB_DEVICE", "/dev/ttyS2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyS2", cfg.Serial.Device)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)

	assert.Equal(t, uuid.UUID{}, cfg.Driver.GridUUID)
	assert.Equal(t, uint8(0x01), cfg.Driver.GridSurveyOpcode)
	assert.False(t, cfg.Driver.PublishNavPosition)
	assert.Equal(t, 10*time.Second, cfg.Driver.MessageTimeout)
	assert.Equal(t, 5*time.Millisecond, cfg.Driver.ByteTimeout)

	assert.Equal(t, "uwb", cfg.MQTT.BaseTopic)
	assert.False(t, cfg.InfluxDB.Enabled)
	assert.False(t, cfg.Postgres.Enabled)
}

func TestLoadRequiresDevice(t *testing.T) {
	t.Setenv("UWB_DEVICE", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UWB_DEVICE")
}

func TestLoadParsesGridUUID(t *testing.T) {
	t.Setenv("UWB_DEVICE", "/dev/ttyS2")
	t.Setenv("UWB_GRID_UUID", "00112233-4455-6677-8899-aabbccddeeff")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff"), cfg.Driver.GridUUID)
}

func TestLoadRejectsBadGridUUID(t *testing.T) {
	t.Setenv("UWB_DEVICE", "/dev/ttyS2")
	t.Setenv("UWB_GRID_UUID", "not-a-uuid")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UWB_GRID_UUID")
}

func TestLoadRejectsInvertedTimeouts(t *testing.T) {
	t.Setenv("UWB_DEVICE", "/dev/ttyS2")
	t.Setenv("UWB_BYTE_TIMEOUT", "10s")
	t.Setenv("UWB_MESSAGE_TIMEOUT", "5ms")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UWB_BYTE_TIMEOUT")
}

func TestLoadRequiresInfluxTokenWhenEnabled(t *testing.T) {
	t.Setenv("UWB_DEVICE", "/dev/ttyS2")
	t.Setenv("INFLUXDB_ENABLED", "true")
	t.Setenv("INFLUXDB_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INFLUXDB_TOKEN")
}

func TestLoadTrimsBaseTopicSlash(t *testing.T) {
	t.Setenv("UWB_DEVICE", "/dev/ttyS2")
	t.Setenv("MQTT_BASE_TOPIC", "uwb/ranging/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "uwb/ranging", cfg.MQTT.BaseTopic)
}
