package mqtt

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uwb-nav-bridge/internal/config"
)

func testMQTTConfig() *config.MQTTConfig {
	return &config.MQTTConfig{
		Host:                 "localhost",
		Port:                 1883,
		ClientID:             "test-client",
		BaseTopic:            "uwb",
		QoS:                  1,
		KeepAlive:            60,
		MaxReconnectInterval: 10 * time.Second,
	}
}

// The connection flag is flipped from paho's callback goroutines while the
// publishing goroutine polls IsConnected, so both sides must be safe to run
// concurrently.
func TestClientConnectionFlagIsConcurrencySafe(t *testing.T) {
	client, err := NewClient(testMQTTConfig(), zerolog.Nop())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				client.onConnect(client.client)
				client.onConnectionLost(client.client, assert.AnError)
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = client.IsConnected()
			}
		}()
	}
	wg.Wait()

	client.onConnectionLost(client.client, assert.AnError)
	assert.False(t, client.IsConnected())
}

func TestClientPublishRequiresConnection(t *testing.T) {
	client, err := NewClient(testMQTTConfig(), zerolog.Nop())
	require.NoError(t, err)

	err = client.Publish("uwb/v1/distance", []byte("{}"), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}
