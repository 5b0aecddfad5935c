package telemetry

import (
	"context"
	"testing"

	"github.com/hotelbook/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_DisabledIsNoop(t *testing.T) {
	cfg := config.TelemetryConfig{ServiceName: "hotelbook"}
	assert.False(t, Enabled(cfg))

	shutdown, err := Init(context.Background(), cfg, "test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestEndpointHost(t *testing.T) {
	assert.Equal(t, "collector:4317", endpointHost("http://collector:4317/"))
	assert.Equal(t, "collector:4317", endpointHost("https://collector:4317"))
	assert.Equal(t, "collector:4317", endpointHost(" collector:4317 "))
}
