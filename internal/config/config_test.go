package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckMQTTTopic(t *testing.T) {
	topic, err := CheckMQTTTopic("solarmanager")
	require.NoError(t, err)
	assert.Equal(t, "solarmanager", topic)

	topic, err = CheckMQTTTopic("SolarManager_2")
	require.NoError(t, err)
	assert.Equal(t, "solarmanager_2", topic, "topic must be lowercased")

	_, err = CheckMQTTTopic("solar/manager")
	require.Error(t, err)

	_, err = CheckMQTTTopic("")
	require.Error(t, err)
}

func TestMeteoConfigEnabled(t *testing.T) {
	assert.False(t, MeteoConfig{}.Enabled())
	assert.False(t, MeteoConfig{ClientId: "id"}.Enabled())
	assert.True(t, MeteoConfig{ClientId: "id", ClientSecret: "secret"}.Enabled())
}
