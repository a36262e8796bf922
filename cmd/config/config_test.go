package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tempConfig := `
general:
  log_level: info
http:
  addr: ":3000"
stepper:
  ticcmd_path: /usr/bin/ticcmd
  energize_permitted: true
axes:
  yaw:
    device: "00312345"
    steps_per_unit: 250
  pitch:
    device: "00312346"
    steps_per_unit: 180
solenoid:
  command: ["python3", "solenoid_daemon.py"]
  shoot_pulse_ms: 200
  release_pulse_ms: 500
mqtt_client:
  broker: "tcp://localhost:1883"
  client_id: turret_server_local
  topic_prefix: turret
database:
  dsn: "file:turret.db"
poller:
  schedule: "@every 5s"
`

	require.NoError(t, os.MkdirAll("config", 0755))
	require.NoError(t, os.WriteFile("config/server_test.yaml", []byte(tempConfig), 0644))
	defer os.Remove("config/server_test.yaml")

	viper.SetConfigName("server_test")
	defer viper.SetConfigName("server")

	config := LoadConfig()

	assert.Equal(t, "info", config.General.LogLevel)
	assert.Equal(t, ":3000", config.HTTP.Addr)
	assert.Equal(t, "/usr/bin/ticcmd", config.Stepper.TiccmdPath)
	assert.True(t, config.Stepper.EnergizePermitted)
	require.Len(t, config.Stepper.Axes, 2)
	assert.Equal(t, "00312345", config.Stepper.Axes["yaw"].Device)
	assert.Equal(t, 250.0, config.Stepper.Axes["yaw"].StepsPerUnit)
	assert.Equal(t, []string{"python3", "solenoid_daemon.py"}, config.Solenoid.Command)
	assert.Equal(t, 200, config.Solenoid.ShootPulseMs)
	assert.Equal(t, 500, config.Solenoid.ReleasePulseMs)
	assert.Equal(t, "turret", config.MQTTClient.TopicPrefix)
	assert.Equal(t, "@every 5s", config.Poller.Schedule)
}
