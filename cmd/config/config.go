package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

var loadConfigOnce sync.Once
var configInstance AppConfig
var extraConfigPaths []string

// AddConfigPath prepends a search directory for server.yaml. It must be
// called before the first LoadConfig.
func AddConfigPath(path string) {
	extraConfigPaths = append(extraConfigPaths, path)
}

func LoadConfig() AppConfig {
	loadConfigOnce.Do(func() {
		viper.SetEnvPrefix("turret_server")
		viper.AutomaticEnv()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.SetConfigName("server")
		for _, path := range extraConfigPaths {
			viper.AddConfigPath(path)
		}
		viper.AddConfigPath("config")
		viper.AddConfigPath("/config")
		if err := viper.ReadInConfig(); err != nil {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
		configInstance = AppConfig{
			General: GeneralConfig{
				LogLevel: viper.GetString("general.log_level"),
			},
			HTTP: HTTPConfig{
				Addr: viper.GetString("http.addr"),
			},
			Stepper: StepperConfig{
				TiccmdPath:        viper.GetString("stepper.ticcmd_path"),
				EnergizePermitted: viper.GetBool("stepper.energize_permitted"),
				Axes:              loadAxes(),
			},
			Solenoid: SolenoidConfig{
				Command:        viper.GetStringSlice("solenoid.command"),
				ShootPulseMs:   viper.GetInt("solenoid.shoot_pulse_ms"),
				ReleasePulseMs: viper.GetInt("solenoid.release_pulse_ms"),
			},
			MQTTClient: MQTTClientConfig{
				Broker:      viper.GetString("mqtt_client.broker"),
				ClientID:    viper.GetString("mqtt_client.client_id"),
				Username:    viper.GetString("mqtt_client.username"),
				Password:    viper.GetString("mqtt_client.password"),
				TopicPrefix: viper.GetString("mqtt_client.topic_prefix"),
			},
			Database: DatabaseConfig{
				DSN: viper.GetString("database.dsn"),
			},
			Poller: PollerConfig{
				Schedule: viper.GetString("poller.schedule"),
			},
		}
	})

	return configInstance
}

func loadAxes() map[string]AxisConfig {
	axes := make(map[string]AxisConfig)
	for name := range viper.GetStringMap("axes") {
		axes[name] = AxisConfig{
			Device:       viper.GetString(fmt.Sprintf("axes.%s.device", name)),
			StepsPerUnit: viper.GetFloat64(fmt.Sprintf("axes.%s.steps_per_unit", name)),
		}
	}
	return axes
}

type AppConfig struct {
	General    GeneralConfig
	HTTP       HTTPConfig
	Stepper    StepperConfig
	Solenoid   SolenoidConfig
	MQTTClient MQTTClientConfig
	Database   DatabaseConfig
	Poller     PollerConfig
}

type GeneralConfig struct {
	LogLevel string
}

type HTTPConfig struct {
	Addr string
}

// StepperConfig describes the ticcmd invocation and the configured axes.
// EnergizePermitted is the global hardware-safety gate: axis enable is
// rejected unless it is set.
type StepperConfig struct {
	TiccmdPath        string
	EnergizePermitted bool
	Axes              map[string]AxisConfig
}

type AxisConfig struct {
	Device       string
	StepsPerUnit float64
}

// SolenoidConfig describes how the solenoid daemon is launched and the
// default pulse durations used when a request carries neither an "on"
// state nor an explicit duration.
type SolenoidConfig struct {
	Command        []string
	ShootPulseMs   int
	ReleasePulseMs int
}

type MQTTClientConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

type DatabaseConfig struct {
	DSN string
}

type PollerConfig struct {
	Schedule string
}
