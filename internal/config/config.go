package config

import (
	"os"

	"codeberg.org/mutker/bmcfanctl/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Fan control modes accepted by the mode setting.
const (
	ModeStandard = "standard"
	ModeOptimal  = "optimal"
	ModeHeavyIO  = "heavy_io"
	ModeManual   = "manual"
)

const (
	defaultInterval     = 5
	defaultRetryTimeout = 5
	defaultRetryCount   = -1
	defaultFanSpeed     = 30
	defaultTelemetryDB  = "/var/lib/bmcfanctl/telemetry.db"
	defaultMQTTClientID = "bmcfanctl"
	defaultMQTTPrefix   = "bmcfanctl"
)

type Config struct {
	Host     string `mapstructure:"host"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	Interval     int `mapstructure:"interval"`
	RetryTimeout int `mapstructure:"retry_timeout"`
	RetryCount   int `mapstructure:"retry_count"`

	Mode            string `mapstructure:"mode"`
	CPUSpeed        int    `mapstructure:"cpu_speed"`
	PeripheralSpeed int    `mapstructure:"peripheral_speed"`

	Monitor bool `mapstructure:"monitor"`
	Debug   bool `mapstructure:"debug"`
	Verbose bool `mapstructure:"verbose"`

	Telemetry   bool   `mapstructure:"telemetry"`
	TelemetryDB string `mapstructure:"database"`

	MQTTBroker   string `mapstructure:"mqtt_broker"`
	MQTTClientID string `mapstructure:"mqtt_client_id"`
	MQTTUsername string `mapstructure:"mqtt_username"`
	MQTTPassword string `mapstructure:"mqtt_password"`
	MQTTPrefix   string `mapstructure:"mqtt_prefix"`
}

// Load reads configuration from flags, the BMCFANCTL_CONFIG file (or
// /etc/bmcfanctl.toml), applying flag > file > default precedence.
func Load() (*Config, error) {
	errFactory := errors.New()

	flags := pflag.NewFlagSet("bmcfanctl", pflag.ContinueOnError)
	flags.String("host", "", "Address of the BMC")
	flags.String("username", "", "Username for the BMC")
	flags.String("password", "", "Password for the BMC")
	flags.Int("interval", defaultInterval, "Seconds between monitor updates")
	flags.Int("retry-timeout", defaultRetryTimeout, "Seconds between connection probe retries")
	flags.Int("retry-count", defaultRetryCount, "Probe retries before giving up (negative: unlimited)")
	flags.String("mode", ModeManual, "Fan control mode (standard, optimal, heavy_io, manual)")
	flags.Int("cpu-speed", defaultFanSpeed, "Fan speed for the CPU zone")
	flags.Int("peripheral-speed", defaultFanSpeed, "Fan speed for the peripheral zone")
	flags.Bool("monitor", false, "Keep polling and logging temperatures")
	flags.Bool("debug", false, "Enable debugging mode")
	flags.Bool("verbose", false, "Enable verbose logging")
	flags.Bool("telemetry", false, "Persist readings to the telemetry database")
	flags.String("database", defaultTelemetryDB, "Path to the telemetry database")
	flags.String("mqtt-broker", "", "MQTT broker URL (empty: publishing disabled)")
	flags.String("mqtt-client-id", defaultMQTTClientID, "MQTT client ID")
	flags.String("mqtt-username", "", "MQTT username")
	flags.String("mqtt-password", "", "MQTT password")
	flags.String("mqtt-prefix", defaultMQTTPrefix, "MQTT topic prefix")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	bindings := map[string]string{
		"host":             "host",
		"username":         "username",
		"password":         "password",
		"interval":         "interval",
		"retry_timeout":    "retry-timeout",
		"retry_count":      "retry-count",
		"mode":             "mode",
		"cpu_speed":        "cpu-speed",
		"peripheral_speed": "peripheral-speed",
		"monitor":          "monitor",
		"debug":            "debug",
		"verbose":          "verbose",
		"telemetry":        "telemetry",
		"database":         "database",
		"mqtt_broker":      "mqtt-broker",
		"mqtt_client_id":   "mqtt-client-id",
		"mqtt_username":    "mqtt-username",
		"mqtt_password":    "mqtt-password",
		"mqtt_prefix":      "mqtt-prefix",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	if path := os.Getenv("BMCFANCTL_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	} else {
		v.SetConfigName("bmcfanctl")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errFactory.Wrap(errors.ErrReadConfig, err)
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}

	if c.RetryTimeout <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "retry_timeout must be positive")
	}

	switch c.Mode {
	case ModeStandard, ModeOptimal, ModeHeavyIO, ModeManual:
	default:
		return errFactory.WithData(errors.ErrInvalidConfig, "unknown mode: "+c.Mode)
	}

	if c.CPUSpeed < 0 || c.CPUSpeed > 100 || c.PeripheralSpeed < 0 || c.PeripheralSpeed > 100 {
		return errFactory.WithData(errors.ErrInvalidConfig, "fan speeds must be within 0-100")
	}

	if c.Telemetry && c.TelemetryDB == "" {
		return errFactory.WithData(errors.ErrInvalidConfig, "telemetry enabled without a database path")
	}

	return nil
}
