// Package config provides environment configuration for the rover agent.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"

	"github.com/teslashibe/go-rover/pkg/motor"
)

// Transport selects how the agent reaches its controller.
const (
	TransportWebSocket = "websocket"
	TransportMQTT      = "mqtt"
)

// Config holds the rover agent configuration, parsed from the environment.
type Config struct {
	// Identity and link
	RobotID    string `env:"ROVER_ID"`
	Transport  string `env:"ROVER_TRANSPORT" envDefault:"websocket"`
	GatewayURL string `env:"ROVER_GATEWAY_URL" envDefault:"ws://localhost:8080/ws/robot"`

	// MQTT transport
	MQTTBroker string `env:"ROVER_MQTT_BROKER" envDefault:"mqtt://localhost:1883"`
	MQTTPrefix string `env:"ROVER_MQTT_PREFIX" envDefault:"rover"`

	// Control loop
	PollInterval   time.Duration `env:"ROVER_POLL_INTERVAL" envDefault:"20ms"`
	StatusInterval time.Duration `env:"ROVER_STATUS_INTERVAL" envDefault:"1s"`

	// Hardware
	DummyMotors   bool   `env:"ROVER_DUMMY_MOTORS"`
	PinLeftFwd    string `env:"ROVER_PIN_LEFT_FWD" envDefault:"GPIO2"`
	PinLeftBwd    string `env:"ROVER_PIN_LEFT_BWD" envDefault:"GPIO4"`
	PinRightFwd   string `env:"ROVER_PIN_RIGHT_FWD" envDefault:"GPIO16"`
	PinRightBwd   string `env:"ROVER_PIN_RIGHT_BWD" envDefault:"GPIO17"`
	PinLeftPWM    string `env:"ROVER_PIN_LEFT_PWM" envDefault:"GPIO5"`
	PinRightPWM   string `env:"ROVER_PIN_RIGHT_PWM" envDefault:"GPIO18"`
	BatteryBus    string `env:"ROVER_BATTERY_I2C_BUS"` // empty disables the sensor
	BatteryAddr   uint16 `env:"ROVER_BATTERY_I2C_ADDR" envDefault:"65"`
	DashboardPort string `env:"ROVER_DASHBOARD_PORT"` // empty disables the dashboard

	LogLevel string `env:"ROVER_LOG_LEVEL" envDefault:"info"`
}

// Load parses the configuration from the environment and fills defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.RobotID == "" {
		cfg.RobotID = "rover-" + uuid.NewString()[:8]
	}
	switch cfg.Transport {
	case TransportWebSocket, TransportMQTT:
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
	return cfg, nil
}

// Pins returns the configured motor pin assignment.
func (c *Config) Pins() motor.Pins {
	return motor.Pins{
		LeftForward:   c.PinLeftFwd,
		LeftBackward:  c.PinLeftBwd,
		RightForward:  c.PinRightFwd,
		RightBackward: c.PinRightBwd,
		LeftPWM:       c.PinLeftPWM,
		RightPWM:      c.PinRightPWM,
	}
}
