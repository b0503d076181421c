// rover: on-robot motion agent
// Connects to a gateway (WebSocket) or broker (MQTT), executes motion
// commands on the drive motors, and reports status.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-rover/internal/config"
	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/battery"
	"github.com/teslashibe/go-rover/pkg/control"
	"github.com/teslashibe/go-rover/pkg/link"
	"github.com/teslashibe/go-rover/pkg/motion"
	"github.com/teslashibe/go-rover/pkg/motor"
	"github.com/teslashibe/go-rover/pkg/protocol"
	"github.com/teslashibe/go-rover/pkg/web"
)

var version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.LogLevel)

	fmt.Println()
	fmt.Println("🤖 Rover Agent v" + version)
	fmt.Println("   ID: " + cfg.RobotID)
	fmt.Println()

	driver, err := buildDriver(cfg)
	if err != nil {
		log.Error("motor driver init failed", "error", err)
		os.Exit(1)
	}

	sensor := buildBattery(cfg)

	ctrl := motion.NewController(driver)
	dispatcher := control.NewDispatcher(ctrl, sensor)

	// Local dashboard, if enabled
	var dash *web.Server
	if cfg.DashboardPort != "" {
		dash = web.NewServer(cfg.DashboardPort)
		dash.StartAsync()
	}

	var transport link.Transport
	handler := func(msg *protocol.Message) {
		if dash != nil && msg.Type == protocol.TypeRobotControl {
			if cmd, err := msg.ControlCommand(); err == nil {
				dash.AddLog("command", fmt.Sprintf("%s %s", cmd.Action, cmd.Direction))
			}
		}
		if reply := dispatcher.Dispatch(msg); reply != nil {
			if err := transport.Send(reply); err != nil {
				log.Warn("failed to send reply", "error", err)
			}
		}
	}

	switch cfg.Transport {
	case config.TransportMQTT:
		transport = link.NewMQTT(cfg.MQTTBroker, cfg.MQTTPrefix, cfg.RobotID, handler)
	default:
		transport = link.NewWSClient(cfg.GatewayURL+"/"+cfg.RobotID, handler)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Movement poll loop, the only place timed moves terminate
	go ctrl.Run(ctx, cfg.PollInterval)

	// Periodic status reports
	go reportStatus(ctx, cfg, dispatcher, transport, dash)

	if err := transport.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("transport error", "error", err)
	}

	// Run already coasts the motors on shutdown; Stop is idempotent
	ctrl.Stop()
	log.Info("rover agent stopped")
}

// buildDriver selects the GPIO driver or the logging dummy.
func buildDriver(cfg *config.Config) (motor.Driver, error) {
	if cfg.DummyMotors {
		log.Info("using dummy motor driver")
		return motor.Dummy(), nil
	}
	return motor.NewGPIO(cfg.Pins())
}

// buildBattery opens the INA219 sensor when a bus is configured.
// Falls back to a fixed 100% reading so status reports stay well-formed.
func buildBattery(cfg *config.Config) battery.Sensor {
	if cfg.BatteryBus == "" {
		return battery.Fixed(100)
	}
	sensor, err := battery.NewINA219(cfg.BatteryBus, cfg.BatteryAddr)
	if err != nil {
		log.Warn("battery sensor unavailable", "bus", cfg.BatteryBus, "error", err)
		return battery.Fixed(100)
	}
	log.Info("battery sensor online", "bus", cfg.BatteryBus, "addr", cfg.BatteryAddr)
	return sensor
}

// reportStatus publishes a status message at the configured interval.
func reportStatus(ctx context.Context, cfg *config.Config, dispatcher *control.Dispatcher, transport link.Transport, dash *web.Server) {
	ticker := time.NewTicker(cfg.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msg := dispatcher.Status()
			if msg == nil {
				continue
			}
			if err := transport.Send(msg); err != nil {
				log.Debug("status report dropped", "error", err)
			}
			if dash != nil {
				if status, err := msg.StatusData(); err == nil {
					dash.UpdateRover(cfg.RobotID, status)
				}
			}
		}
	}
}
