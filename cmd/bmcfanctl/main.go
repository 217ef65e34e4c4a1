package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/bmcfanctl/internal/config"
	"codeberg.org/mutker/bmcfanctl/internal/ipmi"
	"codeberg.org/mutker/bmcfanctl/internal/logger"
	"codeberg.org/mutker/bmcfanctl/internal/mqtt"
	"codeberg.org/mutker/bmcfanctl/internal/telemetry"
)

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.Debug().Msg("Config loaded")

	if cfg.Host == "" {
		logger.Fatal().Msg("No BMC host configured")
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := run(ctx); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
		os.Exit(1)
	}
	logger.Info().Msg("Exiting...")
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func run(ctx context.Context) error {
	log := logger.Default()

	transport := ipmi.NewIPMIToolTransport(log)
	establisher := ipmi.NewEstablisher(
		transport,
		time.Duration(cfg.RetryTimeout)*time.Second,
		cfg.RetryCount,
		log,
	)

	channel, err := establisher.Establish(cfg.Host, ipmi.Credentials{
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return err
	}

	fans := ipmi.NewFanController(channel, log)

	mode, err := fans.GetMode()
	if err != nil {
		return err
	}
	logger.Info().Str("mode", mode.String()).Msg("Current fan mode")

	if err := applyFanControl(fans); err != nil {
		return err
	}

	if !cfg.Monitor {
		return nil
	}

	var collector telemetry.Collector
	if cfg.Telemetry {
		collector, err = telemetry.NewService(telemetry.Config{DBPath: cfg.TelemetryDB}, log)
		if err != nil {
			return err
		}
		defer collector.Close()
	}

	var publisher *mqtt.Publisher
	if cfg.MQTTBroker != "" {
		publisher = mqtt.NewPublisher(mqtt.Config{
			Broker:      cfg.MQTTBroker,
			ClientID:    cfg.MQTTClientID,
			Username:    cfg.MQTTUsername,
			Password:    cfg.MQTTPassword,
			TopicPrefix: cfg.MQTTPrefix,
		}, log)
		if err := publisher.Connect(); err != nil {
			return err
		}
		defer publisher.Close()
	}

	inventory := ipmi.NewInventory(channel, log)

	return loop(ctx, fans, inventory, collector, publisher)
}

func applyFanControl(fans *ipmi.FanController) error {
	switch cfg.Mode {
	case config.ModeStandard:
		return fans.SetMode(ipmi.FanModeStandard)
	case config.ModeOptimal:
		return fans.SetMode(ipmi.FanModeOptimal)
	case config.ModeHeavyIO:
		return fans.SetMode(ipmi.FanModeHeavyIO)
	case config.ModeManual:
		_, err := fans.SetSpeeds([]ipmi.ZoneSpeed{
			{Zone: ipmi.ZoneCPU, Speed: byte(cfg.CPUSpeed)},
			{Zone: ipmi.ZonePeripheral, Speed: byte(cfg.PeripheralSpeed)},
		})
		return err
	}

	return nil
}

func loop(
	ctx context.Context,
	fans *ipmi.FanController,
	inventory *ipmi.Inventory,
	collector telemetry.Collector,
	publisher *mqtt.Publisher,
) error {
	interval := time.Duration(cfg.Interval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().Msg("Monitor mode activated. Logging BMC temperatures...")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := observe(ctx, fans, inventory, collector, publisher); err != nil {
				return err
			}
		}
	}
}

func observe(
	ctx context.Context,
	fans *ipmi.FanController,
	inventory *ipmi.Inventory,
	collector telemetry.Collector,
	publisher *mqtt.Publisher,
) error {
	readings, err := inventory.Collect()
	if err != nil {
		return err
	}

	mode, err := fans.GetMode()
	if err != nil {
		return err
	}

	for name, reading := range readings {
		event := logger.Info().Str("sensor", name)
		if reading.Valid {
			event.Uint8("temperature", reading.Value).Msg("")
		} else {
			event.Bool("no_data", true).Msg("")
		}
	}

	if collector != nil {
		snapshot := &telemetry.Snapshot{
			Timestamp:       time.Now(),
			FanMode:         mode.String(),
			CPUSpeed:        cfg.CPUSpeed,
			PeripheralSpeed: cfg.PeripheralSpeed,
			Readings:        toSensorValues(readings),
		}
		if err := collector.Record(ctx, snapshot); err != nil {
			logger.Error().Err(err).Msg("failed to record telemetry")
		}
	}

	if publisher != nil {
		if err := publisher.PublishReadings(readings); err != nil {
			logger.Error().Err(err).Msg("failed to publish readings")
		}
		if err := publisher.PublishFanMode(mode); err != nil {
			logger.Error().Err(err).Msg("failed to publish fan mode")
		}
	}

	return nil
}

func toSensorValues(readings map[string]ipmi.Reading) map[string]telemetry.SensorValue {
	values := make(map[string]telemetry.SensorValue, len(readings))
	for name, reading := range readings {
		values[name] = telemetry.SensorValue{
			Value: int(reading.Value),
			Valid: reading.Valid,
		}
	}

	return values
}
