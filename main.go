package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.bug.st/serial"

	"i4.energy/across/fakeril/modem"
	"i4.energy/across/fakeril/settings"
)

// serialRetryInterval is the pause before the serial port is reopened
const serialRetryInterval = 2 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to a YAML configuration file")
	flag.String("serial-port", "", "Serial port or pty to serve RIL frames on (disabled when empty)")
	flag.Int("baud-rate", 115200, "Baud rate for the serial port")
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("db-path", "data/fakeril.db", "Settings database file")
	flag.Int("slot", 0, "Simulated SIM slot")
	flag.Uint64("seed", 0, "Seed of the simulated signal strength")
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithFile(*configPath), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	store, err := settings.Open(config.DBPath)
	if err != nil {
		logger.Error("Failed to open settings", "error", err, "path", config.DBPath)
		os.Exit(1)
	}
	defer store.Close()

	inserted, err := store.CardInserted(context.Background(), config.Device.Slot)
	if err != nil {
		logger.Warn("Failed to read card presence, inserting the card", "error", err)
	}

	builder := modem.NewConfigBuilder().
		WithProfile(config.Device).
		WithLogger(logger).
		WithSeed(config.Seed).
		WithCardPresent(inserted)
	if config.SerialPort != "" {
		builder = builder.WithDialer(modem.SerialDialer{
			PortName: config.SerialPort,
			Mode: &serial.Mode{
				BaudRate: config.BaudRate,
				Parity:   serial.NoParity,
				DataBits: 8,
				StopBits: serial.OneStopBit,
			},
		})
	}

	modemConfig, err := builder.Build()
	if err != nil {
		logger.Error("Failed to create modem config", "error", err)
		os.Exit(1)
	}

	m, err := modem.New(modemConfig)
	if err != nil {
		logger.Error("Failed to create modem", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := m.Loop(ctx); err != nil && !errors.Is(err, context.Canceled) && err != modem.ErrAlreadyClosed {
			logger.Error("Modem loop stopped", "error", err)
		}
	}()

	if config.SerialPort != "" {
		go serveSerial(ctx, logger, m, config.SerialPort)
	}

	logger.Info("Starting RIL simulator", "slot", modemConfig.Profile.Slot, "card_inserted", inserted)

	httpServer := &http.Server{
		Addr:    config.BindAddress,
		Handler: NewServer(logger.With("component", "server"), m, store, modemConfig.Profile.Slot),
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Info("Closing HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to gracefully shutdown server", "error", err)
	}

	logger.Info("Closing modem")
	cancel()
	if err := m.Close(); err != nil {
		logger.Error("Failed to close modem", "error", err)
	}
}

// serveSerial serves the serial port until ctx is done, reopening it when
// the line fails.
func serveSerial(ctx context.Context, logger *slog.Logger, m *modem.Modem, port string) {
	for {
		err := m.ServeDialer(ctx)
		if ctx.Err() != nil || err == modem.ErrAlreadyClosed {
			return
		}
		logger.Warn("Serial transport stopped, reopening", "error", err, "port", port)

		select {
		case <-ctx.Done():
			return
		case <-time.After(serialRetryInterval):
		}
	}
}
