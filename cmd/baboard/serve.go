package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"baboard/internal/alert"
	"baboard/internal/board"
	"baboard/internal/config"
	"baboard/internal/monitor"
	"baboard/internal/server"
	"baboard/internal/store"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logFile    string
	dbPath     string
	host       string
	port       int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the control board server",
	Long: `Start the HTTP console server and the monitoring loop.

The monitor refreshes the board view every display tick and runs the
whistle/overdue alert sweep on a slower interval.`,
	RunE: runServe,
}

func init() {
	// Pick up BABOARD_* settings from a local .env before the flags read
	// their env defaults.
	_ = godotenv.Load()

	serveCmd.Flags().StringVarP(&configFile, "config", "c", getEnvOrDefault("BABOARD_CONFIG_FILE", ""), "Path to baboard.yaml configuration file")
	serveCmd.Flags().StringVar(&logFile, "log", getEnvOrDefault("BABOARD_LOG_FILE", "./baboard.log"), "Path to log file")
	serveCmd.Flags().StringVar(&dbPath, "db", getEnvOrDefault("BABOARD_DB_PATH", "./baboard.db"), "Path to SQLite database")
	serveCmd.Flags().StringVar(&host, "host", getEnvOrDefault("BABOARD_HOST", ""), "Host to bind to (overrides config)")
	serveCmd.Flags().IntVarP(&port, "port", "p", getEnvOrDefaultInt("BABOARD_PORT", 0), "Port to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration: explicit flag, default locations, or built-in
	// defaults when no file exists.
	cfg, err := loadServeConfig()
	if err != nil {
		return err
	}
	// Flags and BABOARD_* env vars override the config file.
	if host != "" {
		cfg.Listen.Host = host
	}
	if port != 0 {
		cfg.Listen.Port = port
	}
	if cfg.DBPath != "" && !cmd.Flags().Changed("db") && os.Getenv("BABOARD_DB_PATH") == "" {
		dbPath = cfg.DBPath
	}
	if cfg.LogFile != "" && !cmd.Flags().Changed("log") && os.Getenv("BABOARD_LOG_FILE") == "" {
		logFile = cfg.LogFile
	}

	logger, logFileHandle, err := setupLogging(logFile)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logFileHandle.Close()

	logger.Info("Starting baboard")

	logger.Info("Opening board database", "db", dbPath)
	st, err := store.Open(dbPath)
	if err != nil {
		logger.Error("Failed to open board database", "error", err)
		return fmt.Errorf("failed to open board database: %w", err)
	}
	defer st.Close()

	// Reload persisted collections. A malformed collection degrades to
	// empty; startup never fails on corrupt board state.
	ctx := context.Background()
	active, err := st.LoadActive(ctx)
	if err != nil {
		logger.Warn("Active entries unreadable, starting with empty set", "error", err)
		active = nil
	}
	staged, err := st.LoadStaged(ctx)
	if err != nil {
		logger.Warn("Staged entries unreadable, starting with empty set", "error", err)
		staged = nil
	}

	b := board.NewFromState(active, staged)
	logger.Info("Board state loaded", "active", len(active), "staged", len(staged))

	disp := alert.NewDispatcher(logger, buildNotifiers(cfg, logger)...)
	mon := monitor.New(b, disp,
		time.Duration(cfg.Ticks.DisplaySeconds)*time.Second,
		time.Duration(cfg.Ticks.AlertSeconds)*time.Second,
		logger)

	// SIGINT/SIGTERM cancels the context, which stops the monitor and
	// drains the HTTP server. Returning normally lets the deferred store
	// and log-file closes run.
	runCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	go mon.Run(runCtx)

	srv := server.NewServer(b, st, mon, disp, logger)

	logger.Info("Starting HTTP server", "host", cfg.Listen.Host, "port", cfg.Listen.Port)
	if err := srv.Run(runCtx, cfg.Listen.Host, cfg.Listen.Port); err != nil {
		logger.Error("Server failed", "error", err)
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("Shutdown complete")
	return nil
}

func loadServeConfig() (*config.Config, error) {
	if configFile == "" {
		configFile = config.FirstExisting(config.DefaultPaths("baboard.yaml"))
	}
	if configFile == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// buildNotifiers assembles the alert channels named in the config. A
// channel that fails to initialize is skipped with a warning; alerting
// never blocks startup.
func buildNotifiers(cfg *config.Config, logger *slog.Logger) []alert.Notifier {
	var notifiers []alert.Notifier
	if cfg.Alerts.Console {
		notifiers = append(notifiers, alert.NewConsoleNotifier(os.Stdout))
	}
	if cfg.Alerts.Telegram.Enabled() {
		tg, err := alert.NewTelegramNotifier(cfg.Alerts.Telegram.Token, cfg.Alerts.Telegram.ChatID)
		if err != nil {
			logger.Warn("Telegram alert channel unavailable", "error", err)
		} else {
			notifiers = append(notifiers, tg)
		}
	}
	return notifiers
}

// setupLogging configures slog for file logging
// Returns both the logger and the file handle (caller must close the file)
func setupLogging(logPath string) (*slog.Logger, *os.File, error) {
	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	// Log to both file and console
	multiWriter := io.MultiWriter(os.Stdout, file)

	handler := slog.NewJSONHandler(multiWriter, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	return slog.New(handler), file, nil
}

// Helper functions for environment variables
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}
