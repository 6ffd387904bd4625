package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"ito/internal/app"
	"ito/internal/config"
	httpTransport "ito/internal/transport/http"
)

func main() {
	cobra.CheckErr(newCmd().Execute())
}

func newCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("ITO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := config.Default()

	cmd := &cobra.Command{
		Use:           "ito-server",
		Short:         "Room engine for an ordered-clues party game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Server.Host, "bind", "b", cfg.Server.Host, "address to bind to (env: ITO_BIND)")
	fs.IntVarP(&cfg.Server.Port, "port", "p", cfg.Server.Port, "port to listen on (env: ITO_PORT)")
	fs.StringSliceVar(&cfg.Server.AllowedOrigins, "allowed-origins", cfg.Server.AllowedOrigins, "browser origins allowed to connect; empty allows any (env: ITO_ALLOWED_ORIGINS)")
	fs.DurationVar(&cfg.Game.SubmitInterval, "submit-interval", cfg.Game.SubmitInterval, "minimum gap between accepted answer submissions per connection (env: ITO_SUBMIT_INTERVAL)")
	fs.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "log level: debug, info, warn or error (env: ITO_LOG_LEVEL)")
	fs.StringVar(&cfg.Logging.Format, "log-format", cfg.Logging.Format, "log format: json or text (env: ITO_LOG_FORMAT)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}

func run(cfg *config.Config) error {
	logOpts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	var logger *slog.Logger
	if cfg.Logging.Format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	}

	slog.SetDefault(logger)

	logger.Info("starting room engine",
		"addr", cfg.Addr(),
		"submitInterval", cfg.Game.SubmitInterval,
	)

	registry := app.NewRegistry(logger)
	defer registry.Close()

	limiter := app.NewSubmitLimiter(cfg.Game.SubmitInterval)
	router := app.NewRouter(registry, limiter, logger)

	server := httpTransport.NewServer(cfg, registry, router, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
