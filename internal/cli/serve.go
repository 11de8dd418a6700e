package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joshhsoj1902/achievement-tracker/internal/api"
	"github.com/joshhsoj1902/achievement-tracker/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func NewServeCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the game list and achievement view over HTTP",
		Long: `Start the tracker: check the stored Steam credentials, load the game list and
serve it, along with the uncompleted achievements of the selected game, over HTTP.`,
		Example: `  # Serve on the port from $PORT (default 8000)
  achievement-tracker serve

  # Serve on another port
  achievement-tracker serve --port 9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := LoadConfig()
			if cmd.Flags().Changed("port") {
				config.Port = port
			}
			return runServe(cmd, config)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8000, "HTTP port (overrides $PORT)")

	return cmd
}

func runServe(cmd *cobra.Command, config Config) error {
	app, err := Bootstrap(cmd.Context(), config, promptFor(cmd, config))
	if err != nil {
		return err
	}
	defer app.Close()

	app.Start()

	handlers := api.NewHandlers(app.Loop, app.Library, app.View, app.Settings)
	router := api.NewRouter(handlers, prometheus.DefaultGatherer)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Log.WithField("port", config.Port).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("start server: %w", err)
	}

	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Log.Info("Server exited")
	return nil
}
