package main

import (
	"context"
	"errors"
	"os"

	"github.com/joshhsoj1902/achievement-tracker/internal/cli"
	"github.com/joshhsoj1902/achievement-tracker/internal/logger"
	"github.com/joshhsoj1902/achievement-tracker/internal/settings"
)

// Version is set by ldflags during build
var Version = "dev"

func main() {
	logger.Log.WithField("version", Version).Info("Starting achievement-tracker")

	err := cli.NewRootCommand(Version).ExecuteContext(context.Background())
	if err == nil {
		return
	}

	var configErr *settings.ConfigurationError
	if errors.As(err, &configErr) {
		logger.Log.WithError(err).Fatal("Missing configuration")
	}

	logger.Log.WithError(err).Error("achievement-tracker failed")
	os.Exit(1)
}
