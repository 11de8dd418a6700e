package cli

import (
	"github.com/joshhsoj1902/achievement-tracker/internal/logger"
	"github.com/joshhsoj1902/achievement-tracker/internal/settings"
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command. Without a subcommand it serves.
func NewRootCommand(version string) *cobra.Command {
	serve := NewServeCommand()

	rootCmd := &cobra.Command{
		Use:   "achievement-tracker",
		Short: "Track the Steam achievements you have not unlocked yet",
		Long: `achievement-tracker lists the games in your Steam library and, for the selected
game, the achievements you have not unlocked yet.

Your Steam Web API key and Steam ID are asked for once and kept in Redis. Set
STEAM_KEY and STEAM_ID to provide them without a prompt, or NO_PROMPT=true to
fail instead of asking.`,
		Example: `  # Serve the tracker over HTTP
  achievement-tracker serve

  # Print what is left to unlock in Team Fortress 2
  achievement-tracker achievements 440`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetLevel(LoadConfig().LogLevel)
		},
		RunE: serve.RunE,
	}

	rootCmd.Flags().AddFlagSet(serve.Flags())

	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(NewAchievementsCommand())

	return rootCmd
}

func promptFor(cmd *cobra.Command, config Config) settings.Prompter {
	if config.NoPrompt {
		return nil
	}
	return settings.NewTerminalPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
}
