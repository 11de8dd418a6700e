package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/joshhsoj1902/achievement-tracker/internal/achievements"
	"github.com/joshhsoj1902/achievement-tracker/internal/library"
	"github.com/joshhsoj1902/achievement-tracker/internal/logger"
	"github.com/spf13/cobra"
)

// ErrLoadFailed is returned when the selected game ends in the error state
var ErrLoadFailed = errors.New("failed to load achievements")

func NewAchievementsCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "achievements <appid>",
		Short: "Print the uncompleted achievements of a game",
		Long:  `Select a game by its Steam app id and print the achievements you have not unlocked yet.`,
		Example: `  # Team Fortress 2
  achievement-tracker achievements 440

  # Same, as the JSON snapshot served on /achievements
  achievement-tracker achievements 440 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appID, err := strconv.Atoi(args[0])
			if err != nil || appID <= 0 {
				return fmt.Errorf("invalid app id %q", args[0])
			}

			config := LoadConfig()
			app, err := Bootstrap(cmd.Context(), config, promptFor(cmd, config))
			if err != nil {
				return err
			}
			defer app.Close()

			return runAchievements(cmd.Context(), cmd.OutOrStdout(), app, appID, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func runAchievements(ctx context.Context, w io.Writer, app *App, appID int, jsonOutput bool) error {
	snap, name, err := awaitAchievements(ctx, app, appID)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
	} else {
		renderSnapshot(w, name, snap)
	}

	if snap.State == achievements.Error {
		return ErrLoadFailed
	}
	return nil
}

func terminal(state achievements.State) bool {
	switch state {
	case achievements.Completed, achievements.ShowingList, achievements.Error:
		return true
	}
	return false
}

// awaitAchievements selects appID on the loop and waits for the view to settle. A game
// missing from the cached list triggers a refresh first.
func awaitAchievements(ctx context.Context, app *App, appID int) (achievements.Snapshot, string, error) {
	settled := make(chan achievements.Snapshot, 1)
	failed := make(chan error, 1)

	selectGame := func() {
		app.View.OnChange(func(snap achievements.Snapshot) {
			if snap.AppID != appID || !terminal(snap.State) {
				return
			}
			select {
			case settled <- snap:
			default:
			}
		})
		app.View.Select(appID)
	}

	err := app.Loop.Call(ctx, func() {
		if _, ok := app.Library.Get(appID); ok {
			selectGame()
			return
		}

		logger.Log.WithField("app_id", appID).Info("Game not in cached list, refreshing")
		app.Library.Refresh(func() {
			if _, ok := app.Library.Get(appID); !ok {
				failed <- fmt.Errorf("app %d: %w", appID, library.ErrUnknownGame)
				return
			}
			selectGame()
		}, func(err error) {
			failed <- fmt.Errorf("load game list: %w", err)
		})
	})
	if err != nil {
		return achievements.Snapshot{}, "", err
	}

	var snap achievements.Snapshot
	select {
	case snap = <-settled:
	case err := <-failed:
		return achievements.Snapshot{}, "", err
	case <-ctx.Done():
		return achievements.Snapshot{}, "", ctx.Err()
	}

	var name string
	err = app.Loop.Call(ctx, func() {
		if game, ok := app.Library.Get(appID); ok {
			name = game.Name
		}
	})
	return snap, name, err
}

func renderSnapshot(w io.Writer, name string, snap achievements.Snapshot) {
	if name == "" {
		name = "App"
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s (%d)", name, snap.AppID)))
	fmt.Fprintln(w)

	switch snap.State {
	case achievements.Error:
		fmt.Fprintln(w, errorStyle.Render(snap.Message))
		return
	case achievements.Completed:
		fmt.Fprintln(w, completedStyle.Render(snap.Message))
		return
	}

	for _, entry := range snap.Entries {
		line := entry.Name + " " + keyStyle.Render(entry.Key)
		if entry.IconMissing {
			line += " " + missingIconStyle.Render("(no icon)")
		}
		fmt.Fprintln(w, entryStyle.Render(line))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, footerStyle.Render(fmt.Sprintf("%d uncompleted achievements", len(snap.Entries))))
}
