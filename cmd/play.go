package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotifycc/internal/playback"
	"github.com/desertthunder/spotifycc/internal/shared"
	"github.com/desertthunder/spotifycc/internal/ui"
)

// Play launches the terminal player against the configured server.
//
// Track starts are recorded through the API with the configured user id; an anonymous player records nothing.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	api := r.client()
	if err := api.Health(ctx); err != nil {
		return fmt.Errorf("server at %s is not reachable: %w", r.config.Client.BaseURL, err)
	}

	session, stop := r.playerSession(api.UserID(), api, shared.WithLogger(fileLogger, "component", "player"))
	defer stop()

	model := ui.NewModel(ctx, ui.Options{
		Library: api,
		Session: session,
		Query:   strings.TrimSpace(cmd.StringArg("query")),
		Limit:   cmd.Int("limit"),
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running player: %w", err)
	}

	return nil
}

// playerSession creates the player's playback session. stop cancels in-flight history
// recordings rather than waiting for them.
func (r *Runner) playerSession(userID int64, recorder playback.HistoryRecorder, logger *log.Logger) (*playback.Session, func()) {
	session := playback.NewSession(userID, recorder, r.config.Playback.HistoryTimeout(), logger)
	return session, session.Close
}
