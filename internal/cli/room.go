package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"focusmate/internal/config"
	"focusmate/internal/presence"
	"focusmate/internal/timer"
	"focusmate/internal/tui"
)

func newRoomCmd(a *app) *cobra.Command {
	var teamID, transport string
	cmd := &cobra.Command{
		Use:   "room <code>",
		Short: "Join a team focus room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := args[0]
			ctx := cmd.Context()
			if transport == "" {
				transport = a.cfg.Presence.Transport
			}

			self, roster, notice := a.roomMembers(ctx, teamID)
			state := presence.NewRoomState(code, self, roster)

			primary, closePrimary, err := a.primaryTransport(transport)
			if err != nil {
				a.log.Warn("presence transport unavailable", zap.String("transport", transport), zap.Error(err))
				notice = joinNotices("Live sync unavailable, sharing with this machine only", notice)
			} else {
				notice = joinNotices(reachNotice(transport), notice)
			}
			defer closePrimary()

			fallback := presence.NewFileTransport(a.store, a.cfg.Presence.FallbackLinger, a.clock, a.log)
			ch, err := presence.Open(ctx, code, primary, fallback, a.log)
			if err != nil {
				return fmt.Errorf("opening room %s: %w", code, err)
			}
			defer ch.Close()

			model := tui.NewRoomModel(state, ch, a.log)
			if notice != "" {
				model = model.Notice(notice)
			}

			runner := timer.NewRunner(a.clock, model.Tick)
			runner.Start(ctx)
			defer runner.Stop()

			return tui.RunRoom(model)
		},
	}
	cmd.Flags().StringVar(&teamID, "team", "", "team id whose members seed the room")
	cmd.Flags().StringVar(&transport, "transport", "", "presence transport: ws, nats, memory or file")
	return cmd
}

// roomMembers resolves self and the roster. Signed-out users join under a
// random id with only themselves in the room.
func (a *app) roomMembers(ctx context.Context, teamID string) (presence.Member, []presence.Member, string) {
	self := presence.Member{ID: uuid.NewString(), Name: "You"}
	if p, err := a.accounts.LoadProfile(); err == nil && p.ID != "" {
		self = presence.Member{ID: p.ID, Name: p.Name}
	}
	if teamID == "" {
		return self, nil, ""
	}

	client, _, err := a.client()
	if err != nil {
		return self, nil, "Sign in to load the team roster"
	}
	team, err := client.GetTeam(ctx, teamID)
	if err != nil {
		a.log.Warn("loading team roster", zap.String("team_id", teamID), zap.Error(err))
		return self, nil, "Could not load the team roster"
	}

	roster := make([]presence.Member, 0, len(team.Members))
	for _, m := range team.Members {
		roster = append(roster, presence.Member{ID: m.UserID, Name: m.Name, Role: m.Role})
	}
	return self, roster, ""
}

// reachNotice warns when a transport cannot reach other machines.
func reachNotice(transport string) string {
	switch transport {
	case config.TransportMemory:
		return "Memory transport only reaches this process, nobody else will see you"
	case config.TransportFile:
		return "Sharing with this machine only"
	}
	return ""
}

func joinNotices(notices ...string) string {
	var parts []string
	for _, n := range notices {
		if n != "" {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, ". ")
}

// primaryTransport builds the configured transport. The file transport is
// always the fallback, so choosing it leaves the primary empty.
func (a *app) primaryTransport(name string) (presence.Transport, func(), error) {
	noop := func() {}
	switch name {
	case config.TransportWebSocket:
		sess, err := a.accounts.LoadSession()
		if err != nil {
			return nil, noop, fmt.Errorf("room relay needs a signed-in session: %w", err)
		}
		server := sess.ServerURL
		if server == "" {
			server = a.cfg.ServerURL
		}
		return presence.NewWebSocketTransport(server, a.cfg.CookieName, sess.Token, a.log), noop, nil
	case config.TransportNATS:
		nt, err := presence.DialNATS(a.cfg.Presence.NATSURL, a.log)
		if err != nil {
			return nil, noop, err
		}
		return nt, nt.Close, nil
	case config.TransportMemory:
		return a.bus, noop, nil
	case config.TransportFile:
		return nil, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown presence transport %q", name)
}
