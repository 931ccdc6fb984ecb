package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokguard-go/internal/cli/connection"
	"github.com/yndnr/tokguard-go/internal/cli/output"
)

// SessionCommand returns the session subcommand group.
func SessionCommand() *cli.Command {
	return &cli.Command{
		Name:    "session",
		Aliases: []string{"sess"},
		Usage:   "Inspect and manage sessions",
		Subcommands: []*cli.Command{
			{
				Name:      "show",
				Aliases:   []string{"get"},
				Usage:     "Show session details",
				ArgsUsage: "SESSION_ID",
				Action:    sessionShow,
			},
			{
				Name:      "rotate",
				Usage:     "Replace the CSRF token of a session",
				ArgsUsage: "SESSION_ID",
				Action:    sessionRotate,
			},
			{
				Name:      "revoke",
				Usage:     "Delete a session",
				ArgsUsage: "SESSION_ID",
				Action:    sessionRevoke,
			},
		},
	}
}

func sessionShow(c *cli.Context) error {
	return withSession(c, func(env *Env, client *connection.HTTPClient, id string) error {
		ctx, cancel := env.Context()
		defer cancel()

		s, err := client.GetSession(ctx, id)
		if err != nil {
			return err
		}
		return env.Render(s, func() *output.Table { return sessionTable(s) })
	})
}

func sessionRotate(c *cli.Context) error {
	return withSession(c, func(env *Env, client *connection.HTTPClient, id string) error {
		ctx, cancel := env.Context()
		defer cancel()

		s, err := client.RotateSessionToken(ctx, id)
		if err != nil {
			return err
		}
		env.Printf("Token rotated for session %s\n\n", id)
		return env.Render(s, func() *output.Table { return sessionTable(s) })
	})
}

func sessionRevoke(c *cli.Context) error {
	return withSession(c, func(env *Env, client *connection.HTTPClient, id string) error {
		ctx, cancel := env.Context()
		defer cancel()

		if err := client.RevokeSession(ctx, id); err != nil {
			return err
		}
		if env.Format != output.FormatTable {
			return env.Render(map[string]any{"id": id, "revoked": true}, nil)
		}
		env.Printf("Session %s revoked\n", id)
		return nil
	})
}

func withSession(c *cli.Context, fn func(*Env, *connection.HTTPClient, string) error) error {
	id, err := requireArg(c, "SESSION_ID")
	if err != nil {
		return err
	}
	env := GetEnv(c)
	client, err := env.Client()
	if err != nil {
		return err
	}
	return fn(env, client, id)
}

func sessionTable(s *connection.Session) *output.Table {
	t := &output.Table{Headers: []string{"FIELD", "VALUE"}}
	t.AddRow("Session ID", s.ID)
	t.AddRow("Created", formatTime(s.CreatedAt))
	t.AddRow("Last Active", formatTime(s.LastActive))
	t.AddRow("Expires", formatTime(s.ExpiresAt))
	t.AddRow("Keys", fmt.Sprint(s.Keys))
	if s.HasToken {
		t.AddRow("Token", s.TokenMasked)
		t.AddRow("Fingerprint", s.TokenFingerprint)
	} else {
		t.AddRow("Token", "(none issued)")
	}
	return t
}
