package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokguard-go/internal/cli/output"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Server status commands",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show server status summary",
				Action: systemStatus,
			},
			{
				Name:  "health",
				Usage: "Check server health",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "ready",
						Usage: "check readiness (session backend reachable) instead of liveness",
					},
				},
				Action: systemHealth,
			},
		},
	}
}

func systemStatus(c *cli.Context) error {
	env := GetEnv(c)
	client, err := env.Client()
	if err != nil {
		return err
	}
	ctx, cancel := env.Context()
	defer cancel()

	st, err := client.Status(ctx)
	if err != nil {
		return err
	}

	return env.Render(st, func() *output.Table {
		t := &output.Table{Headers: []string{"FIELD", "VALUE"}}
		t.AddRow("Status", st.Status)
		t.AddRow("Version", st.Build.Version)
		t.AddRow("Commit", st.Build.Commit)
		t.AddRow("Backend", st.Backend)
		t.AddRow("Active Sessions", fmt.Sprint(st.ActiveSessions))
		t.AddRow("Uptime", (time.Duration(st.UptimeSeconds) * time.Second).String())
		t.AddRow("Log Level", st.LogLevel)
		return t
	})
}

func systemHealth(c *cli.Context) error {
	env := GetEnv(c)
	client, err := env.Client()
	if err != nil {
		return err
	}
	ctx, cancel := env.Context()
	defer cancel()

	h, err := client.Health(ctx, c.Bool("ready"))
	if err != nil {
		return fmt.Errorf("server unhealthy: %w", err)
	}

	if env.Format != output.FormatTable {
		return env.Render(h, nil)
	}
	fmt.Fprintf(env.Out, "Server is %s\n  Target: %s\n", h.Status, client.BaseURL())
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
