package command

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokguard-go/internal/cli/config"
	"github.com/yndnr/tokguard-go/internal/cli/connection"
	"github.com/yndnr/tokguard-go/internal/cli/output"
	"github.com/yndnr/tokguard-go/internal/infra/buildinfo"
)

const envKey = "env"

// Env is the per-invocation state shared by commands.
type Env struct {
	Config     *config.CLIConfig
	ConfigPath string
	Format     output.Format
	Wide       bool
	Out        io.Writer
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                 "tokguard-cli",
		Usage:                "tokguard command-line management tool",
		Version:              buildinfo.String(),
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			SessionCommand(),
			TokenCommand(),
			SystemCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before: setup,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config file (default ~/.tokguard/cli.yaml)",
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "tokguard-server address (e.g., https://127.0.0.1:5080)",
		},
		&cli.StringFlag{
			Name:    "api-key",
			Aliases: []string{"k"},
			Usage:   "admin API key",
		},
		&cli.StringFlag{
			Name:  "ca-file",
			Usage: "PEM bundle trusted in addition to the system roots",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "show wide output (more columns)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "request timeout",
		},
	}
}

// setup loads the config file and applies flag overrides.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	if c.IsSet("server") {
		cfg.Server = c.String("server")
	}
	if c.IsSet("api-key") {
		cfg.APIKey = c.String("api-key")
	}
	if c.IsSet("ca-file") {
		cfg.CAFile = c.String("ca-file")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[envKey] = &Env{
		Config:     cfg,
		ConfigPath: c.String("config"),
		Format:     format,
		Wide:       c.Bool("wide"),
		Out:        c.App.Writer,
	}
	return nil
}

// GetEnv returns the state set up by App's Before hook.
func GetEnv(c *cli.Context) *Env {
	if env, ok := c.App.Metadata[envKey].(*Env); ok {
		return env
	}
	return &Env{Config: config.Default(), Format: output.FormatTable, Out: c.App.Writer}
}

// Client builds an admin client from the effective configuration.
func (e *Env) Client() (*connection.HTTPClient, error) {
	return connection.NewHTTPClient(connection.Options{
		Server:  e.Config.Server,
		APIKey:  e.Config.APIKey,
		CAFile:  e.Config.CAFile,
		Timeout: e.Config.Timeout,
	})
}

// Context returns a context bounded by the configured timeout.
func (e *Env) Context() (context.Context, context.CancelFunc) {
	d := e.Config.Timeout
	if d <= 0 {
		d = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), d)
}

// Render prints data. For table output, table builds a custom layout when
// non-nil; otherwise the generic table formatter is used.
func (e *Env) Render(data any, table func() *output.Table) error {
	if e.Format == output.FormatTable && table != nil {
		return table().Render(e.Out, false)
	}
	return output.NewFormatter(e.Format, e.Wide).Format(e.Out, data)
}

// Printf writes human-readable text. It is silent for json and yaml.
func (e *Env) Printf(format string, args ...any) {
	if e.Format == output.FormatTable {
		fmt.Fprintf(e.Out, format, args...)
	}
}

func requireArg(c *cli.Context, name string) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("%s requires exactly one argument: %s", c.Command.FullName(), name)
	}
	return c.Args().First(), nil
}
