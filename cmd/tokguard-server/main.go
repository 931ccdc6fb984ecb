package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.yaml.in/yaml/v3"

	"github.com/yndnr/tokguard-go/internal/infra/buildinfo"
	"github.com/yndnr/tokguard-go/internal/server/config"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "path to configuration file",
		EnvVars: []string{"TOKGUARD_CONFIG"},
	}

	return &cli.App{
		Name:    "tokguard-server",
		Usage:   "CSRF token guard and session server",
		Version: buildinfo.String(),
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the server",
				Flags: []cli.Flag{configFlag},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c.String("config"))
					if err != nil {
						return err
					}
					return serve(context.Background(), cfg, c.String("config"))
				},
			},
			{
				Name:  "check-config",
				Usage: "Validate the configuration and print it with secrets masked",
				Flags: []cli.Flag{configFlag},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c.String("config"))
					if err != nil {
						return err
					}
					out, err := yaml.Marshal(config.Sanitize(cfg))
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "# configuration is valid\n%s", out)
					return nil
				},
			},
			{
				Name:  "version",
				Usage: "Show build information",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "tokguard-server %s\n", buildinfo.String())
					return nil
				},
			},
		},
		DefaultCommand: "serve",
	}
}
