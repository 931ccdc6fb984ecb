package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokguard-go/internal/cli/output"
	"github.com/yndnr/tokguard-go/internal/infra/buildinfo"
)

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show CLI build information",
		Action: func(c *cli.Context) error {
			env := GetEnv(c)
			info := buildinfo.Get()
			if env.Format == output.FormatTable {
				env.Printf("%s\n", buildinfo.String())
				return nil
			}
			return env.Render(info, nil)
		},
	}
}
