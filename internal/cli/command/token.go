package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokguard-go/internal/cli/connection"
	"github.com/yndnr/tokguard-go/internal/cli/output"
	"github.com/yndnr/tokguard-go/internal/core/domain"
	"github.com/yndnr/tokguard-go/pkg/token"
)

// TokenCommand returns the token subcommand group.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Token utilities",
		Subcommands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Generate a token not bound to any session",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "local",
						Usage: "generate locally instead of asking the server",
					},
					&cli.IntFlag{
						Name:  "bytes",
						Value: domain.MinTokenBytes,
						Usage: "random bytes for --local (minimum 32)",
					},
				},
				Action: tokenGenerate,
			},
		},
	}
}

func tokenGenerate(c *cli.Context) error {
	env := GetEnv(c)

	var g *connection.GeneratedToken
	if c.Bool("local") {
		n := c.Int("bytes")
		if n < domain.MinTokenBytes {
			return fmt.Errorf("--bytes must be at least %d", domain.MinTokenBytes)
		}
		v, err := token.GenerateWithLength(n)
		if err != nil {
			return err
		}
		g = &connection.GeneratedToken{Token: v, Fingerprint: token.Fingerprint(v)}
	} else {
		client, err := env.Client()
		if err != nil {
			return err
		}
		ctx, cancel := env.Context()
		defer cancel()

		if g, err = client.GenerateToken(ctx); err != nil {
			return err
		}
	}

	if env.Format == output.FormatTable {
		fmt.Fprintln(env.Out, g.Token)
		return nil
	}
	return env.Render(g, nil)
}
