package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/catdesk-go/internal/cli/output"
	"github.com/yndnr/catdesk-go/internal/infra/buildinfo"
)

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: func(c *cli.Context) error {
			format := output.FormatTable
			if c.IsSet("output") {
				format = output.Format(c.String("output"))
			}
			return output.NewFormatter(format, false).Format(c.App.Writer, buildinfo.Get())
		},
	}
}
