package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/catdesk-go/internal/cli/config"
	"github.com/yndnr/catdesk-go/internal/cli/output"
	"github.com/yndnr/catdesk-go/internal/core/domain"
)

// ConfigCommand returns the config subcommand group. None of its commands
// open storage or contact the server.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "CLI configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: configShow,
			},
			{
				Name:   "path",
				Usage:  "Print the configuration file path",
				Action: configPath,
			},
			{
				Name:  "init",
				Usage: "Write a configuration file with the defaults",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: configInit,
			},
			{
				Name:   "validate",
				Usage:  "Check the configuration file and environment",
				Action: configValidate,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	cfg, flags, err := loadConfig(c)
	if err != nil {
		return err
	}
	formatter := output.NewFormatter(output.Format(cfg.Output), flags.Wide)
	return formatter.Format(c.App.Writer, cfg.Entries())
}

func configPath(c *cli.Context) error {
	path := config.ExpandHome(c.String("config"))
	if path == "" {
		path = config.DefaultConfigPath()
	}
	_, err := fmt.Fprintln(c.App.Writer, path)
	return err
}

func configInit(c *cli.Context) error {
	path, err := config.Init(c.String("config"), c.Bool("force"))
	if errors.Is(err, config.ErrConfigExists) {
		return domain.ErrInvalidArgument.WithDetails(path + " already exists; use --force to overwrite")
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return err
}

func configValidate(c *cli.Context) error {
	if _, _, err := loadConfig(c); err != nil {
		return err
	}
	_, err := fmt.Fprintln(c.App.Writer, "Configuration is valid.")
	return err
}
