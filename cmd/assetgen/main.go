package main

import (
	"io"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	isogame "github.com/Maniwar/Isogame"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version, V",
		Usage: "print the version",
	}
}

func newPipeline(c *cli.Context) (*isogame.Pipeline, error) {
	cfg := isogame.DefaultConfig()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = isogame.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}

	return isogame.New(cfg, logger), nil
}

func main() {
	app := cli.NewApp()

	app.Name = "assetgen"
	app.Usage = "Isogame generated-asset normalization utility"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			EnvVars: []string{"ASSETGEN_CONFIG"},
			Usage:   "path to pipeline config",
		},
		&cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "sheets",
			Usage:       "Normalize sprite sheets into animation frames",
			Description: "",
			ArgsUsage:   "SRC DST",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				p, err := newPipeline(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				if _, err := p.ProcessSheets(c.Args().Get(0), c.Args().Get(1)); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "tiles",
			Usage:       "Clip terrain tiles to the isometric diamond",
			Description: "",
			ArgsUsage:   "SRC DST",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				p, err := newPipeline(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				if _, err := p.ProcessTiles(c.Args().Get(0), c.Args().Get(1)); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "validate",
			Usage:       "Check processed assets against game requirements",
			Description: "",
			ArgsUsage:   "TILEDIR FRAMEDIR",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				p, err := newPipeline(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				ok, _, err := p.Validate(c.Args().Get(0), c.Args().Get(1))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				if !ok {
					return cli.NewExitError("validation failed", 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
