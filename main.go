package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"gitlab.com/bromine/clicmds"
)

func main() {
	app := cli.NewApp()
	app.Name = "bromine"
	app.Version = "0.1"
	app.Usage = "Drive chrome through scripted scenarios"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "loglevel",
			Usage: "debug, info, warn or error",
			Value: "info",
		},
	}
	app.Before = func(ctx *cli.Context) error {
		level, err := zerolog.ParseLevel(ctx.String("loglevel"))
		if err != nil {
			return err
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		return nil
	}
	app.Commands = []*cli.Command{
		{
			Name:    "run",
			Aliases: []string{"r"},
			Usage:   "run a scenario",
			Action:  clicmds.Run,
			Flags:   clicmds.RunFlags(),
		},
		{
			Name:    "journal",
			Aliases: []string{"j"},
			Usage:   "print recorded runs",
			Action:  clicmds.Journal,
			Flags:   clicmds.JournalFlags(),
		},
		{
			Name:    "leaser",
			Aliases: []string{"l"},
			Usage:   "serve browsers to run --leaser socket",
			Action:  clicmds.Leaser,
			Flags:   clicmds.LeaserFlags(),
		},
		{
			Name:   "cleanup",
			Usage:  "kill stray chrome processes and remove temporary profiles",
			Action: clicmds.Cleanup,
		},
	}
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Msg("bromine failed")
	}
}
