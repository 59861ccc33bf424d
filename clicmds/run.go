package clicmds

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"gitlab.com/bromine/bromine"
	"gitlab.com/bromine/driver/chrome"
	"gitlab.com/bromine/store"
)

// RunFlags for the run command
func RunFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "scenario",
			Usage:    "toml scenario to run",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "url",
			Usage: "overrides the scenario start url",
		},
		&cli.StringFlag{
			Name:  "datadir",
			Usage: "journal directory",
			Value: "brominetmp",
		},
		&cli.BoolFlag{
			Name:  "headless",
			Usage: "run chrome headless",
			Value: true,
		},
		&cli.StringFlag{
			Name:  "leaser",
			Usage: "local starts chrome itself, socket asks a leaser service",
			Value: "local",
		},
		&cli.StringFlag{
			Name:  "socket",
			Usage: "leaser service socket",
			Value: chrome.DefaultSocket,
		},
	}
}

func leaserFor(ctx *cli.Context) (chrome.LeaserService, error) {
	switch ctx.String("leaser") {
	case "local":
		return chrome.NewLocalLeaser(ctx.Bool("headless")), nil
	case "socket":
		return chrome.NewSocketLeaser(ctx.String("socket")), nil
	}
	return nil, errors.Errorf("unknown leaser %q", ctx.String("leaser"))
}

// Run a scenario in chrome
func Run(ctx *cli.Context) error {
	scenario, err := LoadScenario(ctx.String("scenario"))
	if err != nil {
		return err
	}
	if ctx.String("url") != "" {
		scenario.URL = ctx.String("url")
	}

	leaser, err := leaserFor(ctx)
	if err != nil {
		return err
	}

	journal := store.NewJournal(ctx.String("datadir"))
	if err := journal.Init(); err != nil {
		log.Error().Err(err).Msg("failed to init journal")
		return err
	}
	defer journal.Close()

	runCtx, cancel := context.WithCancel(log.Logger.WithContext(context.Background()))
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-c:
			log.Info().Msg("Ctrl-C Pressed, stopping scenario")
			cancel()
		case <-runCtx.Done():
		}
	}()

	session, err := chrome.Open(runCtx, leaser)
	if err != nil {
		log.Error().Err(err).Msg("failed to open browser")
		return err
	}
	defer session.Close()

	browser := bromine.New(session, append(scenario.Options(), bromine.WithLogger(log.Logger))...)
	log.Info().Str("scenario", scenario.Name).Int("steps", len(scenario.Steps)).Msg("Starting scenario")

	run, err := NewRunner(browser, journal).Execute(runCtx, scenario)
	if run != nil {
		log.Info().Str("run", run.ID).Bool("passed", err == nil).Msg("Scenario finished")
	}
	return err
}

// Cleanup kills stray chrome processes and removes temporary profiles
func Cleanup(ctx *cli.Context) error {
	if err := chrome.KillOldProcesses(); err != nil {
		log.Warn().Err(err).Msg("failed to kill old processes")
	}
	_, tmp := chrome.FindChrome()
	return chrome.RemoveTmpContents(tmp)
}

// LeaserFlags for the leaser command
func LeaserFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "socket",
			Usage: "socket to listen on",
			Value: chrome.DefaultSocket,
		},
		&cli.BoolFlag{
			Name:  "headless",
			Usage: "run chrome headless",
			Value: true,
		},
	}
}

// Leaser serves locally started browsers to socket leaser clients until interrupted
func Leaser(ctx *cli.Context) error {
	leaser := chrome.NewLocalLeaser(ctx.Bool("headless"))
	defer leaser.Cleanup()

	srvCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Ctrl-C Pressed, shutting down leaser")
		cancel()
	}()

	return chrome.NewLeaserServer(leaser, ctx.String("socket")).Serve(srvCtx)
}
