package clicmds

import (
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"gitlab.com/bromine/store"
)

// JournalFlags for the journal command
func JournalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "datadir",
			Usage: "journal directory",
			Value: "brominetmp",
		},
		&cli.StringFlag{
			Name:  "run",
			Usage: "only print this run",
		},
		&cli.BoolFlag{
			Name:  "dump",
			Usage: "dump raw entries",
			Value: false,
		},
	}
}

// Journal prints recorded runs and their steps
func Journal(ctx *cli.Context) error {
	journal := store.NewJournal(ctx.String("datadir"))
	if err := journal.Init(); err != nil {
		log.Error().Err(err).Msg("failed to init journal for viewing")
		return err
	}
	defer journal.Close()
	return PrintJournal(os.Stdout, journal, ctx.String("run"), ctx.Bool("dump"))
}

// PrintJournal writes runs (or just runID) and their entries to w
func PrintJournal(w io.Writer, journal *store.Journal, runID string, dump bool) error {
	var runs []*store.Run
	if runID != "" {
		run, err := journal.Run(runID)
		if err != nil {
			return err
		}
		runs = []*store.Run{run}
	} else {
		var err error
		if runs, err = journal.Runs(); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "Had %d runs\n", len(runs))
	for _, run := range runs {
		entries, err := journal.Entries(run.ID)
		if err != nil {
			return err
		}
		if dump {
			spew.Fdump(w, run, entries)
			continue
		}

		fmt.Fprintf(w, "%s %s %s (%s) passed: %t\n", run.Started.Format("2006-01-02 15:04:05"), run.ID, run.Name, run.URL, run.Passed)
		for _, entry := range entries {
			status := "ok"
			if !entry.Passed {
				status = "FAIL " + entry.Error
				if entry.URL != "" {
					status += " at " + entry.URL
				}
			}
			fmt.Fprintf(w, "  %03d %-11s %-40s %8s %s\n", entry.Step, entry.Action, entry.Target, entry.Duration, status)
		}
	}
	return nil
}
