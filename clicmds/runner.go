package clicmds

import (
	"context"
	"encoding/base64"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gitlab.com/bromine/bromine"
	"gitlab.com/bromine/store"
)

// revive:disable:exported
var (
	ErrAssertion   = errors.New("assertion failed")
	ErrUnsupported = errors.New("driver does not support this action")
)

// history is implemented by drivers that can move through the tab history
type history interface {
	Back(ctx context.Context) error
	Forward(ctx context.Context) error
	Reload(ctx context.Context, ignoreCache bool) error
}

// inspector is implemented by drivers that can capture the current page
type inspector interface {
	URL(ctx context.Context) (string, error)
	PageSource(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) (string, error)
}

// loadTuner is implemented by drivers that wait for page loads
type loadTuner interface {
	SetNavigationTimeout(timeout time.Duration)
	SetStabilityTimeout(timeout time.Duration)
	SetStabilityTime(stableAfter time.Duration)
}

type doubleClicker interface {
	DoubleClick(ctx context.Context) error
}

// Runner executes scenario steps against a browser and journals each of them
type Runner struct {
	browser *bromine.Browser
	journal *store.Journal
}

// NewRunner for the browser, journal may be nil
func NewRunner(browser *bromine.Browser, journal *store.Journal) *Runner {
	return &Runner{browser: browser, journal: journal}
}

// Execute all steps of the scenario, returning the first failure unless the scenario
// continues on failure, in which case the last failure is returned
func (r *Runner) Execute(ctx context.Context, s *Scenario) (*store.Run, error) {
	run := &store.Run{Name: s.Name, URL: s.URL, Started: time.Now()}
	if r.journal != nil {
		var err error
		if run, err = r.journal.StartRun(s.Name, s.URL); err != nil {
			return nil, err
		}
	}
	logger := log.With().Str("scenario", s.Name).Str("run", run.ID).Logger()
	ctx = logger.WithContext(ctx)
	if tuner, ok := r.browser.Driver().(loadTuner); ok {
		s.Tune(tuner)
	}

	var failed error
	if s.URL != "" {
		if err := r.browser.Navigate(ctx, s.URL); err != nil {
			failed = errors.Wrap(err, "failed to load start url")
		}
	}

	for i := range s.Steps {
		step := &s.Steps[i]
		if failed != nil && !s.Continue {
			break
		}
		entry := &store.Entry{
			RunID:   run.ID,
			Step:    i,
			Action:  step.Action,
			Target:  step.Describe(),
			Started: time.Now(),
		}
		err := r.Step(ctx, step)
		entry.Duration = time.Since(entry.Started)
		entry.Passed = err == nil

		if err != nil {
			entry.Error = err.Error()
			failed = errors.Wrapf(err, "step %d (%s) failed", i, step.Action)
			logger.Error().Err(err).Int("step", i).Str("action", step.Action).Msg("step failed")
			entry.URL = r.capture(ctx, s.ScreenshotDir, run.ID, i)
		} else {
			logger.Info().Int("step", i).Str("action", step.Action).Str("target", entry.Target).Dur("took", entry.Duration).Msg("step passed")
		}

		if r.journal != nil {
			if jerr := r.journal.Record(entry); jerr != nil {
				logger.Error().Err(jerr).Msg("failed to journal step")
			}
		}
	}

	if r.journal != nil {
		if err := r.journal.FinishRun(run, failed == nil); err != nil {
			logger.Error().Err(err).Msg("failed to finish run")
		}
	}
	return run, failed
}

// Step runs a single step
func (r *Runner) Step(ctx context.Context, step *Step) error {
	switch step.Action {
	case ActionNavigate:
		return r.browser.Navigate(ctx, step.URL)
	case ActionBack, ActionForward, ActionReload:
		h, ok := r.browser.Driver().(history)
		if !ok {
			return errors.Wrap(ErrUnsupported, step.Action)
		}
		switch step.Action {
		case ActionBack:
			return h.Back(ctx)
		case ActionForward:
			return h.Forward(ctx)
		}
		return h.Reload(ctx, step.IgnoreCache)
	case ActionWaitTitle:
		_, err := r.browser.Wait(ctx, bromine.Condition(step.Page))
		return err
	case ActionScript:
		res, err := r.browser.Execute(ctx, step.Script)
		if err != nil {
			return err
		}
		if step.Text != "" && fmt.Sprint(res) != step.Text {
			return errors.Wrapf(ErrAssertion, "expected script result %q got %v", step.Text, res)
		}
		return nil
	}

	ele := r.browser.Elem(bromine.Selector(step.Target))
	switch step.Action {
	case ActionClick:
		return ele.Click(ctx)
	case ActionDoubleClick:
		found, err := ele.Wait(ctx, "clickable")
		if err != nil {
			return err
		}
		dc, ok := found.Raw().(doubleClicker)
		if !ok {
			return errors.Wrap(ErrUnsupported, step.Action)
		}
		return dc.DoubleClick(ctx)
	case ActionClear:
		_, err := ele.Clear(ctx)
		return err
	case ActionType:
		return ele.SendKeys(ctx, step.Text)
	case ActionSelect:
		return ele.Select(ctx, bromine.Option(step.Option))
	case ActionWait:
		if step.Arg != "" {
			_, err := ele.Wait(ctx, step.Condition, step.Arg)
			return err
		}
		_, err := ele.Wait(ctx, step.Condition)
		return err
	case ActionAssertText:
		if _, err := ele.Wait(ctx, "visible"); err != nil {
			return err
		}
		text, err := ele.Text(ctx)
		if err != nil {
			return err
		}
		if !strings.Contains(text, step.Text) {
			return errors.Wrapf(ErrAssertion, "expected %q in %q", step.Text, text)
		}
		return nil
	}
	return &bromine.ArgumentErr{Message: "unknown action " + step.Action}
}

// capture the page of a failed step: the url is returned for the journal, a
// screenshot and the page source are saved under dir when it is set
func (r *Runner) capture(ctx context.Context, dir, runID string, step int) string {
	page, ok := r.browser.Driver().(inspector)
	if !ok {
		return ""
	}
	url, err := page.URL(ctx)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to get url")
	}
	if dir == "" {
		return url
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to create screenshot dir")
		return url
	}
	base := filepath.Join(dir, fmt.Sprintf("%s-%03d", runID, step))

	if data, err := page.Screenshot(ctx); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to take screenshot")
	} else if png, err := base64.StdEncoding.DecodeString(data); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to decode screenshot")
	} else {
		writeCapture(ctx, base+".png", png)
	}

	if src, err := page.PageSource(ctx); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to get page source")
	} else {
		writeCapture(ctx, base+".html", []byte(src))
	}
	return url
}

func writeCapture(ctx context.Context, name string, data []byte) {
	if err := ioutil.WriteFile(name, data, 0644); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("file", name).Msg("failed to write capture")
		return
	}
	log.Ctx(ctx).Info().Str("file", name).Msg("saved capture")
}
