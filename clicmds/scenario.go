package clicmds

import (
	"io/ioutil"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"gitlab.com/bromine/bromine"
)

// Step actions understood by the runner
const (
	ActionNavigate    = "navigate"
	ActionBack        = "back"
	ActionForward     = "forward"
	ActionReload      = "reload"
	ActionClick       = "click"
	ActionDoubleClick = "double_click"
	ActionClear       = "clear"
	ActionType        = "type"
	ActionSelect      = "select"
	ActionWait        = "wait"
	ActionWaitTitle   = "wait_title"
	ActionAssertText  = "assert_text"
	ActionScript      = "script"
)

// Scenario is a named list of steps run against a single tab
type Scenario struct {
	Name              string `toml:"name"`
	URL               string `toml:"url"`
	Timeout           string `toml:"timeout"`
	PollInterval      string `toml:"poll_interval"`
	NavigationTimeout string `toml:"navigation_timeout"`
	StabilityTimeout  string `toml:"stability_timeout"`
	StableAfter       string `toml:"stable_after"`
	ScreenshotDir     string `toml:"screenshot_dir"`
	Continue          bool   `toml:"continue_on_failure"`
	Steps             []Step `toml:"step"`

	timeout           time.Duration
	pollInterval      time.Duration
	navigationTimeout time.Duration
	stabilityTimeout  time.Duration
	stableAfter       time.Duration
}

// Step of a scenario. Target is a one key selector, Page a one key title condition.
// IgnoreCache makes a reload act like ctrl+f5.
type Step struct {
	Action      string            `toml:"action"`
	URL         string            `toml:"url"`
	Target      map[string]string `toml:"target"`
	Page        map[string]string `toml:"page"`
	Option      map[string]string `toml:"option"`
	Condition   string            `toml:"condition"`
	Arg         string            `toml:"arg"`
	Text        string            `toml:"text"`
	Script      string            `toml:"script"`
	IgnoreCache bool              `toml:"ignore_cache"`
}

// LoadScenario from a toml file
func LoadScenario(path string) (*Scenario, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(string(data))
}

// ParseScenario decodes and validates a toml scenario
func ParseScenario(data string) (*Scenario, error) {
	s := &Scenario{}
	if err := toml.NewDecoder(strings.NewReader(data)).Decode(s); err != nil {
		return nil, errors.Wrap(err, "failed to decode scenario")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate durations and every step, so a bad file fails before chrome is started
func (s *Scenario) Validate() error {
	durations := []struct {
		name string
		raw  string
		def  time.Duration
		out  *time.Duration
	}{
		{"timeout", s.Timeout, bromine.DefaultTimeout, &s.timeout},
		{"poll_interval", s.PollInterval, bromine.DefaultPollInterval, &s.pollInterval},
		{"navigation_timeout", s.NavigationTimeout, 0, &s.navigationTimeout},
		{"stability_timeout", s.StabilityTimeout, 0, &s.stabilityTimeout},
		{"stable_after", s.StableAfter, 0, &s.stableAfter},
	}
	for _, d := range durations {
		*d.out = d.def
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return errors.Wrapf(err, "bad %s", d.name)
		}
		if parsed <= 0 {
			return errors.Errorf("bad %s: must be positive", d.name)
		}
		*d.out = parsed
	}
	if len(s.Steps) == 0 {
		return errors.New("scenario has no steps")
	}
	for i := range s.Steps {
		if err := s.Steps[i].Validate(); err != nil {
			return errors.Wrapf(err, "step %d", i)
		}
	}
	return nil
}

// Options for a bromine.Browser running this scenario
func (s *Scenario) Options() []bromine.ConfigFunc {
	return []bromine.ConfigFunc{
		bromine.WithTimeout(s.timeout),
		bromine.WithPollInterval(s.pollInterval),
	}
}

// Tune a driver that waits for page loads, zero settings keep the driver defaults
func (s *Scenario) Tune(tuner loadTuner) {
	if s.navigationTimeout > 0 {
		tuner.SetNavigationTimeout(s.navigationTimeout)
	}
	if s.stabilityTimeout > 0 {
		tuner.SetStabilityTimeout(s.stabilityTimeout)
	}
	if s.stableAfter > 0 {
		tuner.SetStabilityTime(s.stableAfter)
	}
}

// Validate the step has what its action needs
func (s *Step) Validate() error {
	switch s.Action {
	case ActionBack, ActionForward, ActionReload:
		return nil
	case ActionNavigate:
		if s.URL == "" {
			return errors.New("navigate requires url")
		}
		return nil
	case ActionWaitTitle:
		if len(s.Page) != 1 {
			return errors.New("wait_title requires exactly one page condition")
		}
		return nil
	case ActionScript:
		if s.Script == "" {
			return errors.New("script requires script")
		}
		// syntax errors are caught here instead of in the page
		if _, err := goja.Compile("step", s.Script, false); err != nil {
			return errors.Wrap(err, "bad script")
		}
		return nil
	case ActionClick, ActionDoubleClick, ActionClear, ActionType, ActionSelect, ActionWait, ActionAssertText:
	default:
		return errors.Errorf("unknown action %q", s.Action)
	}

	if _, err := bromine.Selector(s.Target).Locator(); err != nil {
		return err
	}
	switch s.Action {
	case ActionWait:
		return bromine.ParseCondition(s.Condition)
	case ActionSelect:
		if len(s.Option) != 1 {
			return errors.New("select requires exactly one option")
		}
	case ActionType, ActionAssertText:
		if s.Text == "" {
			return errors.Errorf("%s requires text", s.Action)
		}
	}
	return nil
}

// Describe the step target for logs and the journal
func (s *Step) Describe() string {
	switch s.Action {
	case ActionNavigate:
		return s.URL
	case ActionWaitTitle:
		return bromine.Selector(s.Page).String()
	case ActionScript:
		return s.Script
	case ActionBack, ActionForward, ActionReload:
		return ""
	}
	return bromine.Selector(s.Target).String()
}
