package clicmds_test

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"gitlab.com/bromine/bromine"
	"gitlab.com/bromine/clicmds"
	"gitlab.com/bromine/mock"
	"gitlab.com/bromine/store"
)

const loginScenario = `
name = "login"
url = "http://localhost/login"
timeout = "200ms"
poll_interval = "5ms"

[[step]]
action = "wait"
target = { css = "form#login" }
condition = "visible"

[[step]]
action = "clear"
target = { name = "user" }

[[step]]
action = "type"
target = { name = "user" }
text = "testuser"

[[step]]
action = "select"
target = { id = "lang" }
option = { text = "English" }

[[step]]
action = "click"
target = { css = "button[type=submit]" }

[[step]]
action = "wait_title"
page = { title_has = "Dashboard" }

[[step]]
action = "assert_text"
target = { cls = "welcome" }
text = "Welcome testuser"
`

type loginPage struct {
	driver  *mock.Driver
	user    *mock.Element
	lang    *mock.Element
	submit  *mock.Element
	welcome *mock.Element
}

func makeLoginPage() *loginPage {
	p := &loginPage{
		user:    mock.MakeMockElement("input", ""),
		lang:    mock.MakeMockSelect("Deutsch", "English"),
		submit:  mock.MakeMockElement("button", "Login"),
		welcome: mock.MakeMockElement("div", "Welcome testuser!"),
	}
	p.user.Value = "previous"
	p.driver = mock.MakeMockDriver("", map[bromine.Locator][]*mock.Element{
		{By: bromine.ByCSSSelector, Value: "form#login"}:          {mock.MakeMockElement("form", "")},
		{By: bromine.ByName, Value: "user"}:                       {p.user},
		{By: bromine.ByID, Value: "lang"}:                         {p.lang},
		{By: bromine.ByCSSSelector, Value: "button[type=submit]"}: {p.submit},
		{By: bromine.ByClassName, Value: "welcome"}:               {p.welcome},
	})
	p.driver.TitleFn = mock.Titles("Login", "Login", "Dashboard")
	return p
}

func testJournal(t *testing.T) (*store.Journal, func()) {
	dir, err := ioutil.TempDir("testdata/", "journal")
	if err != nil {
		t.Fatalf("error opening testdir: %s\n", err)
	}
	j := store.NewJournal(dir)
	if err := j.Init(); err != nil {
		os.RemoveAll(dir)
		t.Fatalf("error init journal: %s\n", err)
	}
	return j, func() {
		j.Close()
		os.RemoveAll(dir)
	}
}

func runScenario(t *testing.T, p *loginPage, j *store.Journal, data string) (*store.Run, error) {
	s, err := clicmds.ParseScenario(data)
	if err != nil {
		t.Fatalf("error parsing scenario: %s\n", err)
	}
	b := bromine.New(p.driver, s.Options()...)
	return clicmds.NewRunner(b, j).Execute(context.Background(), s)
}

func TestRunnerExecute(t *testing.T) {
	j, done := testJournal(t)
	defer done()
	p := makeLoginPage()

	run, err := runScenario(t, p, j, loginScenario)
	if err != nil {
		t.Fatalf("error running scenario: %s\n", err)
	}
	if p.driver.NavigateCalls != 1 {
		t.Fatalf("expected start url to be loaded")
	}
	if p.user.Value != "testuser" || p.user.ClearCalls != 1 {
		t.Fatalf("expected user input cleared and typed got %q\n", p.user.Value)
	}
	if p.lang.Selected != "English" || p.submit.Clicks != 1 {
		t.Fatalf("unexpected form state %q %d\n", p.lang.Selected, p.submit.Clicks)
	}

	entries, err := j.Entries(run.ID)
	if err != nil {
		t.Fatalf("error reading journal: %s\n", err)
	}
	if len(entries) != 7 {
		t.Fatalf("expected 7 journal entries got %d\n", len(entries))
	}
	for _, entry := range entries {
		if !entry.Passed {
			t.Fatalf("expected every step to pass got %#v\n", entry)
		}
	}
	if entries[4].Target != "css: button[type=submit]" {
		t.Fatalf("unexpected target %s\n", entries[4].Target)
	}
	stored, err := j.Run(run.ID)
	if err != nil || !stored.Passed {
		t.Fatalf("expected run to be stored as passed (%v)\n", err)
	}
}

func TestRunnerStopsOnFailure(t *testing.T) {
	j, done := testJournal(t)
	defer done()
	p := makeLoginPage()
	p.submit.Enabled = false

	run, err := runScenario(t, p, j, loginScenario)
	if !bromine.IsTimeout(err) {
		t.Fatalf("expected the disabled button to time out got %v\n", err)
	}
	if !strings.Contains(err.Error(), "step 4 (click) failed") {
		t.Fatalf("expected failing step in error got %s\n", err)
	}

	entries, _ := j.Entries(run.ID)
	if len(entries) != 5 {
		t.Fatalf("expected the run to stop after the failed step got %d entries\n", len(entries))
	}
	if entries[4].Passed || entries[4].Error == "" {
		t.Fatalf("expected the failed step to be journaled with its error\n")
	}
	stored, _ := j.Run(run.ID)
	if stored.Passed {
		t.Fatalf("run must be stored as failed")
	}

	var out bytes.Buffer
	if err := clicmds.PrintJournal(&out, j, run.ID, false); err != nil {
		t.Fatalf("error printing journal: %s\n", err)
	}
	if !strings.Contains(out.String(), "FAIL") {
		t.Fatalf("expected failed step in output got %s\n", out.String())
	}
}

func TestRunnerContinueOnFailure(t *testing.T) {
	p := makeLoginPage()
	p.submit.Enabled = false

	_, err := runScenario(t, p, nil, "continue_on_failure = true\n"+loginScenario)
	if !bromine.IsTimeout(err) {
		t.Fatalf("expected the click failure to be reported got %v\n", err)
	}
	if p.driver.TitleCalls == 0 {
		t.Fatalf("steps after the failure must run")
	}
}

func TestRunnerAssertText(t *testing.T) {
	p := makeLoginPage()
	p.welcome.Content = "Access denied"

	_, err := runScenario(t, p, nil, loginScenario)
	if errors.Cause(err) != clicmds.ErrAssertion {
		t.Fatalf("expected assertion failure got %v\n", err)
	}
	if p.submit.Clicks != 1 {
		t.Fatalf("steps before the failure must run")
	}
}

func TestRunnerBadSelectorAtRuntime(t *testing.T) {
	p := makeLoginPage()
	b := bromine.New(p.driver)
	err := clicmds.NewRunner(b, nil).Step(context.Background(), &clicmds.Step{Action: "hover"})
	if _, ok := err.(*bromine.ArgumentErr); !ok {
		t.Fatalf("expected ArgumentErr got %#v\n", err)
	}
}

func TestRunnerScript(t *testing.T) {
	p := makeLoginPage()
	var ran string
	p.driver.ExecuteScriptFn = func(ctx context.Context, script string) (interface{}, error) {
		ran = script
		return 2.0, nil
	}

	_, err := runScenario(t, p, nil, `
[[step]]
action = "script"
script = "document.querySelectorAll('input').length"
text = "2"
`)
	if err != nil {
		t.Fatalf("error running script step: %s\n", err)
	}
	if ran != "document.querySelectorAll('input').length" {
		t.Fatalf("unexpected script %q\n", ran)
	}

	_, err = runScenario(t, p, nil, "[[step]]\naction = \"script\"\nscript = \"1 + 2\"\ntext = \"3\"\n")
	if errors.Cause(err) != clicmds.ErrAssertion {
		t.Fatalf("expected result mismatch got %v\n", err)
	}
}

func TestRunnerHistory(t *testing.T) {
	p := makeLoginPage()
	var ignored bool
	reload := p.driver.ReloadFn
	p.driver.ReloadFn = func(ctx context.Context, ignoreCache bool) error {
		ignored = ignoreCache
		return reload(ctx, ignoreCache)
	}

	_, err := runScenario(t, p, nil, `
url = "http://localhost/login"

[[step]]
action = "navigate"
url = "http://localhost/help"

[[step]]
action = "back"

[[step]]
action = "reload"
ignore_cache = true

[[step]]
action = "forward"
`)
	if err != nil {
		t.Fatalf("error running history steps: %s\n", err)
	}
	if p.driver.Current != 1 || p.driver.History[1] != "http://localhost/help" {
		t.Fatalf("expected to end on the help page got %d %v\n", p.driver.Current, p.driver.History)
	}
	if p.driver.ReloadCalls != 1 || !ignored {
		t.Fatalf("expected one reload ignoring the cache")
	}

	_, err = runScenario(t, p, nil, "[[step]]\naction = \"forward\"\n")
	if err == nil {
		t.Fatalf("expected forward past the last entry to fail")
	}
}

func TestRunnerHistoryUnsupported(t *testing.T) {
	p := makeLoginPage()
	b := bromine.New(struct{ bromine.Driver }{p.driver})
	err := clicmds.NewRunner(b, nil).Step(context.Background(), &clicmds.Step{Action: clicmds.ActionBack})
	if errors.Cause(err) != clicmds.ErrUnsupported {
		t.Fatalf("expected unsupported action got %v\n", err)
	}
}

func TestRunnerDoubleClick(t *testing.T) {
	p := makeLoginPage()
	_, err := runScenario(t, p, nil, "[[step]]\naction = \"double_click\"\ntarget = { css = \"button[type=submit]\" }\n")
	if err != nil {
		t.Fatalf("error double clicking: %s\n", err)
	}
	if p.submit.Double != 1 || p.submit.Clicks != 0 {
		t.Fatalf("expected one double click got %d (%d clicks)\n", p.submit.Double, p.submit.Clicks)
	}

	p.submit.Enabled = false
	_, err = runScenario(t, p, nil, "timeout = \"50ms\"\npoll_interval = \"5ms\"\n[[step]]\naction = \"double_click\"\ntarget = { css = \"button[type=submit]\" }\n")
	if !bromine.IsTimeout(err) {
		t.Fatalf("expected disabled button to time out got %v\n", err)
	}
}

func TestRunnerTunesDriver(t *testing.T) {
	p := makeLoginPage()
	_, err := runScenario(t, p, nil, `
navigation_timeout = "5s"
stable_after = "150ms"

[[step]]
action = "navigate"
url = "http://localhost/help"
`)
	if err != nil {
		t.Fatalf("error running scenario: %s\n", err)
	}
	if p.driver.NavigationTimeout != 5*time.Second || p.driver.StableAfter != 150*time.Millisecond {
		t.Fatalf("expected driver to be tuned got %s %s\n", p.driver.NavigationTimeout, p.driver.StableAfter)
	}
}

func TestRunnerCapturesFailure(t *testing.T) {
	j, done := testJournal(t)
	defer done()
	dir, err := ioutil.TempDir("testdata/", "captures")
	if err != nil {
		t.Fatalf("error opening testdir: %s\n", err)
	}
	defer os.RemoveAll(dir)

	p := makeLoginPage()
	p.submit.Enabled = false
	run, err := runScenario(t, p, j, "screenshot_dir = \""+dir+"\"\n"+loginScenario)
	if err == nil {
		t.Fatalf("expected the disabled button to fail the run")
	}

	entries, _ := j.Entries(run.ID)
	if entries[4].URL != "http://localhost/login" {
		t.Fatalf("expected failure url in journal got %q\n", entries[4].URL)
	}
	base := filepath.Join(dir, run.ID+"-004")
	png, err := ioutil.ReadFile(base + ".png")
	if err != nil || !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("expected screenshot to be saved (%v)\n", err)
	}
	src, err := ioutil.ReadFile(base + ".html")
	if err != nil || !strings.Contains(string(src), "<title>") {
		t.Fatalf("expected page source to be saved (%v)\n", err)
	}

	var out bytes.Buffer
	if err := clicmds.PrintJournal(&out, j, run.ID, false); err != nil {
		t.Fatalf("error printing journal: %s\n", err)
	}
	if !strings.Contains(out.String(), "at http://localhost/login") {
		t.Fatalf("expected failure url in output got %s\n", out.String())
	}
}
