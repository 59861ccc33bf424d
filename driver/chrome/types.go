package chrome

import (
	"github.com/pkg/errors"
	"github.com/wirepair/gcd/gcdapi"
)

// revive:disable:exported
var (
	ErrNavigationTimedOut = errors.New("navigation timed out")
	ErrTabCrashed         = errors.New("tab crashed")
	ErrTabClosing         = errors.New("closing")
	ErrNavigating         = errors.New("error in navigation")
	ErrNoChrome           = errors.New("unable to find a chrome binary")
)

// InvalidNavigationErr when unable to navigate Forward or Back
type InvalidNavigationErr struct {
	Message string
}

func (e *InvalidNavigationErr) Error() string {
	return e.Message
}

// ScriptEvaluationErr returned when an injected script caused an error
type ScriptEvaluationErr struct {
	Message          string
	ExceptionText    string
	ExceptionDetails *gcdapi.RuntimeExceptionDetails
}

func (e *ScriptEvaluationErr) Error() string {
	return e.Message + " " + e.ExceptionText
}

var startupFlags = []string{
	"--enable-automation",
	"--test-type",
	"--disable-client-side-phishing-detection",
	"--disable-component-update",
	"--disable-infobars",
	"--disable-domain-reliability",
	"--disable-background-networking",
	"--disable-sync",
	"--disable-new-browser-first-run",
	"--disable-default-apps",
	"--disable-popup-blocking",
	"--disable-extensions",
	"--disable-features=TranslateUI,BackForwardCache",
	"--disable-gpu",
	"--disable-dev-shm-usage",
	"--no-sandbox",
	"--no-first-run",
	"--window-size=1024,768",
	"--safebrowsing-disable-auto-update",
	"--password-store=basic",
}

// chromeFlags for a new process, about:blank must stay last
func chromeFlags(headless bool) []string {
	flags := make([]string, 0, len(startupFlags)+2)
	flags = append(flags, startupFlags...)
	if headless {
		flags = append(flags, "--headless")
	}
	return append(flags, "about:blank")
}
