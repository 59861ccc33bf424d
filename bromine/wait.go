package bromine

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// revive:disable:exported
const (
	DefaultTimeout      = 2 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
)

// ExpectedCondition is evaluated repeatedly by a Waiter. It reports whether the
// condition holds and, for element conditions, the element that satisfied it.
// Returning *NoSuchElementErr means "not yet"; any other error aborts the wait.
type ExpectedCondition func(ctx context.Context, d Driver) (WebElement, bool, error)

// Waiter polls a condition at a fixed interval until it holds or the timeout expires
type Waiter struct {
	Timeout  time.Duration
	Interval time.Duration
}

// NewWaiter with the given timeout and poll interval, zero values take the defaults
func NewWaiter(timeout, interval time.Duration) *Waiter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Waiter{Timeout: timeout, Interval: interval}
}

// Until the condition holds, returning the element it produced
func (w *Waiter) Until(ctx context.Context, d Driver, cond ExpectedCondition) (WebElement, error) {
	return w.poll(ctx, d, cond, false)
}

// UntilNot waits until the condition stops holding. A lookup that finds nothing
// counts as the condition not holding.
func (w *Waiter) UntilNot(ctx context.Context, d Driver, cond ExpectedCondition) error {
	_, err := w.poll(ctx, d, cond, true)
	return err
}

func (w *Waiter) poll(ctx context.Context, d Driver, cond ExpectedCondition, negate bool) (WebElement, error) {
	timeout, interval := w.Timeout, w.Interval
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last error
	polls := 0
	for {
		polls++
		ele, ok, err := cond(ctx, d)
		switch {
		case err != nil && !IsNoSuchElement(err):
			return nil, err
		case err != nil:
			last = err
			if negate {
				return nil, nil
			}
		case ok != negate:
			return ele, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			log.Ctx(ctx).Debug().Dur("timeout", timeout).Int("polls", polls).AnErr("last", last).Bool("negate", negate).Msg("wait timed out")
			return nil, &TimeoutErr{Message: "after " + timeout.String(), Last: last}
		case <-ticker.C:
		}
	}
}

// PresenceOfElement holds once an element matching loc exists in the DOM
func PresenceOfElement(loc Locator) ExpectedCondition {
	return func(ctx context.Context, d Driver) (WebElement, bool, error) {
		ele, err := d.FindElement(ctx, loc.By, loc.Value)
		if err != nil {
			return nil, false, err
		}
		return ele, true, nil
	}
}

// VisibilityOfElement holds once the element matching loc is displayed
func VisibilityOfElement(loc Locator) ExpectedCondition {
	return func(ctx context.Context, d Driver) (WebElement, bool, error) {
		ele, err := d.FindElement(ctx, loc.By, loc.Value)
		if err != nil {
			return nil, false, err
		}
		visible, err := ele.IsDisplayed(ctx)
		if err != nil {
			return nil, false, ignoreStale(err)
		}
		return ele, visible, nil
	}
}

// ElementToBeClickable holds once the element matching loc is displayed and enabled
func ElementToBeClickable(loc Locator) ExpectedCondition {
	visible := VisibilityOfElement(loc)
	return func(ctx context.Context, d Driver) (WebElement, bool, error) {
		ele, ok, err := visible(ctx, d)
		if err != nil || !ok {
			return nil, false, err
		}
		enabled, err := ele.IsEnabled(ctx)
		if err != nil {
			return nil, false, ignoreStale(err)
		}
		return ele, enabled, nil
	}
}

// ElementContainingText holds with the element matching loc once its text contains
// text, or once it has any text at all when text is omitted. A stale element is
// treated as not yet matching so polling carries on.
func ElementContainingText(loc Locator, text ...string) ExpectedCondition {
	return func(ctx context.Context, d Driver) (WebElement, bool, error) {
		ele, err := d.FindElement(ctx, loc.By, loc.Value)
		if err != nil {
			return nil, false, ignoreStale(err)
		}
		content, err := ele.Text(ctx)
		if err != nil {
			return nil, false, ignoreStale(err)
		}
		if len(text) == 0 {
			return ele, content != "", nil
		}
		return ele, strings.Contains(content, text[0]), nil
	}
}

// TitleIs holds when the page title equals title
func TitleIs(title string) ExpectedCondition {
	return titleCondition(func(t string) bool { return t == title }, nil)
}

// TitleContains holds when the page title contains sub
func TitleContains(sub string) ExpectedCondition {
	return titleCondition(func(t string) bool { return strings.Contains(t, sub) }, nil)
}

// titleCondition stores the last title it read into seen, when given
func titleCondition(match func(string) bool, seen *string) ExpectedCondition {
	return func(ctx context.Context, d Driver) (WebElement, bool, error) {
		title, err := d.Title(ctx)
		if err != nil {
			return nil, false, err
		}
		if seen != nil {
			*seen = title
		}
		return nil, match(title), nil
	}
}

// pageConditions are the keys accepted by Browser.Wait
var pageConditions = map[string]func(arg string, seen *string) ExpectedCondition{
	"title": func(arg string, seen *string) ExpectedCondition {
		return titleCondition(func(t string) bool { return t == arg }, seen)
	},
	"title_has": func(arg string, seen *string) ExpectedCondition {
		return titleCondition(func(t string) bool { return strings.Contains(t, arg) }, seen)
	},
}

// elementConditions are the names accepted by FutureElement.Wait
var elementConditions = map[string]func(loc Locator, arg []string) ExpectedCondition{
	"present":   func(loc Locator, _ []string) ExpectedCondition { return PresenceOfElement(loc) },
	"clickable": func(loc Locator, _ []string) ExpectedCondition { return ElementToBeClickable(loc) },
	"visible":   func(loc Locator, _ []string) ExpectedCondition { return VisibilityOfElement(loc) },
	"text":      func(loc Locator, arg []string) ExpectedCondition { return ElementContainingText(loc, arg...) },
}

// ParseCondition checks condition is one FutureElement.Wait accepts, optionally
// negated, without touching a driver
func ParseCondition(condition string) error {
	_, _, err := parseElementCondition(condition)
	return err
}

// parseElementCondition splits an optional leading "not" from the condition name.
// An empty name means "present".
func parseElementCondition(condition string) (string, bool, error) {
	negate := false
	if fields := strings.Fields(condition); len(fields) > 0 && fields[0] == "not" {
		negate = true
		condition = strings.TrimSpace(strings.TrimSpace(condition)[3:])
	}
	condition = strings.TrimSpace(condition)
	if condition == "" {
		condition = "present"
	}
	if _, ok := elementConditions[condition]; !ok {
		return "", false, &ArgumentErr{Message: "bad condition: " + condition}
	}
	return condition, negate, nil
}

func ignoreStale(err error) error {
	if IsStale(err) {
		return nil
	}
	return err
}
