package mock

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/pkg/errors"
	"gitlab.com/bromine/bromine"
)

type Driver struct {
	NavigateFn    func(ctx context.Context, url string) error
	NavigateCalls int

	TitleFn    func(ctx context.Context) (string, error)
	TitleCalls int

	FindElementFn    func(ctx context.Context, by bromine.By, value string) (bromine.WebElement, error)
	FindElementCalls int

	FindElementsFn    func(ctx context.Context, by bromine.By, value string) ([]bromine.WebElement, error)
	FindElementsCalls int

	ExecuteScriptFn    func(ctx context.Context, script string) (interface{}, error)
	ExecuteScriptCalls int

	BackFn       func(ctx context.Context) error
	ForwardFn    func(ctx context.Context) error
	ReloadFn     func(ctx context.Context, ignoreCache bool) error
	ReloadCalls  int
	URLFn        func(ctx context.Context) (string, error)
	PageSourceFn func(ctx context.Context) (string, error)
	ScreenshotFn func(ctx context.Context) (string, error)

	// History of navigated urls and the current entry, kept by the default Fns
	History []string
	Current int

	NavigationTimeout time.Duration
	StabilityTimeout  time.Duration
	StableAfter       time.Duration
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	d.NavigateCalls++
	return d.NavigateFn(ctx, url)
}

func (d *Driver) Title(ctx context.Context) (string, error) {
	d.TitleCalls++
	return d.TitleFn(ctx)
}

func (d *Driver) FindElement(ctx context.Context, by bromine.By, value string) (bromine.WebElement, error) {
	d.FindElementCalls++
	return d.FindElementFn(ctx, by, value)
}

func (d *Driver) FindElements(ctx context.Context, by bromine.By, value string) ([]bromine.WebElement, error) {
	d.FindElementsCalls++
	return d.FindElementsFn(ctx, by, value)
}

func (d *Driver) ExecuteScript(ctx context.Context, script string) (interface{}, error) {
	d.ExecuteScriptCalls++
	return d.ExecuteScriptFn(ctx, script)
}

func (d *Driver) Back(ctx context.Context) error {
	return d.BackFn(ctx)
}

func (d *Driver) Forward(ctx context.Context) error {
	return d.ForwardFn(ctx)
}

func (d *Driver) Reload(ctx context.Context, ignoreCache bool) error {
	d.ReloadCalls++
	return d.ReloadFn(ctx, ignoreCache)
}

func (d *Driver) URL(ctx context.Context) (string, error) {
	return d.URLFn(ctx)
}

func (d *Driver) PageSource(ctx context.Context) (string, error) {
	return d.PageSourceFn(ctx)
}

func (d *Driver) Screenshot(ctx context.Context) (string, error) {
	return d.ScreenshotFn(ctx)
}

func (d *Driver) SetNavigationTimeout(timeout time.Duration) {
	d.NavigationTimeout = timeout
}

func (d *Driver) SetStabilityTimeout(timeout time.Duration) {
	d.StabilityTimeout = timeout
}

func (d *Driver) SetStabilityTime(stableAfter time.Duration) {
	d.StableAfter = stableAfter
}

// MakeMockDriver serves elements keyed by locator. A locator with no entry is not found,
// FindElement returns the first entry.
func MakeMockDriver(title string, elements map[bromine.Locator][]*Element) *Driver {
	d := &Driver{Current: -1}
	d.NavigateFn = func(ctx context.Context, url string) error {
		d.History = append(d.History[:d.Current+1], url)
		d.Current = len(d.History) - 1
		return nil
	}
	d.TitleFn = func(ctx context.Context) (string, error) {
		return title, nil
	}
	d.FindElementFn = func(ctx context.Context, by bromine.By, value string) (bromine.WebElement, error) {
		return findOne(elements, by, value)
	}
	d.FindElementsFn = func(ctx context.Context, by bromine.By, value string) ([]bromine.WebElement, error) {
		return findAll(elements, by, value), nil
	}
	d.ExecuteScriptFn = func(ctx context.Context, script string) (interface{}, error) {
		return nil, nil
	}
	d.BackFn = func(ctx context.Context) error {
		return d.move(-1)
	}
	d.ForwardFn = func(ctx context.Context) error {
		return d.move(1)
	}
	d.ReloadFn = func(ctx context.Context, ignoreCache bool) error {
		return nil
	}
	d.URLFn = func(ctx context.Context) (string, error) {
		if d.Current < 0 {
			return "about:blank", nil
		}
		return d.History[d.Current], nil
	}
	d.PageSourceFn = func(ctx context.Context) (string, error) {
		return "<html><head><title>" + title + "</title></head></html>", nil
	}
	d.ScreenshotFn = func(ctx context.Context) (string, error) {
		return base64.StdEncoding.EncodeToString([]byte("\x89PNG")), nil
	}
	return d
}

func (d *Driver) move(delta int) error {
	next := d.Current + delta
	if next < 0 || next >= len(d.History) {
		return errors.New("no history entry")
	}
	d.Current = next
	return nil
}

// Titles returns a TitleFn that yields each title in turn, repeating the last one
func Titles(titles ...string) func(ctx context.Context) (string, error) {
	i := 0
	return func(ctx context.Context) (string, error) {
		title := titles[i]
		if i < len(titles)-1 {
			i++
		}
		return title, nil
	}
}

// Sequence wraps a FindElementFn so the first calls return errs in order before
// falling through to next
func Sequence(next func(ctx context.Context, by bromine.By, value string) (bromine.WebElement, error), errs ...error) func(ctx context.Context, by bromine.By, value string) (bromine.WebElement, error) {
	i := 0
	return func(ctx context.Context, by bromine.By, value string) (bromine.WebElement, error) {
		if i < len(errs) {
			err := errs[i]
			i++
			return nil, err
		}
		return next(ctx, by, value)
	}
}

func findOne(elements map[bromine.Locator][]*Element, by bromine.By, value string) (bromine.WebElement, error) {
	found := elements[bromine.Locator{By: by, Value: value}]
	if len(found) == 0 {
		return nil, &bromine.NoSuchElementErr{Message: string(by) + "=" + value}
	}
	return found[0], nil
}

func findAll(elements map[bromine.Locator][]*Element, by bromine.By, value string) []bromine.WebElement {
	found := elements[bromine.Locator{By: by, Value: value}]
	ret := make([]bromine.WebElement, len(found))
	for i, ele := range found {
		ret[i] = ele
	}
	return ret
}
