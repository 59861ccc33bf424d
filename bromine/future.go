package bromine

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

type futureState uint8

const (
	unresolved futureState = iota
	resolved
)

// FutureElement is an element that has not been looked up yet. It resolves on first
// use and keeps the result; attribute access never looks it up again, so a handle that
// went stale stays stale. A successful positive Wait replaces the cached element with
// the one that satisfied the condition.
type FutureElement struct {
	browser *Browser
	sel     Selector
	state   futureState
	elem    *Element
}

func newFutureElement(b *Browser, sel Selector) *FutureElement {
	return &FutureElement{browser: b, sel: sel}
}

// Selector this handle was created with
func (f *FutureElement) Selector() Selector {
	return f.sel
}

// IsResolved reports whether the handle already holds an element
func (f *FutureElement) IsResolved() bool {
	return f.state == resolved
}

// Wait until the element satisfies condition: "present" (the default when empty),
// "clickable", "visible" or "text". Any of them can be negated as "not visible".
// For "text" the optional arg is the substring to wait for, without it any text will do.
//
// A positive wait stores and returns the element that satisfied it, replacing any
// cached one. A negated wait returns the cached element if there is one and nil
// otherwise, since nothing was found to resolve to; calls on that nil Element
// return ErrNoElement.
func (f *FutureElement) Wait(ctx context.Context, condition string, arg ...string) (*Element, error) {
	if len(arg) > 1 {
		return nil, &ArgumentErr{Message: "only one condition argument, please"}
	}
	name, negate, err := parseElementCondition(condition)
	if err != nil {
		return nil, err
	}
	loc, err := f.sel.Locator()
	if err != nil {
		return nil, err
	}
	if f.browser.driver == nil {
		return nil, ErrNoDriver
	}

	logger := f.browser.logger.With().Str("selector", f.sel.String()).Str("condition", condition).Logger()
	cond := elementConditions[name](loc, arg)
	wait := f.browser.wait

	if negate {
		if err := wait.UntilNot(ctx, f.browser.driver, cond); err != nil {
			logger.Debug().Err(err).Msg("wait failed")
			return nil, f.enrich(err, name, negate, arg)
		}
		return f.elem, nil
	}

	ele, err := wait.Until(ctx, f.browser.driver, cond)
	if err != nil {
		logger.Debug().Err(err).Msg("wait failed")
		return nil, f.enrich(err, name, negate, arg)
	}
	logger.Debug().Msg("wait satisfied")
	return f.resolve(ele), nil
}

// Resolve the handle with a single lookup, no polling. Once resolved the cached
// element is returned without touching the driver.
func (f *FutureElement) Resolve(ctx context.Context) (*Element, error) {
	if f.state == resolved {
		return f.elem, nil
	}
	loc, err := f.sel.Locator()
	if err != nil {
		return nil, err
	}
	if f.browser.driver == nil {
		return nil, ErrNoDriver
	}
	ele, err := f.browser.driver.FindElement(ctx, loc.By, loc.Value)
	if err != nil {
		return nil, err
	}
	return f.resolve(ele), nil
}

// resolve caches ele, replacing whatever was cached before
func (f *FutureElement) resolve(ele WebElement) *Element {
	f.elem = Wrap(ele)
	f.state = resolved
	return f.elem
}

func (f *FutureElement) enrich(err error, name string, negate bool, arg []string) error {
	not := ""
	if negate {
		not = "not "
	}
	detail := ""
	if len(arg) > 0 {
		detail = fmt.Sprintf(" (%s)", arg[0])
	}
	return errors.Wrapf(err, "error waiting for '%s' to be %s%s%s: %s", f.sel, not, name, detail, errorTypeName(err))
}

// Raw resolves the handle and returns the underlying driver element
func (f *FutureElement) Raw(ctx context.Context) (WebElement, error) {
	ele, err := f.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return ele.Raw(), nil
}

// Elem finds a descendant of the resolved element
func (f *FutureElement) Elem(ctx context.Context, sel Selector) (*Element, error) {
	ele, err := f.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return ele.Elem(ctx, sel)
}

// Find descendants of the resolved element
func (f *FutureElement) Find(ctx context.Context, sel Selector) ([]*Element, error) {
	ele, err := f.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return ele.Find(ctx, sel)
}

// Text of the resolved element
func (f *FutureElement) Text(ctx context.Context) (string, error) {
	ele, err := f.Resolve(ctx)
	if err != nil {
		return "", err
	}
	return ele.Text(ctx)
}

// Attribute of the resolved element
func (f *FutureElement) Attribute(ctx context.Context, name string) (string, error) {
	ele, err := f.Resolve(ctx)
	if err != nil {
		return "", err
	}
	return ele.Attribute(ctx, name)
}

// IsDisplayed of the resolved element
func (f *FutureElement) IsDisplayed(ctx context.Context) (bool, error) {
	ele, err := f.Resolve(ctx)
	if err != nil {
		return false, err
	}
	return ele.IsDisplayed(ctx)
}

// IsEnabled of the resolved element
func (f *FutureElement) IsEnabled(ctx context.Context) (bool, error) {
	ele, err := f.Resolve(ctx)
	if err != nil {
		return false, err
	}
	return ele.IsEnabled(ctx)
}

// Interactions below only make sense once the element can take input, so they
// always wait for it to be clickable first.

// Clear waits for the element to be clickable, clears it and returns it for chaining
func (f *FutureElement) Clear(ctx context.Context) (*Element, error) {
	ele, err := f.Wait(ctx, "clickable")
	if err != nil {
		return nil, err
	}
	return ele.Clear(ctx)
}

// Click waits for the element to be clickable and clicks it
func (f *FutureElement) Click(ctx context.Context) error {
	ele, err := f.Wait(ctx, "clickable")
	if err != nil {
		return err
	}
	return ele.Click(ctx)
}

// SendKeys waits for the element to be clickable and types keys into it
func (f *FutureElement) SendKeys(ctx context.Context, keys string) error {
	ele, err := f.Wait(ctx, "clickable")
	if err != nil {
		return err
	}
	return ele.SendKeys(ctx, keys)
}

// Select waits for the element to be clickable and picks an option
func (f *FutureElement) Select(ctx context.Context, opt Option) error {
	ele, err := f.Wait(ctx, "clickable")
	if err != nil {
		return err
	}
	return ele.Select(ctx, opt)
}

func (f *FutureElement) String() string {
	if f.state == resolved {
		return fmt.Sprintf("<future %s: %s>", f.sel, f.elem)
	}
	return fmt.Sprintf("<future %s: unresolved>", f.sel)
}
