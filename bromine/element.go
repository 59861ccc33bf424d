package bromine

import (
	"context"
	"fmt"
)

// Element wraps a found WebElement. Lookup and not-found errors from the driver are
// returned unmodified. A nil *Element is safe to call and returns ErrNoElement, which
// is what a negated FutureElement.Wait hands back when nothing was ever resolved.
type Element struct {
	ele WebElement
}

// Wrap an element returned directly by a driver
func Wrap(ele WebElement) *Element {
	return &Element{ele: ele}
}

func wrapAll(found []WebElement) []*Element {
	elements := make([]*Element, len(found))
	for i, ele := range found {
		elements[i] = Wrap(ele)
	}
	return elements
}

// Raw returns the underlying driver element, nil for a nil Element
func (e *Element) Raw() WebElement {
	if e == nil {
		return nil
	}
	return e.ele
}

func (e *Element) raw() (WebElement, error) {
	if e == nil || e.ele == nil {
		return nil, ErrNoElement
	}
	return e.ele, nil
}

// Elem finds a single descendant matching sel
func (e *Element) Elem(ctx context.Context, sel Selector) (*Element, error) {
	loc, err := sel.Locator()
	if err != nil {
		return nil, err
	}
	ele, err := e.raw()
	if err != nil {
		return nil, err
	}
	child, err := ele.FindElement(ctx, loc.By, loc.Value)
	if err != nil {
		return nil, err
	}
	return Wrap(child), nil
}

// Find all descendants matching sel, an empty slice if there are none
func (e *Element) Find(ctx context.Context, sel Selector) ([]*Element, error) {
	loc, err := sel.Locator()
	if err != nil {
		return nil, err
	}
	ele, err := e.raw()
	if err != nil {
		return nil, err
	}
	found, err := ele.FindElements(ctx, loc.By, loc.Value)
	if err != nil {
		return nil, err
	}
	return wrapAll(found), nil
}

// Select picks an item of a SELECT element by index, visible text or value
func (e *Element) Select(ctx context.Context, opt Option) error {
	by, val, err := opt.resolve()
	if err != nil {
		return err
	}
	ele, err := e.raw()
	if err != nil {
		return err
	}
	return ele.Select(ctx, by, val)
}

// Clear the element's content and return the element itself so calls can be chained:
//	input.Clear(ctx) then .SendKeys(ctx, "...")
func (e *Element) Clear(ctx context.Context) (*Element, error) {
	ele, err := e.raw()
	if err != nil {
		return nil, err
	}
	if err := ele.Clear(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Click the element
func (e *Element) Click(ctx context.Context) error {
	ele, err := e.raw()
	if err != nil {
		return err
	}
	return ele.Click(ctx)
}

// SendKeys types keys into the element, see Enter, Tab and Backspace for special keys
func (e *Element) SendKeys(ctx context.Context, keys string) error {
	ele, err := e.raw()
	if err != nil {
		return err
	}
	return ele.SendKeys(ctx, keys)
}

// Text is the rendered text of the element
func (e *Element) Text(ctx context.Context) (string, error) {
	ele, err := e.raw()
	if err != nil {
		return "", err
	}
	return ele.Text(ctx)
}

// Attribute value of name, empty if not set
func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	ele, err := e.raw()
	if err != nil {
		return "", err
	}
	return ele.Attribute(ctx, name)
}

// IsDisplayed reports visibility
func (e *Element) IsDisplayed(ctx context.Context) (bool, error) {
	ele, err := e.raw()
	if err != nil {
		return false, err
	}
	return ele.IsDisplayed(ctx)
}

// IsEnabled reports if the element accepts input
func (e *Element) IsEnabled(ctx context.Context) (bool, error) {
	ele, err := e.raw()
	if err != nil {
		return false, err
	}
	return ele.IsEnabled(ctx)
}

func (e *Element) String() string {
	if e == nil {
		return "<wrapped nothing>"
	}
	return fmt.Sprintf("<wrapped %v>", e.ele)
}
