package chrome

import (
	"context"
	"fmt"

	"gitlab.com/bromine/bromine"
)

// Element is a node registered by the page atoms under handle. Once the node is
// removed from the document, or the tab navigates away, every call returns
// *bromine.StaleElementErr.
type Element struct {
	tab    *Tab
	handle int
}

func newElement(tab *Tab, handle int) *Element {
	return &Element{tab: tab, handle: handle}
}

// Handle of the node in the page registry
func (e *Element) Handle() int {
	return e.handle
}

func (e *Element) String() string {
	desc := ""
	if err := e.tab.callAtom(context.Background(), &desc, "describe", e.handle); err != nil {
		desc = "stale"
	}
	return fmt.Sprintf("<chrome element %d %s>", e.handle, desc)
}

// FindElement returns the first descendant matching by/value
func (e *Element) FindElement(ctx context.Context, by bromine.By, value string) (bromine.WebElement, error) {
	return e.tab.findElement(ctx, e.handle, by, value)
}

// FindElements returns all descendants matching by/value
func (e *Element) FindElements(ctx context.Context, by bromine.By, value string) ([]bromine.WebElement, error) {
	return e.tab.findElements(ctx, e.handle, by, value)
}

// Text is the rendered text of the node
func (e *Element) Text(ctx context.Context) (string, error) {
	text := ""
	err := e.tab.callAtom(ctx, &text, "text", e.handle)
	return text, err
}

// Attribute returns the property name if it is a scalar, otherwise the attribute
func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	value := ""
	err := e.tab.callAtom(ctx, &value, "attr", e.handle, name)
	return value, err
}

// IsDisplayed if the node takes up space and is not hidden by style
func (e *Element) IsDisplayed(ctx context.Context) (bool, error) {
	displayed := false
	err := e.tab.callAtom(ctx, &displayed, "displayed", e.handle)
	return displayed, err
}

// IsEnabled if the node is not disabled
func (e *Element) IsEnabled(ctx context.Context) (bool, error) {
	enabled := false
	err := e.tab.callAtom(ctx, &enabled, "enabled", e.handle)
	return enabled, err
}

// Clear the value (or content for contenteditable nodes)
func (e *Element) Clear(ctx context.Context) error {
	return e.tab.callAtom(ctx, nil, "clear", e.handle)
}

// Click scrolls the node into view and clicks its centre
func (e *Element) Click(ctx context.Context) error {
	x, y, err := e.center(ctx)
	if err != nil {
		return err
	}
	return e.tab.Click(x, y)
}

// DoubleClick scrolls the node into view and double clicks its centre
func (e *Element) DoubleClick(ctx context.Context) error {
	x, y, err := e.center(ctx)
	if err != nil {
		return err
	}
	return e.tab.DoubleClick(x, y)
}

// center scrolls the node into view and moves the mouse over its centre
func (e *Element) center(ctx context.Context) (float64, float64, error) {
	point := struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}{}
	if err := e.tab.callAtom(ctx, &point, "center", e.handle); err != nil {
		return 0, 0, err
	}
	if err := e.tab.MoveMouse(point.X, point.Y); err != nil {
		return 0, 0, err
	}
	return point.X, point.Y, nil
}

// SendKeys focuses the node and types keys
func (e *Element) SendKeys(ctx context.Context, keys string) error {
	if err := e.tab.callAtom(ctx, nil, "focus", e.handle); err != nil {
		return err
	}
	return e.tab.SendKeys(keys)
}

// Select an option of a select node
func (e *Element) Select(ctx context.Context, by bromine.SelectBy, value string) error {
	return e.tab.callAtom(ctx, nil, "select", e.handle, string(by), value)
}
