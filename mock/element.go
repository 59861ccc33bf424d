package mock

import (
	"context"
	"fmt"
	"strconv"

	"gitlab.com/bromine/bromine"
)

type Element struct {
	Tag       string
	Content   string   // rendered text
	Value     string   // typed value for inputs
	Displayed bool     // visible
	Enabled   bool     // accepts input
	Stale     bool     // detached from the page, every call fails
	Options   []string // option texts (and values) of a select
	Selected  string   // selected option value
	Clicks    int
	Double    int // double clicks
	Children  map[bromine.Locator][]*Element

	ClearCalls    int
	SendKeysCalls int

	TextFn        func(ctx context.Context) (string, error)
	IsDisplayedFn func(ctx context.Context) (bool, error)
	IsEnabledFn   func(ctx context.Context) (bool, error)
}

// MakeMockElement that is displayed and enabled
func MakeMockElement(tag, content string) *Element {
	return &Element{
		Tag:       tag,
		Content:   content,
		Displayed: true,
		Enabled:   true,
		Children:  make(map[bromine.Locator][]*Element),
	}
}

// MakeMockSelect with options whose text and value are the same
func MakeMockSelect(options ...string) *Element {
	e := MakeMockElement("select", "")
	e.Options = options
	return e
}

func (e *Element) String() string {
	return fmt.Sprintf("<mock %s %q>", e.Tag, e.Content)
}

func (e *Element) stale() error {
	if e.Stale {
		return &bromine.StaleElementErr{Message: e.String()}
	}
	return nil
}

func (e *Element) FindElement(ctx context.Context, by bromine.By, value string) (bromine.WebElement, error) {
	if err := e.stale(); err != nil {
		return nil, err
	}
	return findOne(e.Children, by, value)
}

func (e *Element) FindElements(ctx context.Context, by bromine.By, value string) ([]bromine.WebElement, error) {
	if err := e.stale(); err != nil {
		return nil, err
	}
	return findAll(e.Children, by, value), nil
}

func (e *Element) Text(ctx context.Context) (string, error) {
	if e.TextFn != nil {
		return e.TextFn(ctx)
	}
	if err := e.stale(); err != nil {
		return "", err
	}
	return e.Content, nil
}

func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	if err := e.stale(); err != nil {
		return "", err
	}
	switch name {
	case "value":
		if e.Tag == "select" {
			return e.Selected, nil
		}
		return e.Value, nil
	case "tagName":
		return e.Tag, nil
	}
	return "", nil
}

func (e *Element) IsDisplayed(ctx context.Context) (bool, error) {
	if e.IsDisplayedFn != nil {
		return e.IsDisplayedFn(ctx)
	}
	if err := e.stale(); err != nil {
		return false, err
	}
	return e.Displayed, nil
}

func (e *Element) IsEnabled(ctx context.Context) (bool, error) {
	if e.IsEnabledFn != nil {
		return e.IsEnabledFn(ctx)
	}
	if err := e.stale(); err != nil {
		return false, err
	}
	return e.Enabled, nil
}

func (e *Element) Clear(ctx context.Context) error {
	e.ClearCalls++
	if err := e.stale(); err != nil {
		return err
	}
	e.Value = ""
	return nil
}

func (e *Element) Click(ctx context.Context) error {
	if err := e.stale(); err != nil {
		return err
	}
	e.Clicks++
	return nil
}

func (e *Element) DoubleClick(ctx context.Context) error {
	if err := e.stale(); err != nil {
		return err
	}
	e.Double++
	return nil
}

func (e *Element) SendKeys(ctx context.Context, keys string) error {
	e.SendKeysCalls++
	if err := e.stale(); err != nil {
		return err
	}
	e.Value += keys
	return nil
}

func (e *Element) Select(ctx context.Context, by bromine.SelectBy, value string) error {
	if err := e.stale(); err != nil {
		return err
	}
	if e.Tag != "select" {
		return bromine.ErrNotSelect
	}
	switch by {
	case bromine.SelectByIndex:
		idx, err := strconv.Atoi(value)
		if err != nil || idx >= len(e.Options) {
			return bromine.ErrNoSuchValue
		}
		e.Selected = e.Options[idx]
		return nil
	case bromine.SelectByText, bromine.SelectByValue:
		for _, opt := range e.Options {
			if opt == value {
				e.Selected = opt
				return nil
			}
		}
	}
	return bromine.ErrNoSuchValue
}
