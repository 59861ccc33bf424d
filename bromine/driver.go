package bromine

import (
	"context"
)

// By is a lookup strategy understood by drivers
type By string

// revive:disable:exported
const (
	ByID              By = "id"
	ByXPath           By = "xpath"
	ByLinkText        By = "link text"
	ByPartialLinkText By = "partial link text"
	ByName            By = "name"
	ByTagName         By = "tag name"
	ByClassName       By = "class name"
	ByCSSSelector     By = "css selector"
)

// Locator is a resolved (strategy, value) pair
type Locator struct {
	By    By
	Value string
}

func (l Locator) String() string {
	return string(l.By) + "=" + l.Value
}

// SelectBy is how an option of a select element is picked
type SelectBy string

// revive:disable:exported
const (
	SelectByIndex SelectBy = "index"
	SelectByText  SelectBy = "text"
	SelectByValue SelectBy = "value"
)

// Special keys understood by SendKeys
const (
	Enter     = "\r"
	Return    = "\n"
	Tab       = "\t"
	Backspace = "\b"
)

// Driver is the subset of an automation driver the wrapper relies on.
// Implementations must return *NoSuchElementErr when FindElement matches nothing.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Title(ctx context.Context) (string, error)
	FindElement(ctx context.Context, by By, value string) (WebElement, error)
	FindElements(ctx context.Context, by By, value string) ([]WebElement, error)
}

// WebElement is a concrete element handle returned by a Driver. Calls on a
// detached element must return *StaleElementErr.
type WebElement interface {
	FindElement(ctx context.Context, by By, value string) (WebElement, error)
	FindElements(ctx context.Context, by By, value string) ([]WebElement, error)
	Text(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, error)
	IsDisplayed(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)
	Clear(ctx context.Context) error
	Click(ctx context.Context) error
	SendKeys(ctx context.Context, keys string) error
	Select(ctx context.Context, by SelectBy, value string) error
}

// ScriptExecutor is implemented by drivers that can evaluate javascript in the page
type ScriptExecutor interface {
	ExecuteScript(ctx context.Context, script string) (interface{}, error)
}
