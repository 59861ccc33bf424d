package bromine

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config for a Browser
type Config struct {
	Timeout      time.Duration // how long waits poll before giving up, default 2s
	PollInterval time.Duration // how often waits re-evaluate, default 100ms
	Logger       zerolog.Logger
}

// ConfigFunc modifies the Config of a new Browser
type ConfigFunc func(*Config)

// WithTimeout for all waits started from this browser
func WithTimeout(timeout time.Duration) ConfigFunc {
	return func(c *Config) { c.Timeout = timeout }
}

// WithPollInterval for all waits started from this browser
func WithPollInterval(interval time.Duration) ConfigFunc {
	return func(c *Config) { c.PollInterval = interval }
}

// WithLogger replaces the global zerolog logger
func WithLogger(logger zerolog.Logger) ConfigFunc {
	return func(c *Config) { c.Logger = logger }
}

// Browser wraps a driver to simplify interaction. It is meant to be used by one
// test goroutine at a time.
type Browser struct {
	driver Driver
	wait   *Waiter
	logger zerolog.Logger
}

// New browser around driver
func New(driver Driver, opts ...ConfigFunc) *Browser {
	cfg := &Config{
		Timeout:      DefaultTimeout,
		PollInterval: DefaultPollInterval,
		Logger:       log.Logger,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Browser{
		driver: driver,
		wait:   NewWaiter(cfg.Timeout, cfg.PollInterval),
		logger: cfg.Logger,
	}
}

// Driver returns the wrapped driver for anything the wrapper does not cover
func (b *Browser) Driver() Driver {
	return b.driver
}

// Waiter used by this browser
func (b *Browser) Waiter() *Waiter {
	return b.wait
}

// Navigate the driver to url
func (b *Browser) Navigate(ctx context.Context, url string) error {
	if b.driver == nil {
		return ErrNoDriver
	}
	b.logger.Debug().Str("url", url).Msg("navigating")
	return b.driver.Navigate(ctx, url)
}

// Title of the current page
func (b *Browser) Title(ctx context.Context) (string, error) {
	if b.driver == nil {
		return "", ErrNoDriver
	}
	return b.driver.Title(ctx)
}

// Execute script in the page and return its result, when the driver supports it
func (b *Browser) Execute(ctx context.Context, script string) (interface{}, error) {
	if b.driver == nil {
		return nil, ErrNoDriver
	}
	executor, ok := b.driver.(ScriptExecutor)
	if !ok {
		return nil, ErrNoScripts
	}
	return executor.ExecuteScript(ctx, script)
}

// Elem returns a lazy handle for sel. Nothing is looked up until it is used.
func (b *Browser) Elem(sel Selector) *FutureElement {
	return newFutureElement(b, sel)
}

// Find all elements matching sel, an empty slice if there are none
func (b *Browser) Find(ctx context.Context, sel Selector) ([]*Element, error) {
	loc, err := sel.Locator()
	if err != nil {
		return nil, err
	}
	if b.driver == nil {
		return nil, ErrNoDriver
	}
	found, err := b.driver.FindElements(ctx, loc.By, loc.Value)
	if err != nil {
		return nil, err
	}
	return wrapAll(found), nil
}

// Wait until a page level condition holds, e.g. Condition{"title_has": "Inbox"}.
// Returns the title that satisfied it.
func (b *Browser) Wait(ctx context.Context, cond Condition) (string, error) {
	name, arg, err := pickOne(cond, "wait condition", func(k string) bool {
		_, ok := pageConditions[k]
		return ok
	})
	if err != nil {
		return "", err
	}
	if b.driver == nil {
		return "", ErrNoDriver
	}

	var title string
	if _, err := b.wait.Until(ctx, b.driver, pageConditions[name](arg, &title)); err != nil {
		b.logger.Debug().Str("condition", name).Str("arg", arg).Err(err).Msg("page wait failed")
		return "", errors.Wrapf(err, "error waiting for %s %q", name, arg)
	}
	return title, nil
}
