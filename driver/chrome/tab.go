package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/wirepair/gcd"
	"github.com/wirepair/gcd/gcdapi"
	"gitlab.com/bromine/bromine"
)

var tabCounter int64

// Tab is a chrome tab driven over the devtools protocol. It implements bromine.Driver.
type Tab struct {
	g                     *gcd.Gcd
	t                     *gcd.ChromeTarget
	id                    int64
	isNavigatingFlag      atomic.Value  // are we currently navigating (between Page.Navigate -> page.loadEventFired)
	navigationCh          chan struct{} // for receiving navigation complete messages while isNavigating is true
	crashedCh             chan string   // the chrome tab crashed with a reason
	exitCh                chan struct{} // for when we close the tab, kill go routines
	closed                int32         // have we already shut down
	navigationTimeout     time.Duration // amount of time to wait before failing navigation
	stabilityTimeout      time.Duration // amount of time to give up waiting for stability
	stableAfter           time.Duration // amount of time of no activity to consider the DOM stable
	lastNodeChangeTimeVal atomic.Value  // timestamp of when the last node change occurred
}

// NewTab to use
func NewTab(ctx context.Context, gcdBrowser *gcd.Gcd, target *gcd.ChromeTarget) *Tab {
	t := &Tab{
		g:            gcdBrowser,
		t:            target,
		id:           atomic.AddInt64(&tabCounter, 1),
		navigationCh: make(chan struct{}, 1),
		crashedCh:    make(chan string, 1),
		exitCh:       make(chan struct{}),
	}
	t.navigationTimeout = 30 * time.Second // default 30 seconds for timeout
	t.stabilityTimeout = 2 * time.Second   // default 2 seconds before we give up waiting for stability
	t.stableAfter = 300 * time.Millisecond // default 300 ms for considering the DOM stable
	t.subscribeBrowserEvents(ctx)
	return t
}

// Close the exit channel, safe to call more than once
func (t *Tab) Close() {
	if atomic.CompareAndSwapInt32(&t.closed, 0, 1) {
		close(t.exitCh)
	}
}

// ID of this tab
func (t *Tab) ID() int64 {
	return t.id
}

// Target returns the raw gcd target for anything not covered here
func (t *Tab) Target() *gcd.ChromeTarget {
	return t.t
}

// SetNavigationTimeout to wait for navigations before giving up, default is 30 seconds
func (t *Tab) SetNavigationTimeout(timeout time.Duration) {
	t.navigationTimeout = timeout
}

// SetStabilityTimeout to wait for the DOM to settle after load, default is 2 seconds.
func (t *Tab) SetStabilityTimeout(timeout time.Duration) {
	t.stabilityTimeout = timeout
}

// SetStabilityTime to wait for no node changes before we consider the DOM stable.
// Note that stability timeout will fire if the DOM is constantly changing.
// The default stableAfter is 300 ms.
func (t *Tab) SetStabilityTime(stableAfter time.Duration) {
	t.stableAfter = stableAfter
}

func (t *Tab) setIsNavigating(set bool) {
	t.isNavigatingFlag.Store(set)
}

// IsNavigating answers if we currently navigating
func (t *Tab) IsNavigating() bool {
	if flag, ok := t.isNavigatingFlag.Load().(bool); ok {
		return flag
	}
	return false
}

// Navigate to url and wait for the load event and a settled DOM
func (t *Tab) Navigate(ctx context.Context, url string) error {
	log.Ctx(ctx).Debug().Str("url", url).Msg("navigating")
	err := t.navigateWith(ctx, func() error {
		navParams := &gcdapi.PageNavigateParams{Url: url, TransitionType: "typed"}
		_, _, errText, err := t.t.Page.NavigateWithParams(navParams)
		if err != nil {
			return err
		}
		if errText != "" {
			return errors.Wrap(ErrNavigating, errText)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if failed, code := t.DidNavigationFail(); failed {
		return errors.Wrap(ErrNavigating, code)
	}
	return nil
}

// navigateWith runs start, which must trigger a navigation, then waits until it is ready
func (t *Tab) navigateWith(ctx context.Context, start func() error) error {
	t.setIsNavigating(true)
	defer t.setIsNavigating(false)

	// drop a load event left over from a navigation we did not start
	select {
	case <-t.navigationCh:
	default:
	}

	if err := start(); err != nil {
		return err
	}
	return t.WaitReady(ctx, t.stableAfter)
}

// WaitReady waits for the page to load and the DOM to be stable
func (t *Tab) WaitReady(ctx context.Context, stableAfter time.Duration) error {
	navTimer := time.NewTimer(t.navigationTimeout)
	defer navTimer.Stop()

	select {
	case <-navTimer.C:
		return ErrNavigationTimedOut
	case <-ctx.Done():
		return ctx.Err()
	case <-t.exitCh:
		return ErrTabClosing
	case reason := <-t.crashedCh:
		return errors.Wrap(ErrTabCrashed, reason)
	case <-t.navigationCh:
	}

	// DOM change events are only sent for documents we have requested
	if _, err := t.t.DOM.GetDocument(-1, true); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to get document")
	}
	t.lastNodeChangeTimeVal.Store(time.Now())

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	stableTimer := time.NewTimer(t.stabilityTimeout)
	defer stableTimer.Stop()

	for {
		select {
		case reason := <-t.crashedCh:
			return errors.Wrap(ErrTabCrashed, reason)
		case <-ctx.Done():
			return ctx.Err()
		case <-t.exitCh:
			return ErrTabClosing
		case <-stableTimer.C:
			log.Ctx(ctx).Debug().Msg("stability timed out, DOM still changing")
			return nil
		case <-ticker.C:
			if changeTime, ok := t.lastNodeChangeTimeVal.Load().(time.Time); ok {
				if time.Since(changeTime) >= stableAfter {
					return nil
				}
			}
		}
	}
}

// Title of the current document
func (t *Tab) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r, err := t.EvaluateScript("document.title")
	if err != nil {
		return "", err
	}
	title, _ := r.Value.(string)
	return title, nil
}

// URL by looking at the navigation history
func (t *Tab) URL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	idx, entries, err := t.NavigationHistory()
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(entries) {
		return "", nil
	}
	return entries[idx].Url, nil
}

// FindElement returns the first element matching by/value in the top document
func (t *Tab) FindElement(ctx context.Context, by bromine.By, value string) (bromine.WebElement, error) {
	return t.findElement(ctx, -1, by, value)
}

// FindElements returns all elements matching by/value in the top document
func (t *Tab) FindElements(ctx context.Context, by bromine.By, value string) ([]bromine.WebElement, error) {
	return t.findElements(ctx, -1, by, value)
}

func (t *Tab) findElement(ctx context.Context, parent int, by bromine.By, value string) (bromine.WebElement, error) {
	found, err := t.findElements(ctx, parent, by, value)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, &bromine.NoSuchElementErr{Message: fmt.Sprintf("%s=%s", by, value)}
	}
	return found[0], nil
}

func (t *Tab) findElements(ctx context.Context, parent int, by bromine.By, value string) ([]bromine.WebElement, error) {
	var handles []int
	if err := t.callAtom(ctx, &handles, "find", parent, string(by), value); err != nil {
		return nil, err
	}
	elements := make([]bromine.WebElement, len(handles))
	for i, handle := range handles {
		elements[i] = newElement(t, handle)
	}
	return elements, nil
}

// DidNavigationFail uses an undocumented method of determining if chromium failed to load
// a page due to DNS or connection timeouts.
func (t *Tab) DidNavigationFail() (bool, string) {
	// if loadTimeData doesn't exist, or we get a js error, this means no error occurred.
	rro, err := t.EvaluateScript("loadTimeData.data_.errorCode")
	if err != nil {
		return false, ""
	}
	if val, ok := rro.Value.(string); ok {
		return true, val
	}
	return false, ""
}

// ExecuteScript evaluates script and returns its value, awaiting it if it is a promise.
// Implements bromine.ScriptExecutor.
func (t *Tab) ExecuteScript(ctx context.Context, script string) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := t.EvaluatePromiseScript(script)
	if err != nil {
		return nil, err
	}
	return r.Value, nil
}

// EvaluateScript in the global context.
func (t *Tab) EvaluateScript(scriptSource string) (*gcdapi.RuntimeRemoteObject, error) {
	return t.evaluateScript(scriptSource, false)
}

// EvaluatePromiseScript in the global context.
func (t *Tab) EvaluatePromiseScript(scriptSource string) (*gcdapi.RuntimeRemoteObject, error) {
	return t.evaluateScript(scriptSource, true)
}

func (t *Tab) evaluateScript(scriptSource string, awaitPromise bool) (*gcdapi.RuntimeRemoteObject, error) {
	params := &gcdapi.RuntimeEvaluateParams{
		Expression:            scriptSource,
		ObjectGroup:           "bromine",
		IncludeCommandLineAPI: false,
		Silent:                true,
		ReturnByValue:         true,
		GeneratePreview:       false,
		UserGesture:           false,
		AwaitPromise:          awaitPromise,
		ThrowOnSideEffect:     false,
		Timeout:               1000,
	}
	r, exp, err := t.t.Runtime.EvaluateWithParams(params)
	if err != nil {
		return nil, err
	}
	if exp != nil {
		return nil, &ScriptEvaluationErr{Message: "script threw", ExceptionText: exp.Text, ExceptionDetails: exp}
	}
	return r, nil
}

// NavigationHistory the current navigation index, history entries or error
func (t *Tab) NavigationHistory() (int, []*gcdapi.PageNavigationEntry, error) {
	return t.t.Page.GetNavigationHistory()
}

// Reload the page and wait for it to be ready, ignoreCache acts like ctrl+f5
func (t *Tab) Reload(ctx context.Context, ignoreCache bool) error {
	return t.navigateWith(ctx, func() error {
		_, err := t.t.Page.Reload(ignoreCache, "")
		return err
	})
}

// Forward navigates to the next entry in the history and waits for it to be ready
func (t *Tab) Forward(ctx context.Context) error {
	return t.historyStep(ctx, 1)
}

// Back navigates to the previous entry in the history and waits for it to be ready
func (t *Tab) Back(ctx context.Context) error {
	return t.historyStep(ctx, -1)
}

func (t *Tab) historyStep(ctx context.Context, delta int) error {
	idx, entries, err := t.NavigationHistory()
	if err != nil {
		return err
	}
	next := idx + delta
	if next < 0 || next >= len(entries) {
		if delta < 0 {
			return &InvalidNavigationErr{Message: "Unable to navigate backward as we are on the first navigation entry"}
		}
		return &InvalidNavigationErr{Message: "Unable to navigate forward as we are on the latest navigation entry"}
	}
	return t.navigateWith(ctx, func() error {
		_, err := t.t.Page.NavigateToHistoryEntry(entries[next].Id)
		return err
	})
}

// PageSource serializes the current DOM
func (t *Tab) PageSource(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	node, err := t.t.DOM.GetDocument(-1, true)
	if err != nil {
		return "", err
	}
	return t.t.DOM.GetOuterHTMLWithParams(&gcdapi.DOMGetOuterHTMLParams{NodeId: node.NodeId})
}

// Screenshot returns a png image, base64 encoded, or error if failed
func (t *Tab) Screenshot(ctx context.Context) (string, error) {
	params := &gcdapi.PageCaptureScreenshotParams{
		Format:  "png",
		Quality: 100,
		Clip: &gcdapi.PageViewport{
			X:      0,
			Y:      0,
			Width:  1024,
			Height: 768,
			Scale:  float64(1)},
		FromSurface: true,
	}
	return t.t.Page.CaptureScreenshotWithParams(params)
}

func (t *Tab) domUpdated(target *gcd.ChromeTarget, payload []byte) {
	t.lastNodeChangeTimeVal.Store(time.Now())
}

// signalCrash keeps the first unread reason so the next wait sees it
func (t *Tab) signalCrash(reason string) {
	log.Debug().Str("reason", reason).Int64("tab", t.id).Msg("tab disconnected")
	select {
	case t.crashedCh <- reason:
	default:
	}
}

func (t *Tab) subscribeBrowserEvents(ctx context.Context) {
	t.t.DOM.Enable()
	t.t.Inspector.Enable()
	t.t.Page.Enable()
	t.t.Security.Enable()

	t.t.Security.SetOverrideCertificateErrors(true)

	t.t.Subscribe("Security.certificateError", func(target *gcd.ChromeTarget, payload []byte) {
		resp := &gcdapi.SecurityCertificateErrorEvent{}
		if err := json.Unmarshal(payload, resp); err != nil {
			return
		}
		log.Ctx(ctx).Debug().Str("type", resp.Params.ErrorType).Msg("handling certificate error")
		p := &gcdapi.SecurityHandleCertificateErrorParams{
			EventId: resp.Params.EventId,
			Action:  "continue",
		}
		t.t.Security.HandleCertificateErrorWithParams(p)
	})

	t.t.Subscribe("Inspector.targetCrashed", func(target *gcd.ChromeTarget, payload []byte) {
		log.Ctx(ctx).Warn().Msgf("tab crashed: %s", string(payload))
		t.signalCrash("crashed")
	})

	t.t.Subscribe("Inspector.detached", func(target *gcd.ChromeTarget, payload []byte) {
		header := &gcdapi.InspectorDetachedEvent{}
		reason := "detached"
		if err := json.Unmarshal(payload, header); err == nil {
			reason = header.Params.Reason
		}
		t.signalCrash(reason)
	})

	t.t.Subscribe("Page.loadEventFired", func(target *gcd.ChromeTarget, payload []byte) {
		if !t.IsNavigating() {
			return
		}
		select {
		case t.navigationCh <- struct{}{}:
		default:
		}
	})

	for _, evt := range []string{
		"DOM.setChildNodes",
		"DOM.attributeModified",
		"DOM.attributeRemoved",
		"DOM.characterDataModified",
		"DOM.childNodeCountUpdated",
		"DOM.childNodeInserted",
		"DOM.childNodeRemoved",
		"DOM.documentUpdated",
	} {
		t.t.Subscribe(evt, t.domUpdated)
	}
}
