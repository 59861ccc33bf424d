package bromine_test

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"gitlab.com/bromine/bromine"
	"gitlab.com/bromine/mock"
)

func TestFutureResolvesOnce(t *testing.T) {
	input := mock.MakeMockElement("input", "search")
	d := mock.MakeMockDriver("", map[bromine.Locator][]*mock.Element{searchBox: {input}})
	b := testBrowser(d)
	ctx := context.Background()

	f := b.Elem(bromine.CSS("#q"))
	first, err := f.Resolve(ctx)
	if err != nil {
		t.Fatalf("error resolving: %s", err)
	}
	text, err := f.Text(ctx)
	if err != nil || text != "search" {
		t.Fatalf("expected text search got %q (%v)", text, err)
	}
	second, _ := f.Resolve(ctx)

	if first != second {
		t.Fatalf("expected the cached element to be reused")
	}
	if d.FindElementCalls != 1 {
		t.Fatalf("expected a single lookup got %d", d.FindElementCalls)
	}

	// a cached element is never re-validated
	input.Stale = true
	if _, err := f.Text(ctx); !bromine.IsStale(err) {
		t.Fatalf("expected the stale cached element to be used got %v", err)
	}
	if d.FindElementCalls != 1 {
		t.Fatalf("stale cache must not trigger a new lookup")
	}
}

func TestFutureResolveNotFound(t *testing.T) {
	d := mock.MakeMockDriver("", nil)
	b := testBrowser(d)

	f := b.Elem(bromine.ID("missing"))
	_, err := f.Text(context.Background())
	if _, ok := err.(*bromine.NoSuchElementErr); !ok {
		t.Fatalf("expected the driver error as is got %#v", err)
	}
	if f.IsResolved() {
		t.Fatalf("failed lookup must leave the handle unresolved")
	}
	if d.FindElementCalls != 1 {
		t.Fatalf("attribute access must not poll, got %d lookups", d.FindElementCalls)
	}
}

func TestFutureWaitCaches(t *testing.T) {
	input := mock.MakeMockElement("input", "")
	d := mock.MakeMockDriver("", map[bromine.Locator][]*mock.Element{searchBox: {input}})
	d.FindElementFn = mock.Sequence(d.FindElementFn, &bromine.NoSuchElementErr{}, &bromine.NoSuchElementErr{})
	b := testBrowser(d)
	ctx := context.Background()

	f := b.Elem(bromine.CSS("#q"))
	ele, err := f.Wait(ctx, "")
	if err != nil {
		t.Fatalf("error waiting for presence: %s", err)
	}
	if !f.IsResolved() {
		t.Fatalf("wait must resolve the handle")
	}
	cached, _ := f.Resolve(ctx)
	if cached != ele {
		t.Fatalf("expected the waited element to be cached")
	}
	again, err := f.Wait(ctx, "visible")
	if err != nil || again.Raw() != ele.Raw() {
		t.Fatalf("later waits must return the element that satisfied them (%v)", err)
	}
}

func TestFutureWaitReplacesStaleElement(t *testing.T) {
	old := mock.MakeMockElement("button", "go")
	fresh := mock.MakeMockElement("button", "go")
	goButton := bromine.Locator{By: bromine.ByID, Value: "go"}
	elements := map[bromine.Locator][]*mock.Element{goButton: {old}}
	d := mock.MakeMockDriver("", elements)
	b := testBrowser(d)
	ctx := context.Background()

	f := b.Elem(bromine.ID("go"))
	if _, err := f.Resolve(ctx); err != nil {
		t.Fatalf("error resolving: %s", err)
	}
	// the page re-rendered the button
	old.Stale = true
	elements[goButton] = []*mock.Element{fresh}

	ele, err := f.Wait(ctx, "clickable")
	if err != nil {
		t.Fatalf("error waiting for clickable: %s", err)
	}
	if ele.Raw() != fresh {
		t.Fatalf("expected the element that passed the wait got %v", ele)
	}
	if cached, _ := f.Resolve(ctx); cached.Raw() != fresh {
		t.Fatalf("expected the fresh element to be cached")
	}
	if err := f.Click(ctx); err != nil {
		t.Fatalf("error clicking after re-render: %s", err)
	}
	if fresh.Clicks != 1 || old.Clicks != 0 {
		t.Fatalf("expected the fresh button to be clicked got old=%d fresh=%d", old.Clicks, fresh.Clicks)
	}
}

func TestFutureNegatedWaitNilElement(t *testing.T) {
	d := mock.MakeMockDriver("", nil)
	b := testBrowser(d)
	ctx := context.Background()

	ele, err := b.Elem(bromine.ID("spinner")).Wait(ctx, "not present")
	if err != nil {
		t.Fatalf("missing element must satisfy not present: %s", err)
	}
	if ele != nil {
		t.Fatalf("expected no element got %v", ele)
	}
	if err := ele.Click(ctx); err != bromine.ErrNoElement {
		t.Fatalf("expected ErrNoElement got %v", err)
	}
	if _, err := ele.Text(ctx); err != bromine.ErrNoElement {
		t.Fatalf("expected ErrNoElement got %v", err)
	}
	if ele.Raw() != nil {
		t.Fatalf("expected nil raw element")
	}
}

func TestFutureWaitText(t *testing.T) {
	msg := mock.MakeMockElement("div", "")
	calls := 0
	msg.TextFn = func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "saving", nil
		}
		return "saved!", nil
	}
	status := bromine.Locator{By: bromine.ByID, Value: "status"}
	d := mock.MakeMockDriver("", map[bromine.Locator][]*mock.Element{status: {msg}})
	b := testBrowser(d)

	if _, err := b.Elem(bromine.ID("status")).Wait(context.Background(), "text", "saved"); err != nil {
		t.Fatalf("error waiting for text: %s", err)
	}
}

func TestFutureWaitNotClickable(t *testing.T) {
	button := mock.MakeMockElement("button", "submit")
	submit := bromine.Locator{By: bromine.ByCSSSelector, Value: "button[type=submit]"}
	d := mock.MakeMockDriver("", map[bromine.Locator][]*mock.Element{submit: {button}})
	b := testBrowser(d)
	ctx := context.Background()

	f := b.Elem(bromine.CSS("button[type=submit]"))
	_, err := f.Wait(ctx, "not clickable")
	if !bromine.IsTimeout(err) {
		t.Fatalf("expected a timeout while the button is clickable got %v", err)
	}
	if !strings.Contains(err.Error(), "error waiting for 'css: button[type=submit]' to be not clickable: TimeoutErr") {
		t.Fatalf("expected enriched message got %s", err)
	}
	if f.IsResolved() {
		t.Fatalf("negated wait must not resolve the handle")
	}

	button.Enabled = false
	ele, err := f.Wait(ctx, "not clickable")
	if err != nil {
		t.Fatalf("expected the button to be not clickable: %s", err)
	}
	if ele != nil {
		t.Fatalf("negated wait on an unresolved handle returns nil")
	}
}

func TestFutureWaitEnrichedError(t *testing.T) {
	d := mock.MakeMockDriver("", nil)
	b := testBrowser(d)

	_, err := b.Elem(bromine.Selector{"name": "q"}).Wait(context.Background(), "text", "hello")
	if err == nil {
		t.Fatalf("expected timeout")
	}
	expected := "error waiting for 'name: q' to be text (hello): TimeoutErr"
	if !strings.HasPrefix(err.Error(), expected) {
		t.Fatalf("expected %q got %q", expected, err.Error())
	}
	var timeout *bromine.TimeoutErr
	if !errors.As(err, &timeout) {
		t.Fatalf("underlying error type must be preserved")
	}
	if _, ok := errors.Cause(err).(*bromine.TimeoutErr); !ok {
		t.Fatalf("expected cause to be TimeoutErr")
	}
}

func TestFutureWaitBadCondition(t *testing.T) {
	d := mock.MakeMockDriver("", nil)
	b := testBrowser(d)
	ctx := context.Background()
	f := b.Elem(bromine.CSS("#q"))

	for _, cond := range []string{"focused", "not focused", "nothing"} {
		_, err := f.Wait(ctx, cond)
		if _, ok := err.(*bromine.ArgumentErr); !ok {
			t.Fatalf("%s: expected ArgumentErr got %#v", cond, err)
		}
	}
	if _, err := f.Wait(ctx, "text", "a", "b"); err == nil {
		t.Fatalf("expected error for two arguments")
	}
	if d.FindElementCalls != 0 {
		t.Fatalf("bad conditions must not reach the driver")
	}
}

func TestFutureInteractionsWaitForClickable(t *testing.T) {
	input := mock.MakeMockElement("input", "")
	input.Value = "stale text"
	shown := 0
	input.IsDisplayedFn = func(ctx context.Context) (bool, error) {
		shown++
		return shown > 2, nil
	}
	d := mock.MakeMockDriver("", map[bromine.Locator][]*mock.Element{searchBox: {input}})
	b := testBrowser(d)
	ctx := context.Background()

	f := b.Elem(bromine.CSS("#q"))
	ele, err := f.Clear(ctx)
	if err != nil {
		t.Fatalf("error clearing: %s", err)
	}
	if shown < 3 {
		t.Fatalf("expected Clear to wait for visibility, checked %d times", shown)
	}
	if err := ele.SendKeys(ctx, "query"); err != nil {
		t.Fatalf("error typing: %s", err)
	}
	if err := f.Click(ctx); err != nil {
		t.Fatalf("error clicking: %s", err)
	}
	if input.Value != "query" || input.Clicks != 1 {
		t.Fatalf("unexpected element state %q %d", input.Value, input.Clicks)
	}
}

func TestFutureInteractionTimeout(t *testing.T) {
	input := mock.MakeMockElement("input", "")
	input.Enabled = false
	d := mock.MakeMockDriver("", map[bromine.Locator][]*mock.Element{searchBox: {input}})
	b := testBrowser(d)

	err := b.Elem(bromine.CSS("#q")).SendKeys(context.Background(), "x")
	if !bromine.IsTimeout(err) {
		t.Fatalf("expected timeout for disabled input got %v", err)
	}
	if input.SendKeysCalls != 0 {
		t.Fatalf("keys must not be sent to a disabled input")
	}
}

func TestFutureSelect(t *testing.T) {
	colour := mock.MakeMockSelect("red", "green", "blue")
	loc := bromine.Locator{By: bromine.ByName, Value: "colour"}
	d := mock.MakeMockDriver("", map[bromine.Locator][]*mock.Element{loc: {colour}})
	b := testBrowser(d)

	if err := b.Elem(bromine.Name("colour")).Select(context.Background(), bromine.Option{"value": "green"}); err != nil {
		t.Fatalf("error selecting: %s", err)
	}
	if colour.Selected != "green" {
		t.Fatalf("expected green got %s", colour.Selected)
	}
}
