package bromine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Selector maps exactly one strategy name to its value, e.g. Selector{"css": "#login"}
type Selector map[string]string

// Condition maps exactly one page condition name to its argument, e.g. Condition{"title": "Home"}
type Condition map[string]string

// Option maps exactly one select strategy to its value, e.g. Option{"text": "Blue"}
type Option map[string]string

// selectors are the strategy names accepted in a Selector
var selectors = map[string]By{
	"id":           ByID,
	"xpath":        ByXPath,
	"link":         ByLinkText,
	"partial_link": ByPartialLinkText,
	"name":         ByName,
	"tag":          ByTagName,
	"cls":          ByClassName,
	"css":          ByCSSSelector,
}

var selectOptions = map[string]SelectBy{
	"index": SelectByIndex,
	"text":  SelectByText,
	"value": SelectByValue,
}

// CSS selector
func CSS(value string) Selector { return Selector{"css": value} }

// ID selector
func ID(value string) Selector { return Selector{"id": value} }

// XPath selector
func XPath(value string) Selector { return Selector{"xpath": value} }

// Link selects anchors by their exact text
func Link(value string) Selector { return Selector{"link": value} }

// PartialLink selects anchors whose text contains value
func PartialLink(value string) Selector { return Selector{"partial_link": value} }

// Name selector
func Name(value string) Selector { return Selector{"name": value} }

// Tag selector
func Tag(value string) Selector { return Selector{"tag": value} }

// Class selector
func Class(value string) Selector { return Selector{"cls": value} }

// Locator resolves the selector into a (strategy, value) pair, failing with
// *ArgumentErr unless exactly one known strategy is given.
func (s Selector) Locator() (Locator, error) {
	key, val, err := pickOne(s, "selector", func(k string) bool {
		_, ok := selectors[k]
		return ok
	})
	if err != nil {
		return Locator{}, err
	}
	return Locator{By: selectors[key], Value: val}, nil
}

// String renders the selector the way wait errors describe it, e.g. "css: #q"
func (s Selector) String() string {
	keys := sortedKeys(s)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, s[k])
	}
	return strings.Join(parts, ", ")
}

// resolve the select option into a strategy and value
func (o Option) resolve() (SelectBy, string, error) {
	key, val, err := pickOne(o, "select option", func(k string) bool {
		_, ok := selectOptions[k]
		return ok
	})
	if err != nil {
		return "", "", err
	}
	by := selectOptions[key]
	if by == SelectByIndex {
		if idx, err := strconv.Atoi(val); err != nil || idx < 0 {
			return "", "", &ArgumentErr{Message: "bad select index: " + val}
		}
	}
	return by, val, nil
}

// pickOne enforces the one-key contract shared by selectors, conditions and options.
// Unknown keys are reported before counting, in sorted order so errors are stable.
func pickOne(m map[string]string, what string, known func(string) bool) (string, string, error) {
	keys := sortedKeys(m)
	for _, k := range keys {
		if !known(k) {
			return "", "", &ArgumentErr{Message: fmt.Sprintf("bad %s: %s", what, k)}
		}
	}
	switch len(keys) {
	case 0:
		return "", "", &ArgumentErr{Message: fmt.Sprintf("no %s specified", what)}
	case 1:
		return keys[0], m[keys[0]], nil
	}
	return "", "", &ArgumentErr{Message: fmt.Sprintf("only one %s, please", what)}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
