package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/gobuffalo/packr/v2"
	"github.com/pkg/errors"
	"gitlab.com/bromine/bromine"
)

// atoms.js installs window.__bromine, which keeps found nodes under numeric handles
// and answers every element query with a JSON string of {value} or {err, message}.
var atomBox = packr.New("bromine-atoms", "./scripts")

var (
	atomOnce   sync.Once
	atomSource string
	atomErr    error
)

type atomResult struct {
	Value   json.RawMessage `json:"value"`
	Err     string          `json:"err"`
	Message string          `json:"message"`
}

func atomScript() (string, error) {
	atomOnce.Do(func() {
		atomSource, atomErr = atomBox.FindString("atoms.js")
	})
	return atomSource, atomErr
}

// atomExpression installs the atoms (once per document) and calls fn with JSON encoded args
func atomExpression(fn string, args ...interface{}) (string, error) {
	src, err := atomScript()
	if err != nil {
		return "", errors.Wrap(err, "failed to load atoms")
	}
	encoded := make([]string, len(args))
	for i, arg := range args {
		data, err := json.Marshal(arg)
		if err != nil {
			return "", err
		}
		encoded[i] = string(data)
	}
	return fmt.Sprintf("%s\nwindow.__bromine.%s(%s)", src, fn, strings.Join(encoded, ", ")), nil
}

// decodeAtom maps an atom result onto out, or onto the matching bromine error
func decodeAtom(fn string, raw interface{}, out interface{}) error {
	data, ok := raw.(string)
	if !ok {
		return errors.Errorf("unexpected %T result from atom %s", raw, fn)
	}
	res := &atomResult{}
	if err := json.Unmarshal([]byte(data), res); err != nil {
		return errors.Wrapf(err, "failed to decode atom %s result", fn)
	}

	switch res.Err {
	case "":
	case "stale":
		return &bromine.StaleElementErr{Message: res.Message}
	case "notselect":
		return errors.Wrap(bromine.ErrNotSelect, res.Message)
	case "novalue":
		return errors.Wrap(bromine.ErrNoSuchValue, res.Message)
	case "argument":
		return &bromine.ArgumentErr{Message: res.Message}
	default:
		return &ScriptEvaluationErr{Message: "atom " + fn + " failed:", ExceptionText: res.Message}
	}

	if out == nil || len(res.Value) == 0 {
		return nil
	}
	return json.Unmarshal(res.Value, out)
}

func (t *Tab) callAtom(ctx context.Context, out interface{}, fn string, args ...interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	expr, err := atomExpression(fn, args...)
	if err != nil {
		return err
	}
	r, err := t.evaluateScript(expr, false)
	if err != nil {
		return err
	}
	return decodeAtom(fn, r.Value, out)
}
