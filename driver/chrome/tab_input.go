package chrome

import "github.com/wirepair/gcd/gcdapi"

// Click issues a left click on the x, y coords provided.
func (t *Tab) Click(x, y float64) error {
	return t.click(x, y, 1)
}

// DoubleClick issues a double click on the x, y coords provided.
func (t *Tab) DoubleClick(x, y float64) error {
	return t.click(x, y, 2)
}

func (t *Tab) click(x, y float64, clickCount int) error {
	for _, evt := range []string{"mousePressed", "mouseReleased"} {
		params := &gcdapi.InputDispatchMouseEventParams{TheType: evt,
			X:          x,
			Y:          y,
			Button:     "left",
			ClickCount: clickCount,
		}
		if _, err := t.t.Input.DispatchMouseEventWithParams(params); err != nil {
			return err
		}
	}
	return nil
}

// MoveMouse to the x, y coords provided.
func (t *Tab) MoveMouse(x, y float64) error {
	mouseMovedParams := &gcdapi.InputDispatchMouseEventParams{TheType: "mouseMoved",
		X: x,
		Y: y,
	}
	_, err := t.t.Input.DispatchMouseEventWithParams(mouseMovedParams)
	return err
}

// SendKeys sends keystrokes to whatever is focused, best called from Element.SendKeys which
// focuses the element first. Use \r or \n for Enter, \b for backspace or \t for Tab.
func (t *Tab) SendKeys(text string) error {
	inputParams := &gcdapi.InputDispatchKeyEventParams{TheType: "char"}

	for _, inputchar := range text {
		input := string(inputchar)

		if _, ok := systemKeys[input]; ok {
			if err := t.pressSystemKey(input); err != nil {
				return err
			}
			continue
		}
		inputParams.Text = input
		if _, err := t.t.Input.DispatchKeyEventWithParams(inputParams); err != nil {
			return err
		}
	}
	return nil
}

type systemKey struct {
	text string
	code int
}

var systemKeys = map[string]systemKey{
	"\b": {"\b", 8},
	"\t": {"\t", 9},
	"\r": {"\r", 13},
	"\n": {"\r", 13},
}

// pressSystemKey sends keydown, char and keyup for keys that are not plain text
func (t *Tab) pressSystemKey(input string) error {
	key := systemKeys[input]
	inputParams := &gcdapi.InputDispatchKeyEventParams{
		TheType:               "rawKeyDown",
		UnmodifiedText:        key.text,
		Text:                  key.text,
		WindowsVirtualKeyCode: key.code,
		NativeVirtualKeyCode:  key.code,
	}

	for _, evt := range []string{"rawKeyDown", "char", "keyUp"} {
		inputParams.TheType = evt
		if _, err := t.t.Input.DispatchKeyEventWithParams(inputParams); err != nil {
			return err
		}
	}
	return nil
}
