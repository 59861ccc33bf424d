package bromine

import (
	"github.com/pkg/errors"
)

// revive:disable:exported
var (
	ErrNoDriver    = errors.New("browser has no driver")
	ErrNotSelect   = errors.New("element is not a select element")
	ErrNoSuchValue = errors.New("no option matched")
	ErrNoScripts   = errors.New("driver can not execute scripts")
	ErrNoElement   = errors.New("no element was resolved")
)

// ArgumentErr for bad, missing or duplicate selector/condition keys
type ArgumentErr struct {
	Message string
}

func (e *ArgumentErr) Error() string {
	return e.Message
}

// NoSuchElementErr when the driver is unable to find an element
type NoSuchElementErr struct {
	Message string
}

func (e *NoSuchElementErr) Error() string {
	return "Unable to find element " + e.Message
}

// StaleElementErr when a previously found element is no longer attached to the page
type StaleElementErr struct {
	Message string
}

func (e *StaleElementErr) Error() string {
	return "Stale element reference " + e.Message
}

// TimeoutErr when a wait condition was not met in time. Last holds the most recent
// ignored error observed while polling, if any.
type TimeoutErr struct {
	Message string
	Last    error
}

func (e *TimeoutErr) Error() string {
	if e.Last != nil {
		return "Timed out " + e.Message + ": " + e.Last.Error()
	}
	return "Timed out " + e.Message
}

// Unwrap the last ignored error
func (e *TimeoutErr) Unwrap() error {
	return e.Last
}

// IsNoSuchElement reports whether err (or anything it wraps) is a NoSuchElementErr
func IsNoSuchElement(err error) bool {
	var target *NoSuchElementErr
	return errors.As(err, &target)
}

// IsStale reports whether err (or anything it wraps) is a StaleElementErr
func IsStale(err error) bool {
	var target *StaleElementErr
	return errors.As(err, &target)
}

// IsTimeout reports whether err (or anything it wraps) is a TimeoutErr
func IsTimeout(err error) bool {
	var target *TimeoutErr
	return errors.As(err, &target)
}

// errorTypeName returns the bare type name used in enriched wait messages
func errorTypeName(err error) string {
	switch errors.Cause(err).(type) {
	case *NoSuchElementErr:
		return "NoSuchElementErr"
	case *StaleElementErr:
		return "StaleElementErr"
	case *TimeoutErr:
		return "TimeoutErr"
	case *ArgumentErr:
		return "ArgumentErr"
	}
	return "Error"
}
