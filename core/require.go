package core

import (
	"fmt"
)

// AbortError is the panic value raised by Require and Abort. The dispatcher
// recovers it and reports the action as failed.
type AbortError struct {
	Msg string
}

func (e *AbortError) Error() string {
	return e.Msg
}

// Require aborts the running action when condition does not hold.
// condition may be a bool or an error; a nil error passes.
func Require(condition any, msg ...any) {
	switch v := condition.(type) {
	case bool:
		if !v {
			Abort(msg...)
		}
	case error:
		if v != nil {
			if len(msg) == 0 {
				panic(&AbortError{Msg: v.Error()})
			}
			panic(&AbortError{Msg: fmt.Sprint(msg...) + ": " + v.Error()})
		}
	}
}

// Abort stops the running action unconditionally.
func Abort(msg ...any) {
	if len(msg) == 0 {
		panic(&AbortError{Msg: "request failed"})
	}
	panic(&AbortError{Msg: fmt.Sprint(msg...)})
}
