package common

import (
	"fmt"
	"math"
	"runtime/debug"
)

// Round rounds v to the nearest integer, breaking ties to even (7.5 -> 8, 8.5 -> 8).
// Every displayed number goes through here so prompts and messages agree.
func Round(v float64) int {
	return int(math.RoundToEven(v))
}

// Guard runs fn and turns a panic into an error carrying the stack.
func Guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return fn()
}
