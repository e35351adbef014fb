// Package testutils implements test utilities.
package testutils

import (
	"go.uber.org/goleak"
)

// VerifyTestMain verifies that no goroutines leak after the tests of a
// package have run.
func VerifyTestMain(m goleak.TestingM) {
	goleak.VerifyTestMain(m)
}
