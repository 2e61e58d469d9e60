/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

// fakeT records failures instead of stopping the test.
type fakeT struct {
	failed bool
	msg    string
}

func (t *fakeT) FailNow() {
	t.failed = true
}

func (t *fakeT) Errorf(format string, args ...interface{}) {
	t.msg = format
}
