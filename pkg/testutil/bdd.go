package testutil

import "testing"

// Given, When and Then wrap t.Run with a readable step label for
// scenario-style tests that walk one aggregate through several
// operations.
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "Given", desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "When", desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "Then", desc, fn)
}

func step(t *testing.T, word, desc string, fn func(t *testing.T)) {
	t.Helper()
	if !t.Run(word+" "+desc, fn) {
		// Later steps depend on this one's state.
		t.FailNow()
	}
}
