package shared

import "testing"

func TestInTestModeTracksEnvFlag(t *testing.T) {
	t.Setenv("LIBROTECA_TEST_MODE", "1")
	RefreshTestMode()
	t.Cleanup(RefreshTestMode)

	if !InTestMode() {
		t.Fatal("flag set: want test mode on")
	}

	t.Setenv("LIBROTECA_TEST_MODE", "")
	RefreshTestMode()
	if InTestMode() {
		t.Fatal("flag cleared: want test mode off")
	}

	// Any value other than "1" does not enable it.
	t.Setenv("LIBROTECA_TEST_MODE", "true")
	RefreshTestMode()
	if InTestMode() {
		t.Fatal("non-\"1\" value: want test mode off")
	}
}
