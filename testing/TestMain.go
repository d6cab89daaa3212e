package testing

import (
	"os"
	"sync"
	stdtesting "testing"

	"github.com/libroteca/libroteca/internal/shared"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("LIBROTECA_TEST_MODE", "1")
		shared.RefreshTestMode()
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
