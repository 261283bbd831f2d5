package backup

import (
	"os"
	"testing"

	"github.com/plaunch/plaunch-core/logger"
)

func TestMain(m *testing.M) {
	// Disable logging during tests to avoid polluting the user's log dir
	logger.Reset()
	logger.Init(os.DevNull)

	code := m.Run()

	logger.Reset()
	os.Exit(code)
}
