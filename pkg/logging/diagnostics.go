package logging

import "fmt"

// BestEffort runs a diagnostics step such as statistics logging. Any error it
// returns, and any panic it raises, is logged and swallowed here so that
// diagnostics can never abort the operation they describe.
func BestEffort(logger Logger, op string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("diagnostics failed", "op", op, "error", fmt.Sprint(r))
		}
	}()
	if err := fn(); err != nil {
		LogError(logger, "diagnostics failed", err, "op", op)
	}
}
