package executor

import "fmt"

type (
	// DriftError is returned when the statements a failed script already
	// applied no longer match what was recorded, i.e. the script was edited
	// before the failure point. Nothing is executed.
	DriftError struct {
		// Script is the name of the changed script
		Script string

		// Index is the recorded failure index
		Index int

		// Expected is the checksum recorded in the journal
		Expected string

		// Actual is the checksum of the current statements
		Actual string
	}

	// StatementError is returned when a statement fails. The failure has been
	// recorded in the journal, and the next run resumes at Index.
	StatementError struct {
		// Script is the name of the failing script
		Script string

		// Index is the 0-based position of the failing statement
		Index int

		// Statement is the text that failed
		Statement string

		// Err is the driver error
		Err error
	}
)

func (e *DriftError) Error() string {
	return fmt.Sprintf(
		"script %s changed before statement %d, which it previously failed at (expected %s, got %s)",
		e.Script, e.Index, e.Expected, e.Actual,
	)
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement %d of %s failed: %v", e.Index, e.Script, e.Err)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// Cause returns the driver error, for github.com/pkg/errors.Cause.
func (e *StatementError) Cause() error {
	return e.Err
}
