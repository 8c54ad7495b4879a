package journal

import "time"

// Entry is a single row of the journal table.
type Entry struct {
	// ID is the surrogate identity key.
	ID int64

	// ScriptName identifies the script the entry belongs to.
	ScriptName string

	// AppliedAt is when this entry was created.
	AppliedAt time.Time

	// Remark is reserved for operator notes and is not interpreted.
	Remark *string

	// FailureIndex is the 0-based index of the statement that failed, i.e. the
	// number of statements that succeeded. Nil for completed scripts.
	FailureIndex *int

	// FailureRemark holds the error text of the failed statement. Nil for
	// completed scripts.
	FailureRemark *string

	// Hash is the Checksum of the statements that succeeded.
	Hash string
}

// Completed reports whether the entry records a fully applied script.
func (e *Entry) Completed() bool {
	return e.FailureIndex == nil && e.FailureRemark == nil
}
