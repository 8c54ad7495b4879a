// Package executor runs migration scripts against Oracle with statement level
// checkpointing.
//
// Each script is preprocessed, split into statements and executed one
// statement at a time on a single session. There is no implicit transaction:
// Oracle commits DDL implicitly, so a script can fail after some of its
// statements have taken effect. The executor records how far it got in the
// journal and the next run continues from the failing statement instead of
// replaying the whole script.
//
// # Resuming
//
// When the latest journal entry for a script is a failure at index i, the
// executor recomputes the checksum of the first i statements and compares it
// with the recorded one:
//
//   - equal: statements i..n-1 are executed
//   - different: a *DriftError is returned and nothing is executed
//
// Statements from i onwards may be edited freely between attempts, which is
// how a broken statement gets fixed.
//
// # Usage Example
//
//	exec := executor.New(executor.Config{
//		DB:               client,
//		Journal:          j,
//		Splitter:         splitter.New("/"),
//		VariablesEnabled: true,
//		CommandTimeout:   5 * time.Minute,
//	})
//
//	err := exec.Execute(ctx, s, map[string]string{"schema": "APP"})
//
//	var stmtErr *executor.StatementError
//	if errors.As(err, &stmtErr) {
//		fmt.Printf("statement %d failed: %v\n", stmtErr.Index, stmtErr.Err)
//	}
//
// # Statement Output
//
// With LogOutput enabled every statement is run as a query and any rows it
// returns are written to Output as an aligned table. This is mostly useful
// for scripts containing verification queries.
package executor
