// Package journal records the outcome of every migration script executed
// against a database, at statement granularity.
//
// Each entry stores the script name, when it was applied and, for failed
// attempts, the 0-based index of the statement that failed (which is also the
// number of statements that succeeded) together with the error text. Every
// entry carries a checksum of the statements that succeeded, so a resumed run
// can verify that the already executed part of the script has not changed.
//
// # Entry lifecycle
//
//   - first attempt: one entry is inserted (completed or failed)
//   - retry of a failed script: the failed entry is deleted and a new entry is
//     inserted, whatever the outcome of the retry
//
// A completed entry has a nil FailureIndex and FailureRemark.
//
// # Dialects
//
// Everything vendor specific (table probe, table DDL, bind placeholders and
// "object not found" detection) lives behind the Dialect interface. The Oracle
// implementation is provided by the oracle package.
//
// # Usage Example
//
//	j := journal.New(journal.Config{
//		DB:      client,
//		Dialect: oracle.Dialect{},
//		Table:   "SCHEMAVERSIONS",
//	})
//
//	completed, err := j.ListCompletedScripts(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
package journal
