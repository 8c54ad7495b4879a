// Package utils provides small helpers shared across the oraclekeeper packages.
//
// # Identifier Utilities (identifier.go)
//
// Journal table and schema names are interpolated into SQL text, so they are
// validated as plain Oracle identifiers before use and rendered in their
// canonical (upper case) form:
//
//	utils.IsIdentifier("schemaversions")            // true
//	utils.IsIdentifier("bad name; DROP TABLE x")    // false
//	utils.QualifiedName("app", "schemaversions")    // APP.SCHEMAVERSIONS
//
// # Pointer Utilities (ptr.go)
//
// Ptr returns a pointer to any value, which keeps nullable journal columns
// readable at call sites:
//
//	journal.RecordOutcome(ctx, s, stmts, utils.Ptr(2), utils.Ptr("ORA-00942"))
package utils
