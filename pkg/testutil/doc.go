// Package testutil contains helpers shared by the package tests: an on-disk
// SQLite database standing in for Oracle in unit tests, and an Oracle Free
// container for the integration tests.
package testutil
