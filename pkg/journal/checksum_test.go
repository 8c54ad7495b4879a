package journal_test

import (
	"strings"
	"testing"

	"github.com/pseudomuto/oraclekeeper/pkg/journal"
	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	stmts := []string{"CREATE TABLE a (id NUMBER)", "CREATE TABLE b (id NUMBER)"}

	t.Run("deterministic", func(t *testing.T) {
		require.Equal(t, journal.Checksum(stmts), journal.Checksum(stmts))
		require.Equal(t, journal.Checksum(stmts), journal.Checksum(append([]string{}, stmts...)))
	})

	t.Run("h1 format fits the hash column", func(t *testing.T) {
		sum := journal.Checksum(stmts)
		require.True(t, strings.HasPrefix(sum, "h1:"))
		require.LessOrEqual(t, len(sum), 64)
	})

	t.Run("order sensitive", func(t *testing.T) {
		require.NotEqual(t, journal.Checksum(stmts), journal.Checksum([]string{stmts[1], stmts[0]}))
	})

	t.Run("boundary sensitive", func(t *testing.T) {
		require.NotEqual(t, journal.Checksum([]string{"ab", "c"}), journal.Checksum([]string{"a", "bc"}))
		require.NotEqual(t, journal.Checksum([]string{"a\n", ""}), journal.Checksum([]string{"a", "\n"}))
	})

	t.Run("duplicates do not cancel out", func(t *testing.T) {
		require.NotEqual(t, journal.Checksum(nil), journal.Checksum([]string{"x", "x"}))
	})

	t.Run("content sensitive", func(t *testing.T) {
		require.NotEqual(t, journal.Checksum(stmts), journal.Checksum([]string{stmts[0], "CREATE TABLE c (id NUMBER)"}))
	})

	t.Run("empty sequence", func(t *testing.T) {
		require.Equal(t, journal.Checksum(nil), journal.Checksum([]string{}))
		// SHA-256 of the empty input
		require.Equal(t, "h1:47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU=", journal.Checksum(nil))
	})
}
