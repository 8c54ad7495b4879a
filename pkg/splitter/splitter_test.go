package splitter_test

import (
	"testing"

	"github.com/pseudomuto/oraclekeeper/pkg/splitter"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:  "separator terminated statements",
			input: "INSERT INTO t VALUES (1);\n/\nBROKEN SQL;\n/\nINSERT INTO t VALUES (2);\n/",
			expected: []string{
				"INSERT INTO t VALUES (1);",
				"BROKEN SQL;",
				"INSERT INTO t VALUES (2);",
			},
		},
		{
			name:     "trailing statement without separator",
			input:    "CREATE TABLE a (id NUMBER)\n/\nCREATE TABLE b (id NUMBER)",
			expected: []string{"CREATE TABLE a (id NUMBER)", "CREATE TABLE b (id NUMBER)"},
		},
		{
			name: "plsql block keeps inner semicolons",
			input: `BEGIN
  INSERT INTO t VALUES (1);
  INSERT INTO t VALUES (2);
END;
/`,
			expected: []string{"BEGIN\n  INSERT INTO t VALUES (1);\n  INSERT INTO t VALUES (2);\nEND;"},
		},
		{
			name:     "separator surrounded by whitespace",
			input:    "SELECT 1 FROM dual\n   /   \nSELECT 2 FROM dual\n\t/\n",
			expected: []string{"SELECT 1 FROM dual", "SELECT 2 FROM dual"},
		},
		{
			name:     "separator inside a line is not a boundary",
			input:    "SELECT 4 / 2 FROM dual\n/\n",
			expected: []string{"SELECT 4 / 2 FROM dual"},
		},
		{
			name:     "empty statements are dropped",
			input:    "/\n\n/\n  \n/\nSELECT 1 FROM dual\n/\n/\n",
			expected: []string{"SELECT 1 FROM dual"},
		},
		{
			name:     "windows line endings",
			input:    "SELECT 1 FROM dual\r\n/\r\nSELECT 2 FROM dual\r\n/\r\n",
			expected: []string{"SELECT 1 FROM dual", "SELECT 2 FROM dual"},
		},
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
		{
			name:     "whitespace only",
			input:    " \n\t\n",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, splitter.Split(tt.input))
		})
	}
}

func TestSplitter_CustomSeparator(t *testing.T) {
	s := splitter.New("GO")

	stmts := s.Split("SELECT 1 FROM dual\nGO\nSELECT 2 FROM dual\n/\nSELECT 3 FROM dual\nGO\n")
	require.Equal(t, []string{
		"SELECT 1 FROM dual",
		"SELECT 2 FROM dual\n/\nSELECT 3 FROM dual",
	}, stmts)
}

func TestSplitter_Deterministic(t *testing.T) {
	input := "CREATE TABLE a (id NUMBER)\n/\nBEGIN NULL; END;\n/\n"

	first := splitter.Split(input)
	for range 10 {
		require.Equal(t, first, splitter.Split(input))
	}
}

func TestSplitter_Idempotent(t *testing.T) {
	inputs := []string{
		"INSERT INTO t VALUES (1);\n/\nBROKEN SQL;\n/\nINSERT INTO t VALUES (2);\n/",
		"  leading whitespace\n/\n\n\ntrailing\n  /  \n",
		"BEGIN\n  x := 4 / 2;\nEND;\n/\nSELECT 1 FROM dual",
		"no separator at all",
		"/\n/\n/",
		"",
	}

	for _, s := range []splitter.Splitter{splitter.New(""), splitter.New("GO")} {
		for _, input := range inputs {
			once := s.Split(input)
			twice := s.Split(s.Join(once))
			require.Equal(t, once, twice, "input: %q", input)
		}
	}
}
