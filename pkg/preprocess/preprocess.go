// Package preprocess provides the text transforms applied to a script's
// contents before it is split into statements.
//
// Transforms run in the order they are configured, each receiving the output
// of the previous one. Variable substitution, when enabled, always runs first.
package preprocess

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

type (
	// Preprocessor transforms script contents.
	Preprocessor interface {
		Process(contents string) (string, error)
	}

	// Func adapts an ordinary function to the Preprocessor interface.
	Func func(contents string) (string, error)

	variables map[string]string
)

var variablePattern = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)\$`)

// Process calls f(contents).
func (f Func) Process(contents string) (string, error) {
	return f(contents)
}

// Variables returns a Preprocessor replacing $name$ tokens with the value of
// the named variable. Referencing a variable that has no value is an error.
//
// Example:
//
//	p := preprocess.Variables(map[string]string{"schema": "APP"})
//	out, _ := p.Process("CREATE TABLE $schema$.users (id NUMBER)")
//	// out == "CREATE TABLE APP.users (id NUMBER)"
func Variables(vars map[string]string) Preprocessor {
	return variables(vars)
}

func (v variables) Process(contents string) (string, error) {
	var missing []string

	out := variablePattern.ReplaceAllStringFunc(contents, func(token string) string {
		name := token[1 : len(token)-1]
		value, ok := v[name]
		if !ok {
			missing = append(missing, name)
			return token
		}

		return value
	})

	if len(missing) > 0 {
		sort.Strings(missing)
		return "", errors.Errorf("variable(s) without a value: %s", strings.Join(missing, ", "))
	}

	return out, nil
}

// TrimTrailingWhitespace strips trailing spaces and tabs from every line.
func TrimTrailingWhitespace() Preprocessor {
	return Func(func(contents string) (string, error) {
		lines := strings.Split(contents, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimRight(line, " \t\r")
		}

		return strings.Join(lines, "\n"), nil
	})
}

// Apply runs preprocessors over contents in order.
func Apply(contents string, preprocessors ...Preprocessor) (string, error) {
	var err error
	for i, p := range preprocessors {
		if contents, err = p.Process(contents); err != nil {
			return "", errors.Wrapf(err, "preprocessor %d failed", i+1)
		}
	}

	return contents, nil
}
