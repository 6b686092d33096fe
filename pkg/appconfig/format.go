package appconfig

import (
	"bytes"
	"strings"
)

const continuationIndent = "    "

// valueLines splits a value into trimmed, non-blank lines.
func valueLines(value string) []string {
	lines := []string{}
	for _, line := range strings.Split(value, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func isBlank(line []byte) bool {
	return len(bytes.TrimSpace(line)) == 0
}

func isComment(line []byte) bool {
	return len(line) != 0 && (line[0] == '#' || line[0] == ';')
}

func isIndented(line []byte) bool {
	return len(line) != 0 && (line[0] == ' ' || line[0] == '\t')
}

// joinContinuations drops blank and comment lines that sit inside a
// multi-line value, so the value keeps extending over them the way
// ConfigParser reads it. Anywhere else those lines are left alone.
func joinContinuations(data []byte) []byte {
	lines := bytes.SplitAfter(data, []byte("\n"))
	out := make([][]byte, 0, len(lines))

	inValue := false
	for i, line := range lines {
		switch {
		case isBlank(line) || isComment(line):
			if inValue && continuesValue(lines[i+1:]) {
				continue
			}
		case isIndented(line):
			// continuation of the open value, or a syntax error left to the parser
		case line[0] == '[':
			inValue = false
		default:
			inValue = true
		}
		out = append(out, line)
	}
	return bytes.Join(out, nil)
}

// continuesValue reports whether the next meaningful line is indented.
func continuesValue(rest [][]byte) bool {
	for _, line := range rest {
		if isBlank(line) || isComment(line) {
			continue
		}
		return isIndented(line)
	}
	return false
}
