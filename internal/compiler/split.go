package compiler

import "strings"

// SplitAssertions breaks a line made of adjacent parenthesised assertions,
// "(A)(B)(C)", into "(A)", "(B)", "(C)". A line that is not entirely made of
// balanced top-level groups is returned unchanged as a single assertion.
func SplitAssertions(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	var parts []string
	depth := 0
	start := -1
	for i, r := range line {
		switch {
		case r == '(':
			if depth == 0 {
				start = i
			}
			depth++
		case r == ')':
			depth--
			if depth < 0 {
				return []string{line}
			}
			if depth == 0 {
				parts = append(parts, line[start:i+1])
			}
		case depth == 0 && r != ' ':
			return []string{line}
		}
	}
	if depth != 0 || len(parts) == 0 {
		return []string{line}
	}
	return parts
}
