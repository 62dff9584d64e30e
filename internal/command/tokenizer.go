// Package command tokenizes and runs a single shell command line the way
// a job hash stores it: one string, split into a program and its argv.
package command

import (
	"regexp"

	"github.com/aaronmussig/rsrq/internal/rsrqerr"
)

var tokenPattern = regexp.MustCompile(`"[^"]+"|'[^']+'|\S+`)

// Tokenize splits cmd into argv. A double- or single-quoted run becomes a
// single token with its surrounding quotes stripped; anything else splits
// on whitespace. There is no backslash escaping and no nested-quote
// handling: matching quotes must be the outermost characters of the match,
// otherwise they are left as literal characters in a whitespace token. An
// empty tokenization (blank or whitespace-only cmd) is a parse error.
func Tokenize(cmd string) ([]string, error) {
	matches := tokenPattern.FindAllString(cmd, -1)
	if len(matches) == 0 {
		return nil, rsrqerr.New(rsrqerr.KindParse, "empty command")
	}

	tokens := make([]string, len(matches))
	for i, m := range matches {
		tokens[i] = unquote(m)
	}
	return tokens, nil
}

func unquote(tok string) string {
	if len(tok) >= 2 {
		if tok[0] == '"' && tok[len(tok)-1] == '"' {
			return tok[1 : len(tok)-1]
		}
		if tok[0] == '\'' && tok[len(tok)-1] == '\'' {
			return tok[1 : len(tok)-1]
		}
	}
	return tok
}
