package numcpus_internal

import (
	"regexp"
	"strings"
)

var wordSplitRe = regexp.MustCompile(`\s+`)

// Split on white space; note that unlike strings.Fields, an empty string
// yields a single empty word, so the caller may rely on len() >= 1.
func SplitWords(s string) []string {
	return wordSplitRe.Split(strings.TrimSpace(s), -1)
}

// Split a "key : value" line, as found in /proc/cpuinfo. The key is lower
// cased, both are stripped of white space. ok is false if there is no ':'
// separator.
func SplitKeyValue(line string) (key, value string, ok bool) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return "", "", false
	}
	return strings.ToLower(strings.TrimSpace(line[:i])), strings.TrimSpace(line[i+1:]), true
}
