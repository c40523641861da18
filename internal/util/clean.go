package util

import (
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
)

const utf8BOM = "\ufeff"

var charReplacer = strings.NewReplacer(
	"\u2018", "'", "\u2019", "'", "\u201c", "\"",
	"\u201d", "\"", "\u2013", "-", "\u2014", "--", "\u2026", "...",
	"\u00a0", " ", "\u0096", "-", "\u0097", "--", "\u0091", "'",
	"\u0092", "'", "\u0093", "\"", "\u0094", "\"",
	"\r", " ", "\n", " ", "\t", " ",
)

// CleanText normalizes a description read from a data source or typed
// by a user: invalid UTF-8 is replaced, typographic punctuation is
// folded to ASCII, and whitespace is collapsed.
func CleanText(s, src string) string {
	s = strings.TrimPrefix(s, utf8BOM)
	if !utf8.ValidString(s) {
		log.Warnf("%s: invalid UTF-8, replacing invalid chars", src)
		s = strings.ToValidUTF8(s, string(utf8.RuneError))
	}
	s = charReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
