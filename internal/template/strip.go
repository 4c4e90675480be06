package template

import (
	"regexp"
	"strings"
)

var (
	htmlTagPattern = regexp.MustCompile(`<[^>]+>`)
	soundPattern   = regexp.MustCompile(`\[sound:[^]]+\]`)
	entities       = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
	)
)

// StripHTML removes markup from a rendered field, leaving plain text
// suitable for sorting and checksums.
func StripHTML(text string) string {
	text = htmlTagPattern.ReplaceAllString(text, "")
	text = entities.Replace(text)
	return strings.TrimSpace(text)
}

// StripSounds removes [sound:...] references. Used for the FrontSide
// pseudo-field so the answer side does not replay the question's audio.
func StripSounds(text string) string {
	return soundPattern.ReplaceAllString(text, "")
}
