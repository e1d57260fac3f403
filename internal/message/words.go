package message

import (
	"mime"
	"regexp"
	"strings"

	"github.com/emersion/go-message/charset"
)

// DefaultCharset labels text that was not inside an encoded-word.
const DefaultCharset = "default"

var (
	encodedWord = regexp.MustCompile(`=\?([^?\s]+)\?([bBqQ])\?([^?\s]*)\?=`)

	wordDecoder = &mime.WordDecoder{CharsetReader: charset.Reader}
)

// Fragment is one run of header text together with the charset it was
// declared in. Text is already UTF-8.
type Fragment struct {
	Charset string
	Text    string
}

// DecodeWords splits a header value into plain and encoded-word fragments.
// Whitespace between two adjacent encoded-words is dropped as RFC 2047
// requires. A word that cannot be decoded is kept verbatim.
func DecodeWords(value string) []Fragment {
	var fragments []Fragment
	matches := encodedWord.FindAllStringSubmatchIndex(value, -1)

	pos := 0
	prevEncoded := false
	for _, m := range matches {
		between := value[pos:m[0]]
		if between != "" && !(prevEncoded && strings.TrimSpace(between) == "") {
			fragments = append(fragments, Fragment{Charset: DefaultCharset, Text: between})
		}

		word := value[m[0]:m[1]]
		cs := value[m[2]:m[3]]
		if i := strings.IndexByte(cs, '*'); i >= 0 {
			cs = cs[:i] // RFC 2231 language suffix
			word = "=?" + cs + value[m[3]:m[1]]
		}
		text, err := wordDecoder.Decode(word)
		if err != nil {
			text = word
		}
		fragments = append(fragments, Fragment{Charset: strings.ToUpper(cs), Text: text})

		pos = m[1]
		prevEncoded = true
	}
	if pos < len(value) {
		fragments = append(fragments, Fragment{Charset: DefaultCharset, Text: value[pos:]})
	}
	return fragments
}

// DecodeSubject joins the decoded fragments of a Subject value and trims the
// result.
func DecodeSubject(value string) string {
	var b strings.Builder
	for _, f := range DecodeWords(value) {
		b.WriteString(f.Text)
	}
	return strings.TrimSpace(b.String())
}

// decodeText decodes any encoded-words in a generic header value to UTF-8.
func decodeText(value string) string {
	decoded, err := wordDecoder.DecodeHeader(value)
	if err != nil {
		return DecodeSubject(value)
	}
	return strings.TrimSpace(decoded)
}
