// Package message parses the header blocks, body structures and encoded body
// parts fetched from an IMAP server.
package message

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// HeaderValue is either Text or ContactList.
type HeaderValue interface {
	String() string
	headerValue()
}

// Text is a decoded, trimmed header value.
type Text string

func (t Text) String() string { return string(t) }

func (Text) headerValue() {}

// Headers maps header names, as received, to their decoded values.
type Headers map[string]HeaderValue

// Get looks name up exactly and then case-insensitively. Among several
// case-insensitive matches the first in sorted name order wins.
func (h Headers) Get(name string) (HeaderValue, bool) {
	if v, ok := h[name]; ok {
		return v, true
	}
	for _, k := range h.Names() {
		if strings.EqualFold(strings.TrimSpace(k), name) {
			return h[k], true
		}
	}
	return nil, false
}

// Text returns the string form of a header, or "" when it is absent.
func (h Headers) Text(name string) string {
	v, ok := h.Get(name)
	if !ok {
		return ""
	}
	return v.String()
}

// Contacts returns the contacts of an address header, or nil.
func (h Headers) Contacts(name string) ContactList {
	v, ok := h.Get(name)
	if !ok {
		return nil
	}
	list, _ := v.(ContactList)
	return list
}

// Names returns the header names in sorted order.
func (h Headers) Names() []string {
	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ParseHeaders parses a raw header block. Lines starting with a space
// continue the previous header. Subject is decoded from encoded-words,
// To/From/Cc/Bcc become ContactLists and everything else is decoded to UTF-8
// and trimmed. Parsing never fails; malformed headers are kept as best it can.
func ParseHeaders(raw []byte) Headers {
	rawValues := make(map[string]string)
	last := ""
	haveLast := false

	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSuffix(line, "\r")

		if r, _ := utf8.DecodeRuneInString(line); r == ' ' {
			if haveLast {
				rawValues[last] += line
			}
			continue
		}

		name, value, _ := strings.Cut(line, ":")
		rawValues[name] = value
		last, haveLast = name, true
	}

	headers := make(Headers, len(rawValues))
	for name, value := range rawValues {
		if strings.TrimSpace(name) == "" {
			continue
		}
		headers[name] = decodeHeader(name, value)
	}
	return headers
}

func decodeHeader(name, value string) HeaderValue {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "subject":
		return Text(DecodeSubject(value))
	case "to", "from", "cc", "bcc":
		return ParseAddressList(value)
	default:
		return Text(decodeText(value))
	}
}
