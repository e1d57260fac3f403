// Package mailbox converts folder names between UTF-8 and the modified UTF-7
// form IMAP servers use on the wire (RFC 3501 section 5.1.3).
package mailbox

import (
	"fmt"

	"github.com/emersion/go-imap/utf7"
)

// EncodingError reports a folder name that could not be converted.
type EncodingError struct {
	Name string
	Err  error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("invalid mailbox name encoding %q: %v", e.Name, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// Encode converts a UTF-8 folder name to modified UTF-7.
func Encode(name string) (string, error) {
	wire, err := utf7.Encoding.NewEncoder().String(name)
	if err != nil {
		return "", &EncodingError{Name: name, Err: err}
	}
	return wire, nil
}

// Decode converts a modified UTF-7 folder name received from the server to
// UTF-8.
func Decode(wire string) (string, error) {
	name, err := utf7.Encoding.NewDecoder().String(wire)
	if err != nil {
		return "", &EncodingError{Name: wire, Err: err}
	}
	return name, nil
}

// DecodeAll decodes every name in order, stopping at the first failure.
func DecodeAll(wire []string) ([]string, error) {
	names := make([]string, 0, len(wire))
	for _, w := range wire {
		name, err := Decode(w)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}
