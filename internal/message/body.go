package message

import (
	"bytes"
	"io"
	"strings"

	gomessage "github.com/emersion/go-message"
)

// TransferEncoding is a body part's Content-Transfer-Encoding.
type TransferEncoding int

const (
	Encoding7Bit TransferEncoding = iota
	Encoding8Bit
	EncodingBinary
	EncodingBase64
	EncodingQuotedPrintable
	EncodingOther
)

// ParseTransferEncoding maps a Content-Transfer-Encoding token to its
// TransferEncoding. An empty token means 7bit.
func ParseTransferEncoding(s string) TransferEncoding {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "7bit":
		return Encoding7Bit
	case "8bit":
		return Encoding8Bit
	case "binary":
		return EncodingBinary
	case "base64":
		return EncodingBase64
	case "quoted-printable":
		return EncodingQuotedPrintable
	}
	return EncodingOther
}

func (e TransferEncoding) String() string {
	switch e {
	case Encoding7Bit:
		return "7bit"
	case Encoding8Bit:
		return "8bit"
	case EncodingBinary:
		return "binary"
	case EncodingBase64:
		return "base64"
	case EncodingQuotedPrintable:
		return "quoted-printable"
	}
	return "other"
}

func (e TransferEncoding) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// EncodedPart is a fetched body part and the encoding it was sent in.
type EncodedPart struct {
	Data     []byte
	Encoding TransferEncoding
}

// DecodePart undoes base64 and quoted-printable encoding. Malformed input
// yields whatever decoded cleanly before the fault. Other encodings are
// returned unchanged.
func DecodePart(data []byte, enc TransferEncoding) []byte {
	if enc != EncodingBase64 && enc != EncodingQuotedPrintable {
		return data
	}

	var h gomessage.Header
	h.Set("Content-Transfer-Encoding", enc.String())
	entity, err := gomessage.New(h, bytes.NewReader(data))
	if err != nil {
		return data
	}

	decoded, _ := io.ReadAll(entity.Body)
	return decoded
}

// AssembleBody decodes every part and joins them, in order, with a blank
// line. It does not rebuild MIME boundaries.
func AssembleBody(parts []EncodedPart) string {
	decoded := make([]string, len(parts))
	for i, p := range parts {
		decoded[i] = string(DecodePart(p.Data, p.Encoding))
	}
	return strings.Join(decoded, "\n\n")
}
