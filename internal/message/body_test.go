package message

import (
	"encoding/base64"
	"testing"
)

func TestAssembleBody(t *testing.T) {
	parts := []EncodedPart{
		{Data: []byte(base64.StdEncoding.EncodeToString([]byte("hello "))), Encoding: EncodingBase64},
		{Data: []byte("world"), Encoding: Encoding7Bit},
	}

	got := AssembleBody(parts)
	if got != "hello \n\nworld" {
		t.Errorf("AssembleBody() = %q, want %q", got, "hello \n\nworld")
	}
}

func TestAssembleBodyEmpty(t *testing.T) {
	if got := AssembleBody(nil); got != "" {
		t.Errorf("AssembleBody(nil) = %q, want empty", got)
	}
}

func TestDecodePart(t *testing.T) {
	tests := []struct {
		name string
		data string
		enc  TransferEncoding
		want string
	}{
		{"base64 with line breaks", "aGVsbG8g\r\nd29ybGQ=", EncodingBase64, "hello world"},
		{"quoted printable", "caf=C3=A9 =\r\nsoft break", EncodingQuotedPrintable, "café soft break"},
		{"8bit passes through", "raw=41", Encoding8Bit, "raw=41"},
		{"binary passes through", "\x00\x01", EncodingBinary, "\x00\x01"},
		{"other passes through", "x-uuencode data", EncodingOther, "x-uuencode data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(DecodePart([]byte(tt.data), tt.enc))
			if got != tt.want {
				t.Errorf("DecodePart() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodePartMalformedBase64(t *testing.T) {
	// The first quantum is valid, the rest is garbage.
	got := string(DecodePart([]byte("aGVs!!!!"), EncodingBase64))
	if len(got) > len("hel") {
		t.Errorf("DecodePart() = %q, want at most the valid prefix", got)
	}
}

func TestParseTransferEncoding(t *testing.T) {
	tests := []struct {
		input string
		want  TransferEncoding
	}{
		{"", Encoding7Bit},
		{"7BIT", Encoding7Bit},
		{"8bit", Encoding8Bit},
		{"BINARY", EncodingBinary},
		{"Base64", EncodingBase64},
		{"QUOTED-PRINTABLE", EncodingQuotedPrintable},
		{"x-uuencode", EncodingOther},
	}
	for _, tt := range tests {
		if got := ParseTransferEncoding(tt.input); got != tt.want {
			t.Errorf("ParseTransferEncoding(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
