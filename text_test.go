package xmldelta

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"
)

func utf16LE(s string) []byte {
	b := []byte{0xFF, 0xFE}
	for _, u := range utf16.Encode([]rune(s)) {
		b = binary.LittleEndian.AppendUint16(b, u)
	}
	return b
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{
			name:  "Plain UTF-8",
			input: []byte(`<r a="é"/>`),
			want:  `<r a="é"/>`,
		},
		{
			name:  "UTF-8 with byte order mark",
			input: append([]byte{0xEF, 0xBB, 0xBF}, `<r a="é"/>`...),
			want:  `<r a="é"/>`,
		},
		{
			name:  "UTF-16 with declaration",
			input: utf16LE(`<?xml version="1.0" encoding="UTF-16"?><r a="é"/>`),
			want:  `<r a="é"/>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeText(tt.input)
			if err != nil {
				t.Fatalf("DecodeText() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeText() = %q, want %q", got, tt.want)
			}
			if _, err := Parse(got); err != nil {
				t.Errorf("Parse(DecodeText()) error = %v", err)
			}
		})
	}
}
