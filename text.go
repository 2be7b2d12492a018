package xmldelta

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html/charset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText converts raw document bytes to a UTF-8 string. A byte order mark selects the source
// encoding; without one the bytes are taken as UTF-8 and a declared encoding is left to the
// parser. When the bytes are transcoded the XML declaration is dropped, since it names the old
// encoding.
func DecodeText(data []byte) (string, error) {
	enc, name, certain := charset.DetermineEncoding(data, "text/xml")
	if !certain || name == "utf-8" {
		return string(bytes.TrimPrefix(data, utf8BOM)), nil
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decoding %s input: %w", name, err)
	}
	text := strings.TrimPrefix(string(decoded), "\uFEFF")
	return stripDeclaration(text), nil
}

func stripDeclaration(text string) string {
	trimmed := strings.TrimLeft(text, " \t\r\n")
	if !strings.HasPrefix(trimmed, "<?xml") {
		return text
	}
	end := strings.Index(trimmed, "?>")
	if end < 0 {
		return text
	}
	return trimmed[end+len("?>"):]
}
