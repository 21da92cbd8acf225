// Package srctext decodes ECMAScript source text from raw bytes before it
// reaches the parser. Script source can arrive as UTF-8, UTF-16 LE, or
// UTF-16 BE (with or without a byte-order mark); this package normalizes
// all of them to a Go string.
package srctext

import (
	"bytes"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode detects data's encoding from its byte-order mark and returns it
// as a UTF-8 string. Data without a recognized BOM is assumed UTF-8; if it
// isn't valid UTF-8, each byte is promoted to its own rune rather than
// rejected outright, so legacy Latin-1 source still loads.
func Decode(data []byte) (string, error) {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return string(data[3:]), nil
	}

	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE {
		return decodeUTF16(data, unicode.LittleEndian)
	}

	if len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF {
		return decodeUTF16(data, unicode.BigEndian)
	}

	if utf8.Valid(data) {
		return string(data), nil
	}

	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes), nil
}

// DecodeFile reads path and decodes it via Decode.
func DecodeFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("srctext: failed to read file: %w", err)
	}
	return Decode(data)
}

func decodeUTF16(data []byte, endianness unicode.Endianness) (string, error) {
	decoder := unicode.UTF16(endianness, unicode.UseBOM).NewDecoder()

	utf8Data, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", fmt.Errorf("srctext: failed to decode UTF-16: %w", err)
	}

	if len(utf8Data) >= 3 && utf8Data[0] == 0xEF && utf8Data[1] == 0xBB && utf8Data[2] == 0xBF {
		utf8Data = utf8Data[3:]
	}

	result := string(utf8Data)
	result = string(bytes.TrimPrefix([]byte(result), []byte("\uFEFF")))
	return result, nil
}
