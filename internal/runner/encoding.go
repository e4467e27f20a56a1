package runner

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"prun/internal/script"
)

// decodeOutput turns a command's raw captured bytes into the text stored on
// Command.Output and later rendered by internal/logging. A UTF-16 shell
// (the Windows default) gets decoded to UTF-8 when the byte count is even;
// decoding failure keeps the original bytes rather than losing output
// (§4.5). '\r' is always stripped, matching the logged block format.
func decodeOutput(b []byte, enc script.OutputEncoding) string {
	if enc == script.UTF16 && len(b) > 0 && len(b)%2 == 0 {
		if decoded, ok := decodeUTF16(b); ok {
			b = decoded
		}
	}
	return strings.ReplaceAll(string(b), "\r", "")
}

func decodeUTF16(b []byte) ([]byte, bool) {
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	out, _, err := transform.Bytes(dec, b)
	if err != nil {
		return nil, false
	}
	return out, true
}
