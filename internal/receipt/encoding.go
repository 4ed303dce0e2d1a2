// internal/receipt/encoding.go
package receipt

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"printer-service/pkg/commandset"
)

// Encoding converts receipt text to printer bytes
type Encoding struct {
	name    string
	charmap *charmap.Charmap
	table   byte // ESC t n
}

// UTF8 sends text unchanged
var UTF8 = Encoding{name: "utf-8"}

var encodings = map[string]Encoding{
	"utf-8":  UTF8,
	"cp437":  {name: "cp437", charmap: charmap.CodePage437, table: 0},
	"cp850":  {name: "cp850", charmap: charmap.CodePage850, table: 2},
	"cp858":  {name: "cp858", charmap: charmap.CodePage858, table: 19},
	"cp1252": {name: "cp1252", charmap: charmap.Windows1252, table: 16},
}

var encodingAliases = map[string]string{
	"":             "utf-8",
	"utf8":         "utf-8",
	"pc437":        "cp437",
	"pc850":        "cp850",
	"pc858":        "cp858",
	"windows-1252": "cp1252",
	"wpc1252":      "cp1252",
}

// LookupEncoding resolves an encoding name. Empty means utf-8.
func LookupEncoding(name string) (Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := encodingAliases[key]; ok {
		key = alias
	}
	enc, ok := encodings[key]
	if !ok {
		return Encoding{}, fmt.Errorf("unsupported code page %q (supported: %s)", name, strings.Join(EncodingNames(), ", "))
	}
	return enc, nil
}

// EncodingNames lists the canonical encoding names
func EncodingNames() []string {
	names := make([]string, 0, len(encodings))
	for name := range encodings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e Encoding) Name() string {
	if e.name == "" {
		return UTF8.name
	}
	return e.name
}

// Encode converts s. Runes missing from a code page become '?'.
func (e Encoding) Encode(s string) []byte {
	if e.charmap == nil {
		return []byte(s)
	}

	out := make([]byte, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		b, ok := e.charmap.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}

// SelectCommand returns the ESC t sequence that switches the printer to this
// code page, or nil for utf-8.
func (e Encoding) SelectCommand() []byte {
	if e.charmap == nil {
		return nil
	}
	return []byte{commandset.ESC, 't', e.table}
}
