// internal/receipt/part.go
package receipt

import (
	"fmt"
	"strings"

	"printer-service/pkg/commandset"
)

// Part is one element of the receipt stream: a formatting command or a text
// fragment. Parts are written to the printer one by one, in order.
type Part struct {
	Command commandset.Command
	Text    string
	IsText  bool
}

// Cmd wraps a formatting command
func Cmd(c commandset.Command) Part {
	return Part{Command: c}
}

// Text wraps a text fragment
func Text(s string) Part {
	return Part{Text: s, IsText: true}
}

func (p Part) String() string {
	if p.IsText {
		return fmt.Sprintf("%q", p.Text)
	}
	return "<" + p.Command.String() + ">"
}

// PlainText concatenates the text parts, dropping formatting.
func PlainText(parts []Part) string {
	var b strings.Builder
	for _, p := range parts {
		if p.IsText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// Fragment is one printer write unit: the bytes of a single part
type Fragment struct {
	Label string
	Data  []byte
}

// Encode turns parts into the fragments sent to the printer, using the
// dialect table for commands and enc for text. A code page selection
// follows init when enc needs one.
func Encode(parts []Part, table commandset.Table, enc Encoding) []Fragment {
	out := make([]Fragment, 0, len(parts)+1)
	for _, p := range parts {
		if p.IsText {
			out = append(out, Fragment{Label: p.String(), Data: enc.Encode(p.Text)})
			continue
		}

		out = append(out, Fragment{Label: p.String(), Data: table.Bytes(p.Command)})
		if p.Command == commandset.Init {
			if sel := enc.SelectCommand(); sel != nil {
				out = append(out, Fragment{Label: "<codepage " + enc.Name() + ">", Data: sel})
			}
		}
	}
	return out
}

// Bytes concatenates the fragments into one stream
func Bytes(fragments []Fragment) []byte {
	out := make([]byte, 0, Size(fragments))
	for _, f := range fragments {
		out = append(out, f.Data...)
	}
	return out
}

// Size is the total byte length of the fragments
func Size(fragments []Fragment) int {
	n := 0
	for _, f := range fragments {
		n += len(f.Data)
	}
	return n
}
