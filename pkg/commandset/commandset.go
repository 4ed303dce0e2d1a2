// pkg/commandset/commandset.go
package commandset

import "strings"

// Control prefixes shared by the ESC/POS family.
const (
	ESC byte = 0x1B
	GS  byte = 0x1D
	FS  byte = 0x1C
)

// ID names a printer command dialect.
type ID int

const (
	EscPos ID = iota
	EscPosStar
	EscBixolon
	EpsonTM
)

// Default is used for absent or unknown dialect names.
const Default = EscPos

// IDs returns every supported dialect in declaration order.
func IDs() []ID {
	return []ID{EscPos, EscPosStar, EscBixolon, EpsonTM}
}

func (id ID) String() string {
	switch id {
	case EscPos:
		return "esc_pos"
	case EscPosStar:
		return "esc_pos_star"
	case EscBixolon:
		return "esc_bixolon"
	case EpsonTM:
		return "epson_tm"
	default:
		return "esc_pos"
	}
}

// Parse maps a dialect name to its ID. Unknown names fall back to Default;
// ok reports whether the name was recognised.
func Parse(name string) (id ID, ok bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "esc_pos":
		return EscPos, true
	case "esc_pos_star":
		return EscPosStar, true
	case "esc_bixolon":
		return EscBixolon, true
	case "epson_tm":
		return EpsonTM, true
	default:
		return Default, false
	}
}

// Command is one of the formatting operations a receipt needs.
type Command int

const (
	Init Command = iota
	AlignCenter
	AlignLeft
	BoldOn
	BoldOff
	DoubleHeight
	Normal
	Cut
)

// Commands returns every command in table order.
func Commands() []Command {
	return []Command{Init, AlignCenter, AlignLeft, BoldOn, BoldOff, DoubleHeight, Normal, Cut}
}

func (c Command) String() string {
	switch c {
	case Init:
		return "init"
	case AlignCenter:
		return "alignCenter"
	case AlignLeft:
		return "alignLeft"
	case BoldOn:
		return "boldOn"
	case BoldOff:
		return "boldOff"
	case DoubleHeight:
		return "doubleHeight"
	case Normal:
		return "normal"
	case Cut:
		return "cut"
	default:
		return "unknown"
	}
}

// Table holds the control sequences of one dialect.
type Table struct {
	ID           ID
	Init         []byte
	AlignCenter  []byte
	AlignLeft    []byte
	BoldOn       []byte
	BoldOff      []byte
	DoubleHeight []byte
	Normal       []byte
	Cut          []byte
}

// Bytes returns the sequence for c. The slice is a copy.
func (t Table) Bytes(c Command) []byte {
	var b []byte
	switch c {
	case Init:
		b = t.Init
	case AlignCenter:
		b = t.AlignCenter
	case AlignLeft:
		b = t.AlignLeft
	case BoldOn:
		b = t.BoldOn
	case BoldOff:
		b = t.BoldOff
	case DoubleHeight:
		b = t.DoubleHeight
	case Normal:
		b = t.Normal
	case Cut:
		b = t.Cut
	}
	return append([]byte(nil), b...)
}

// GetCommands returns the table for a dialect name, falling back to esc_pos.
func GetCommands(name string) Table {
	id, _ := Parse(name)
	return id.Table()
}

// Table builds the command table of the dialect. init and alignment are
// shared by every dialect; bold, size and cut differ.
func (id ID) Table() Table {
	t := Table{
		ID:          id,
		Init:        []byte{ESC, '@'},       // ESC @
		AlignCenter: []byte{ESC, 'a', 0x01}, // ESC a 1
		AlignLeft:   []byte{ESC, 'a', 0x00}, // ESC a 0
	}

	switch id {
	case EscPosStar:
		t.BoldOn = []byte{ESC, 'E'}  // ESC E
		t.BoldOff = []byte{ESC, 'F'} // ESC F
		t.DoubleHeight = []byte{ESC, '!', 0x10}
		t.Normal = []byte{ESC, '!', 0x00}
		t.Cut = []byte{ESC, 'd', 0x03} // ESC d 3
	case EscBixolon:
		t.BoldOn = []byte{ESC, 'E', 0x01}
		t.BoldOff = []byte{ESC, 'E', 0x00}
		t.DoubleHeight = []byte{GS, '!', 0x11} // GS ! 17
		t.Normal = []byte{GS, '!', 0x00}
		t.Cut = []byte{GS, 'V', 0x00} // GS V 0
	case EpsonTM:
		t.BoldOn = []byte{ESC, 'E', 0x01}
		t.BoldOff = []byte{ESC, 'E', 0x00}
		t.DoubleHeight = []byte{ESC, '!', 0x30} // ESC ! 48
		t.Normal = []byte{ESC, '!', 0x00}
		t.Cut = []byte{GS, 'V', 0x41, 0x03} // GS V A 3
	default:
		t.ID = EscPos
		t.BoldOn = []byte{ESC, 'E', 0x01}  // ESC E 1
		t.BoldOff = []byte{ESC, 'E', 0x00} // ESC E 0
		t.DoubleHeight = []byte{ESC, '!', 0x10}
		t.Normal = []byte{ESC, '!', 0x00}
		t.Cut = []byte{GS, 'V', 0x41, 0x00} // GS V A 0
	}

	return t
}
