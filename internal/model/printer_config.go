// internal/model/printer_config.go
package model

import (
	"strings"
	"time"
)

// Template selects the receipt layout variant
type Template string

const (
	TemplateStandard Template = "standard"
	TemplateDetailed Template = "detailed"
	TemplateMinimal  Template = "minimal"
	TemplateItemized Template = "itemized"
	TemplateCompact  Template = "compact"
	TemplateCustom   Template = "custom"
)

// PrinterWidth is the paper width; informational only
type PrinterWidth string

const (
	PrinterWidth58mm PrinterWidth = "58mm"
	PrinterWidth80mm PrinterWidth = "80mm"
)

// TransportKind names the link a printer is reached through
type TransportKind string

const (
	TransportBluetooth TransportKind = "bluetooth"
	TransportSerial    TransportKind = "serial"
	TransportTCP       TransportKind = "tcp"
	TransportUSB       TransportKind = "usb"
)

// ParseTransportKind normalises a kind name; empty means unset
func ParseTransportKind(s string) (TransportKind, bool) {
	switch kind := TransportKind(strings.ToLower(strings.TrimSpace(s))); kind {
	case TransportBluetooth, TransportSerial, TransportTCP, TransportUSB:
		return kind, true
	default:
		return "", false
	}
}

// BluetoothPrinter is the identity of a previously paired printer
type BluetoothPrinter struct {
	ID          string        `json:"id"`
	Name        string        `json:"name,omitempty"`
	ConnectedAt *time.Time    `json:"connectedAt,omitempty"`
	Transport   TransportKind `json:"transport,omitempty"`
}

// CustomSections are only consulted by the custom template
type CustomSections struct {
	ShowQRCode       bool `json:"showQrCode"`
	ShowBarcode      bool `json:"showBarcode"`
	ShowSocialMedia  bool `json:"showSocialMedia"`
	ShowAllergenInfo bool `json:"showAllergenInfo"`
}

// PrinterConfig is the printer configuration stored on the restaurant record
type PrinterConfig struct {
	BluetoothPrinter    *BluetoothPrinter `json:"bluetoothPrinter"`
	CommandSet          string            `json:"commandSet,omitempty"`
	Template            Template          `json:"template,omitempty"`
	PrinterWidth        PrinterWidth      `json:"printerWidth,omitempty"`
	ShowLogo            bool              `json:"showLogo"`
	ShowOrderNumber     bool              `json:"showOrderNumber"`
	ShowCustomerDetails bool              `json:"showCustomerDetails"`
	HeaderText          string            `json:"headerText,omitempty"`
	FooterText          string            `json:"footerText,omitempty"`
	CustomSections      CustomSections    `json:"customSections"`
	CodePage            string            `json:"codePage,omitempty"`
}

// Snapshot returns a copy that is safe to read while the caller mutates the
// original.
func (c *PrinterConfig) Snapshot() PrinterConfig {
	cp := *c
	if c.BluetoothPrinter != nil {
		bp := *c.BluetoothPrinter
		cp.BluetoothPrinter = &bp
	}
	return cp
}

// IsCustom reports whether the custom sections apply
func (c *PrinterConfig) IsCustom() bool {
	return c.Template == TemplateCustom
}

// Restaurant is the read-only restaurant record
type Restaurant struct {
	Name        string       `json:"name"`
	Address     string       `json:"address,omitempty"`
	LogoURL     string       `json:"logoUrl,omitempty"`
	SocialMedia *SocialMedia `json:"socialMedia,omitempty"`
}

// SocialMedia holds the restaurant's public handles
type SocialMedia struct {
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
}

// HasLinks reports whether any handle is set
func (s *SocialMedia) HasLinks() bool {
	return s != nil && (strings.TrimSpace(s.Instagram) != "" || strings.TrimSpace(s.Facebook) != "")
}
