// internal/transport/usb/vendors.go
package usb

import (
	"github.com/google/gousb"

	"printer-service/pkg/commandset"
)

// Vendor is a receipt printer manufacturer known by USB vendor id
type Vendor struct {
	Name       string
	CommandSet commandset.ID
	Models     map[gousb.ID]string
}

var vendors = map[gousb.ID]Vendor{
	0x04B8: {
		Name:       "Seiko Epson Corporation",
		CommandSet: commandset.EpsonTM,
		Models: map[gousb.ID]string{
			0x0202: "TM-T88IV",
			0x0203: "TM-T88V",
			0x0214: "TM-T88VI",
			0x0215: "TM-T20III",
			0x0216: "TM-T82III",
			0x0217: "TM-M30",
		},
	},
	0x0519: {
		Name:       "Star Micronics Co., Ltd.",
		CommandSet: commandset.EscPosStar,
		Models: map[gousb.ID]string{
			0x0001: "TSP143III",
			0x0002: "TSP143IIIU",
			0x0003: "TSP654II",
		},
	},
	0x1CBE: {
		Name:       "Citizen Systems Japan Co., Ltd.",
		CommandSet: commandset.EscPos,
		Models: map[gousb.ID]string{
			0x0001: "CT-S310II",
			0x0002: "CT-S4000",
		},
	},
	0x1504: {
		Name:       "BIXOLON Co., Ltd.",
		CommandSet: commandset.EscBixolon,
		Models: map[gousb.ID]string{
			0x0006: "SRP-330II",
			0x0007: "SRP-350III",
		},
	},
	0x0416: {
		Name:       "Winbond (generic POS-58/80)",
		CommandSet: commandset.EscPos,
	},
	0x0FE6: {
		Name:       "ICS Advent (generic POS-80)",
		CommandSet: commandset.EscPos,
	},
}

// LookupVendor returns the known vendor for vid
func LookupVendor(vid gousb.ID) (Vendor, bool) {
	v, ok := vendors[vid]
	return v, ok
}

// ModelName names the product, falling back to the vendor name
func (v Vendor) ModelName(pid gousb.ID) string {
	if m, ok := v.Models[pid]; ok {
		return m
	}
	return v.Name
}
