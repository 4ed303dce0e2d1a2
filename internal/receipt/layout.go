// internal/receipt/layout.go
package receipt

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"printer-service/internal/model"
	cs "printer-service/pkg/commandset"
)

const (
	LineWidth     = 32
	LabelColumns  = 20
	AmountColumns = 12
	Currency      = "£"
	ThankYou      = "Thank you!"
	DateLayout    = "02/01/2006 15:04"
)

var separator = strings.Repeat("=", LineWidth) + "\n"

// Options tune values the layout cannot derive from its inputs
type Options struct {
	// Now is printed when the order carries no creation date.
	Now time.Time
}

type builder struct {
	parts []Part
}

func (b *builder) cmd(cmds ...cs.Command) {
	for _, c := range cmds {
		b.parts = append(b.parts, Cmd(c))
	}
}

func (b *builder) line(s string) {
	b.parts = append(b.parts, Text(s+"\n"))
}

func (b *builder) raw(s string) {
	b.parts = append(b.parts, Text(s))
}

func (b *builder) separator() {
	b.parts = append(b.parts, Text(separator))
}

// Build lays out the receipt for order. The result depends only on its
// arguments.
func Build(order *model.Order, restaurant *model.Restaurant, cfg model.PrinterConfig, opts Options) []Part {
	if order == nil {
		order = &model.Order{}
	}
	if restaurant == nil {
		restaurant = &model.Restaurant{}
	}

	tpl := cfg.Template
	custom := cfg.IsCustom()
	itemized := tpl == model.TemplateItemized
	compact := tpl == model.TemplateCompact
	ref := order.Reference()

	b := &builder{}

	// header
	b.cmd(cs.Init, cs.AlignCenter)
	if cfg.ShowLogo && strings.TrimSpace(restaurant.LogoURL) != "" {
		b.line("[LOGO]")
	}

	if itemized || compact {
		b.cmd(cs.DoubleHeight)
	}
	b.cmd(cs.BoldOn)
	b.line(restaurant.Name)
	b.cmd(cs.BoldOff, cs.Normal)

	if !compact && strings.TrimSpace(restaurant.Address) != "" {
		b.line(restaurant.Address)
	}

	b.cmd(cs.AlignLeft)
	b.separator()

	if strings.TrimSpace(cfg.HeaderText) != "" {
		b.cmd(cs.AlignCenter)
		b.line(cfg.HeaderText)
		b.cmd(cs.AlignLeft)
		b.separator()
	}

	// order details
	if cfg.ShowOrderNumber {
		b.cmd(cs.AlignCenter)
		if itemized {
			b.cmd(cs.DoubleHeight)
		}
		b.cmd(cs.BoldOn)
		b.line("ORDER " + ref)
		b.cmd(cs.BoldOff, cs.Normal, cs.AlignLeft)
	} else {
		b.line("Order: " + ref)
	}

	if custom && cfg.CustomSections.ShowBarcode {
		b.cmd(cs.AlignCenter)
		b.line("[BARCODE: " + ref + "]")
		b.cmd(cs.AlignLeft)
	}

	if !compact {
		created := order.CreatedDate
		if created.IsZero() {
			created = opts.Now
		}
		b.line("Date: " + created.Format(DateLayout))
	}
	b.line("Type: " + order.OrderType.Label())
	b.separator()

	// each customer field closes with its own separator
	if cfg.ShowCustomerDetails && !compact && order.HasCustomerDetails() {
		if name := order.CustomerName(); name != "" {
			b.line("Customer: " + name)
			b.separator()
		}
		if order.DeliveryAddress != "" {
			b.line("Address: " + order.DeliveryAddress)
			b.separator()
		}
		if order.Phone != "" {
			b.line("Phone: " + order.Phone)
			b.separator()
		}
	}

	// items
	showCustomizations := tpl == model.TemplateDetailed || itemized
	for _, item := range order.Items {
		label := itemLabel(item)
		total := Money(item.LineTotal())

		if itemized {
			b.cmd(cs.BoldOn)
			b.line(label)
			b.cmd(cs.BoldOff)
			b.line("    " + total)
		} else {
			b.line(Columns(label, total))
		}

		if showCustomizations {
			for _, c := range item.Customizations {
				b.line("  " + c.Key + ": " + c.Value())
			}
		}
		if custom && cfg.CustomSections.ShowAllergenInfo && len(item.Allergens) > 0 {
			b.line("  Allergens: " + item.Allergens.String())
		}
	}
	b.separator()

	// totals
	if !compact {
		b.line(Columns("Subtotal:", Money(order.Subtotal)))
		if order.DeliveryFee.IsPositive() {
			b.line(Columns("Delivery:", Money(order.DeliveryFee)))
		}
		if order.Discount.IsPositive() {
			b.line(Columns("Discount:", Money(order.Discount.Neg())))
		}
	}

	if itemized {
		b.cmd(cs.DoubleHeight)
	}
	b.cmd(cs.BoldOn)
	b.line(Columns("TOTAL:", Money(order.Total)))
	b.cmd(cs.BoldOff)
	if itemized {
		b.cmd(cs.Normal)
	}

	if tpl != model.TemplateMinimal {
		b.line("Payment: " + PaymentLabel(order.PaymentMethod))
	}

	if strings.TrimSpace(order.Notes) != "" {
		b.separator()
		b.line("Notes: " + order.Notes)
	}

	// custom sections and footer
	if custom && cfg.CustomSections.ShowSocialMedia && restaurant.SocialMedia.HasLinks() {
		sm := restaurant.SocialMedia
		b.cmd(cs.AlignCenter)
		if sm.Instagram != "" {
			b.line("Instagram: " + sm.Instagram)
		}
		if sm.Facebook != "" {
			b.line("Facebook: " + sm.Facebook)
		}
		b.cmd(cs.AlignLeft)
	}

	if custom && cfg.CustomSections.ShowQRCode {
		b.cmd(cs.AlignCenter)
		b.line("[QR CODE]")
		b.cmd(cs.AlignLeft)
	}

	if strings.TrimSpace(cfg.FooterText) != "" {
		b.cmd(cs.AlignCenter)
		b.line(cfg.FooterText)
		b.cmd(cs.AlignLeft)
	}

	b.separator()
	b.cmd(cs.AlignCenter)
	b.line(ThankYou)
	b.raw("\n\n\n")
	b.cmd(cs.Cut)

	return b.parts
}

func itemLabel(item model.LineItem) string {
	return strconv.Itoa(item.Quantity) + "x " + item.Name
}

// Columns left-pads label to LabelColumns and right-aligns amount in
// AmountColumns. Widths are counted in runes.
func Columns(label, amount string) string {
	return padRight(label, LabelColumns) + padLeft(amount, AmountColumns)
}

// Money formats an amount in pounds, negatives as -£x.xx
func Money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + Currency + d.Neg().StringFixed(2)
	}
	return Currency + d.StringFixed(2)
}

// PaymentLabel turns card / cash_on_delivery into Card / Cash On Delivery
func PaymentLabel(method string) string {
	method = strings.TrimSpace(strings.ReplaceAll(method, "_", " "))
	if method == "" {
		return "-"
	}
	return cases.Title(language.BritishEnglish).String(method)
}

func padRight(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func padLeft(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return strings.Repeat(" ", width-n) + s
	}
	return s
}
