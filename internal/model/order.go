// internal/model/order.go
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderType represents how the order is fulfilled
type OrderType string

const (
	OrderTypeDelivery   OrderType = "delivery"
	OrderTypeCollection OrderType = "collection"
	OrderTypeDineIn     OrderType = "dine_in"
)

// Label returns the printable name of the order type
func (t OrderType) Label() string {
	switch t {
	case OrderTypeDelivery:
		return "Delivery"
	case OrderTypeCollection:
		return "Collection"
	case OrderTypeDineIn:
		return "Dine In"
	default:
		return string(t)
	}
}

// Order is the read-only order record supplied by the ordering app
type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"orderNumber,omitempty"`
	CreatedDate     time.Time       `json:"createdDate"`
	OrderType       OrderType       `json:"orderType"`
	Items           []LineItem      `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"deliveryFee"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
	PaymentMethod   string          `json:"paymentMethod"`
	Notes           string          `json:"notes,omitempty"`
	GuestName       string          `json:"guestName,omitempty"`
	CreatedBy       string          `json:"createdBy,omitempty"`
	DeliveryAddress string          `json:"deliveryAddress,omitempty"`
	Phone           string          `json:"phone,omitempty"`
}

// Reference returns the identifier printed on the receipt
func (o *Order) Reference() string {
	if o.OrderNumber != "" {
		return o.OrderNumber
	}
	return o.ID
}

// CustomerName prefers the guest name over the account that placed the order
func (o *Order) CustomerName() string {
	if strings.TrimSpace(o.GuestName) != "" {
		return o.GuestName
	}
	return o.CreatedBy
}

// HasCustomerDetails reports whether any customer field is set
func (o *Order) HasCustomerDetails() bool {
	return o.CustomerName() != "" || o.DeliveryAddress != "" || o.Phone != ""
}

// Validate checks the fields the receipt layout depends on
func (o *Order) Validate() error {
	if strings.TrimSpace(o.ID) == "" {
		return fmt.Errorf("order id is required")
	}
	for i, item := range o.Items {
		if strings.TrimSpace(item.Name) == "" {
			return fmt.Errorf("item %d: name is required", i)
		}
		if item.Quantity < 0 {
			return fmt.Errorf("item %d: quantity must not be negative", i)
		}
	}
	return nil
}

// LineItem is one ordered product
type LineItem struct {
	Name           string          `json:"name"`
	Quantity       int             `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	Customizations Customizations  `json:"customizations,omitempty"`
	Allergens      TextList        `json:"allergens,omitempty"`
}

// LineTotal is unit price times quantity
func (li LineItem) LineTotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Customization is a single option chosen for an item, e.g. Size: Large
type Customization struct {
	Key    string
	Values []string
}

// Value joins multi-valued options with a comma
func (c Customization) Value() string {
	return strings.Join(c.Values, ", ")
}

// Customizations keeps the key order of the source JSON object
type Customizations []Customization

// UnmarshalJSON accepts an object whose values are strings or string lists
func (c *Customizations) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("customizations: expected object")
	}

	var out Customizations
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("customizations: expected string key")
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("customizations %q: %w", key, err)
		}

		var values TextList
		if err := values.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("customizations %q: %w", key, err)
		}
		if len(values) == 0 {
			continue
		}
		out = append(out, Customization{Key: key, Values: values})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*c = out
	return nil
}

// MarshalJSON writes the customizations back as an ordered object
func (c Customizations) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cz := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(cz.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		var value []byte
		if len(cz.Values) == 1 {
			value, err = json.Marshal(cz.Values[0])
		} else {
			value, err = json.Marshal(cz.Values)
		}
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// TextList decodes either a single string or a list of strings
type TextList []string

// UnmarshalJSON accepts "a", ["a","b"] or null
func (l *TextList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}

	if trimmed[0] == '[' {
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		out := list[:0]
		for _, v := range list {
			if strings.TrimSpace(v) != "" {
				out = append(out, v)
			}
		}
		*l = out
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*l = nil
		return nil
	}
	*l = TextList{s}
	return nil
}

// String joins the entries for printing
func (l TextList) String() string {
	return strings.Join(l, ", ")
}
