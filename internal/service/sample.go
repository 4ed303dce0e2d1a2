// internal/service/sample.go
package service

import (
	"time"

	"github.com/shopspring/decimal"

	"printer-service/internal/model"
)

// SampleOrder is the order printed by a test print
func SampleOrder(now time.Time) *model.Order {
	return &model.Order{
		ID:          "test-print",
		OrderNumber: "TEST",
		CreatedDate: now,
		OrderType:   model.OrderTypeCollection,
		Items: []model.LineItem{
			{
				Name:     "Test Item",
				Quantity: 1,
				Price:    decimal.RequireFromString("1.00"),
				Customizations: model.Customizations{
					{Key: "Size", Values: []string{"Regular"}},
				},
			},
		},
		Subtotal:      decimal.RequireFromString("1.00"),
		Total:         decimal.RequireFromString("1.00"),
		PaymentMethod: "card",
		Notes:         "Printer test",
	}
}

// SampleRestaurant heads the test receipt
func SampleRestaurant() *model.Restaurant {
	return &model.Restaurant{
		Name:    "Printer Test",
		Address: "If you can read this, printing works",
	}
}
