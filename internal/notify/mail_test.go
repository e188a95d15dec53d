package notify

import (
	"bytes"
	"context"
	"io"
	"log"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/order"
)

func init() { log.SetOutput(io.Discard) }

func paidOrder() *order.Order {
	return &order.Order{
		OrderNumber:    "LH-250101120000-ABC123",
		CustomerEmail:  "ana@example.com",
		Currency:       "usd",
		Subtotal:       decimal.RequireFromString("59.98"),
		ShippingAmount: decimal.Zero,
		TaxAmount:      decimal.Zero,
		TotalAmount:    decimal.RequireFromString("59.98"),
		Items: []order.Item{
			{ProductID: "p1", ProductName: "Silk <scarf>", Quantity: 2, PriceAtTime: decimal.RequireFromString("29.99")},
		},
	}
}

func TestConfirmationMessage(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{Host: "localhost", Port: 2525, From: "orders@luxuryhub.test"})

	msg, err := n.message(paidOrder())
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "Order LH-250101120000-ABC123 confirmed")
	assert.Contains(t, out, "ana@example.com")
	assert.Contains(t, out, "orders@luxuryhub.test")
}

func TestConfirmationDataEscapesAndFormats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, confirmationTmpl.Execute(&buf, confirmationData(paidOrder())))
	html := buf.String()

	assert.Contains(t, html, "Silk &lt;scarf&gt;")
	assert.Contains(t, html, "<td>29.99</td><td>59.98</td>")
	assert.Contains(t, html, "Total: 59.98 usd")
}

func TestBadSenderRejected(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{Host: "localhost", Port: 2525, From: "not an address"})
	_, err := n.message(paidOrder())
	assert.Error(t, err)
}

func TestSkipsOrdersWithoutEmail(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{Host: "127.0.0.1", Port: 1, From: "orders@luxuryhub.test"})
	o := paidOrder()
	o.CustomerEmail = ""
	assert.NoError(t, n.OrderPaid(context.Background(), o))
	assert.NoError(t, Nop{}.OrderPaid(context.Background(), o))
}
