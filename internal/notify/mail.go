// Package notify sends customer notifications.
package notify

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/order"
)

type Notifier interface {
	OrderPaid(ctx context.Context, o *order.Order) error
}

// Nop only logs. Used when SMTP is not configured.
type Nop struct{}

func (Nop) OrderPaid(_ context.Context, o *order.Order) error {
	log.Printf("[notify] smtp disabled, skipping confirmation for %s", o.OrderNumber)
	return nil
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPNotifier struct {
	cfg  SMTPConfig
	tmpl *template.Template
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, tmpl: confirmationTmpl}
}

func (n *SMTPNotifier) OrderPaid(ctx context.Context, o *order.Order) error {
	if o.CustomerEmail == "" {
		log.Printf("[notify] order %s has no customer email, skipping", o.OrderNumber)
		return nil
	}
	msg, err := n.message(o)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(10 * time.Second),
	}
	if n.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(n.cfg.Username),
			mail.WithPassword(n.cfg.Password),
		)
	}
	client, err := mail.NewClient(n.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send confirmation %s: %w", o.OrderNumber, err)
	}
	log.Printf("[notify] confirmation for %s sent to %s", o.OrderNumber, o.CustomerEmail)
	return nil
}

func (n *SMTPNotifier) message(o *order.Order) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.cfg.From); err != nil {
		return nil, fmt.Errorf("from %q: %w", n.cfg.From, err)
	}
	if err := msg.To(o.CustomerEmail); err != nil {
		return nil, fmt.Errorf("to %q: %w", o.CustomerEmail, err)
	}
	msg.Subject(fmt.Sprintf("Order %s confirmed", o.OrderNumber))
	if err := msg.SetBodyHTMLTemplate(n.tmpl, confirmationData(o)); err != nil {
		return nil, fmt.Errorf("render confirmation: %w", err)
	}
	return msg, nil
}

type confirmationLine struct {
	Name     string
	Quantity int
	Price    string
	Total    string
}

type confirmation struct {
	OrderNumber string
	Currency    string
	Lines       []confirmationLine
	Subtotal    string
	Shipping    string
	Tax         string
	Total       string
}

func confirmationData(o *order.Order) confirmation {
	c := confirmation{
		OrderNumber: o.OrderNumber,
		Currency:    o.Currency,
		Subtotal:    o.Subtotal.StringFixed(2),
		Shipping:    o.ShippingAmount.StringFixed(2),
		Tax:         o.TaxAmount.StringFixed(2),
		Total:       o.TotalAmount.StringFixed(2),
	}
	for _, it := range o.Items {
		name := it.ProductName
		if name == "" {
			name = it.ProductID
		}
		c.Lines = append(c.Lines, confirmationLine{
			Name:     name,
			Quantity: it.Quantity,
			Price:    it.PriceAtTime.StringFixed(2),
			Total:    it.Subtotal().StringFixed(2),
		})
	}
	return c
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html lang="en">
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
  <div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
    <h2>Thank you for your order</h2>
    <p>Your payment for order <strong>{{.OrderNumber}}</strong> was received.</p>
    <table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
      <thead>
        <tr><th align="left">Product</th><th align="left">Qty</th><th align="left">Price</th><th align="left">Total</th></tr>
      </thead>
      <tbody>
      {{- range .Lines}}
        <tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{.Price}}</td><td>{{.Total}}</td></tr>
      {{- end}}
      </tbody>
    </table>
    <p>Subtotal: {{.Subtotal}} {{.Currency}}<br>Shipping: {{.Shipping}} {{.Currency}}<br>Tax: {{.Tax}} {{.Currency}}</p>
    <p><strong>Total: {{.Total}} {{.Currency}}</strong></p>
  </div>
</body>
</html>`))
