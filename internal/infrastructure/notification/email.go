// Package notification delivers invoice emails to pet owners over SMTP.
package notification

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"

	appinvoicing "github.com/vetclinic/backend/internal/application/invoicing"
	"github.com/vetclinic/backend/internal/domain/directory"
	"github.com/vetclinic/backend/internal/domain/invoicing"
	"github.com/vetclinic/backend/internal/infrastructure/config"
)

// EmailNotifier sends invoice notifications through an SMTP server
type EmailNotifier struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailNotifier creates a notifier from SMTP configuration
func NewEmailNotifier(cfg config.SMTPConfig) *EmailNotifier {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.TLSConfig = &tls.Config{
		ServerName: cfg.Host,
		MinVersion: tls.VersionTLS12,
	}

	return &EmailNotifier{
		dialer: dialer,
		from:   cfg.From,
	}
}

// NotifyInvoiceSent emails the invoice summary to the owner.
// Owners without an email address on file are skipped silently; that is a
// directory data problem, not a delivery failure.
func (n *EmailNotifier) NotifyInvoiceSent(_ context.Context, inv *invoicing.Invoice, owner *directory.Owner, message string) error {
	if owner.Email == "" {
		return nil
	}

	msg := gomail.NewMessage(
		gomail.SetCharset("UTF-8"),
		gomail.SetEncoding(gomail.Base64),
	)
	msg.SetAddressHeader("From", n.from, "Facturación")
	msg.SetAddressHeader("To", owner.Email, owner.FullName)
	msg.SetHeader("Subject", fmt.Sprintf("Factura %s", inv.InvoiceNumber))
	msg.SetBody("text/html", renderInvoiceEmail(inv, owner, message))

	if err := n.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send invoice email: %w", err)
	}
	return nil
}

// renderInvoiceEmail builds the HTML body for the sent-invoice email
func renderInvoiceEmail(inv *invoicing.Invoice, owner *directory.Owner, message string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<p>Estimado/a %s,</p>", html.EscapeString(owner.FullName))
	fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(inv.Summary()))

	b.WriteString("<table border=\"1\" cellpadding=\"4\">")
	b.WriteString("<tr><th>Descripción</th><th>Cantidad</th><th>Precio</th><th>Importe</th></tr>")
	for _, item := range inv.Items {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>",
			html.EscapeString(item.Description), item.Quantity, item.UnitPrice, item.LineTotal)
	}
	b.WriteString("</table>")

	fmt.Fprintf(&b, "<p>Subtotal: %s %s<br>Impuesto (%s%%): %s %s<br>Total: %s %s</p>",
		inv.Subtotal, inv.Currency, inv.TaxRate, inv.TaxAmount, inv.Currency, inv.Total, inv.Currency)

	if message != "" {
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(message))
	}
	b.WriteString("</body></html>")
	return b.String()
}

var _ appinvoicing.InvoiceNotifier = (*EmailNotifier)(nil)
