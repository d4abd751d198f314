package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/imrishuroy/merch-order-admin/internal/orders"
)

var priceLocale = language.MustParse("en-IN")

// FormatPrice renders an amount in rupees with Indian digit grouping.
func FormatPrice(amount float64) string {
	p := message.NewPrinter(priceLocale)
	return p.Sprintf("₹%v", number.Decimal(amount, number.MaxFractionDigits(2)))
}

type confirmationData struct {
	StoreName     string
	LogoURL       string
	CustomerName  string
	OrderID       string
	ProductName   string
	ProductSize   string
	TransactionID string
	Total         string
	Address       string
}

func subjectFor(storeName string, o orders.Order) string {
	return fmt.Sprintf("Order Confirmed - #%s | %s", strings.ToUpper(o.OrderID), storeName)
}

func renderConfirmation(storeName, logoURL string, o orders.Order) (string, error) {
	data := confirmationData{
		StoreName:     storeName,
		LogoURL:       logoURL,
		CustomerName:  o.Customer.Name,
		OrderID:       strings.ToUpper(o.OrderID),
		ProductName:   o.Product.Name,
		ProductSize:   o.Product.Size,
		TransactionID: o.Payment.TransactionID,
		Total:         FormatPrice(o.Product.Price),
		Address:       o.Customer.Address,
	}
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render confirmation: %w", err)
	}
	return buf.String(), nil
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <meta name="color-scheme" content="light only">
    <title>Order Confirmed - {{.StoreName}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f5f5f5;">
<table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f5f5f5;">
<tr><td align="center" style="padding: 40px 20px;">
<table role="presentation" width="600" cellspacing="0" cellpadding="0" style="background-color: #ffffff; border-radius: 16px; overflow: hidden;">
    <tr>
        <td style="background-color: #000000; padding: 30px 40px; text-align: center;" bgcolor="#000000">
            {{if .LogoURL}}<img src="{{.LogoURL}}" alt="{{.StoreName}}" style="height: 40px; width: auto; margin-bottom: 12px;" />{{end}}
            <p style="margin: 0; color: rgba(255,255,255,0.9); font-size: 14px;">Order Confirmation</p>
        </td>
    </tr>
    <tr>
        <td style="padding: 40px;">
            <h2 style="margin: 0 0 10px 0; color: #16a34a; font-size: 24px; text-align: center;">Payment Verified!</h2>
            <p style="margin: 0 0 30px 0; color: #6b7280; font-size: 16px; text-align: center; line-height: 1.6;">
                Hi <strong style="color: #1f2937;">{{.CustomerName}}</strong>, your payment has been verified and your order is confirmed!
            </p>
            <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f9fafb; border-radius: 12px; margin-bottom: 24px; border: 1px solid #e5e7eb;">
                <tr><td style="padding: 24px;">
                    <h3 style="margin: 0 0 16px 0; color: #1f2937; font-size: 16px; text-transform: uppercase;">Order Details</h3>
                    <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                        <tr><td style="padding: 8px 0; color: #6b7280;">Order ID</td><td style="padding: 8px 0; text-align: right; font-family: monospace;">#{{.OrderID}}</td></tr>
                        <tr><td style="padding: 8px 0; color: #6b7280;">Product</td><td style="padding: 8px 0; text-align: right;">{{.ProductName}}</td></tr>
                        <tr><td style="padding: 8px 0; color: #6b7280;">Size</td><td style="padding: 8px 0; text-align: right;">{{.ProductSize}}</td></tr>
                        <tr><td style="padding: 8px 0; color: #6b7280;">Transaction ID</td><td style="padding: 8px 0; text-align: right; font-family: monospace;">{{.TransactionID}}</td></tr>
                        <tr><td style="padding-top: 16px; border-top: 1px solid #e5e7eb; font-size: 18px; font-weight: bold;">Total Paid</td><td style="padding-top: 16px; border-top: 1px solid #e5e7eb; color: #16a34a; font-size: 18px; font-weight: bold; text-align: right;">{{.Total}}</td></tr>
                    </table>
                </td></tr>
            </table>
            <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f9fafb; border-radius: 12px; margin-bottom: 24px; border: 1px solid #e5e7eb;">
                <tr><td style="padding: 24px;">
                    <h3 style="margin: 0 0 12px 0; color: #1f2937; font-size: 16px; text-transform: uppercase;">Delivery Address</h3>
                    <p style="margin: 0; color: #6b7280; font-size: 14px; line-height: 1.6;">{{.Address}}</p>
                </td></tr>
            </table>
            <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #fef2f2; border-radius: 12px; border: 1px solid #fecaca;">
                <tr><td style="padding: 24px;">
                    <h3 style="margin: 0 0 12px 0; color: #eb0028; font-size: 16px;">What's Next?</h3>
                    <ul style="margin: 0; padding-left: 20px; color: #6b7280; font-size: 14px; line-height: 1.8;">
                        <li>Your order will be processed within 24-48 hours</li>
                        <li>You'll receive updates about your order status</li>
                        <li>For any queries, contact our support team</li>
                    </ul>
                </td></tr>
            </table>
        </td>
    </tr>
    <tr>
        <td style="background-color: #f9fafb; padding: 24px 40px; text-align: center; border-top: 1px solid #e5e7eb;">
            <p style="margin: 0 0 8px 0; color: #6b7280; font-size: 14px;">Thank you for supporting {{.StoreName}}!</p>
            <p style="margin: 0; color: #9ca3af; font-size: 12px;">This is an automated email. Please do not reply directly.</p>
        </td>
    </tr>
</table>
</td></tr>
</table>
</body>
</html>
`))
