package notify

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/chat_shop/services/order/internal/models"
)

type BankDetails struct {
	BankName      string
	AccountHolder string
	AccountNumber string
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func PaymentInstructions(o *models.Order, bank BankDetails) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order summary: %s\n", o.OrderNumber)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %s x%d = %s\n", it.ProductName, it.Quantity, money(it.Subtotal()))
	}
	fmt.Fprintf(&b, "Total amount: %s\n\n", money(o.TotalAmount))
	b.WriteString("Bank transfer details:\n")
	fmt.Fprintf(&b, "Bank: %s\n", bank.BankName)
	fmt.Fprintf(&b, "Account holder: %s\n", bank.AccountHolder)
	fmt.Fprintf(&b, "Account number: %s\n\n", bank.AccountNumber)
	b.WriteString("Please transfer the total amount and send a screenshot of the receipt to this chat.")
	return b.String()
}

func ProofReceived(o *models.Order) string {
	return fmt.Sprintf("Receipt received for order %s. We will notify you once the payment is verified.", o.OrderNumber)
}

func ProofRetry() string {
	return "We could not save your receipt. Please send the photo again."
}

func Verified(o *models.Order) string {
	return fmt.Sprintf("Payment verified! Your order %s has been confirmed and we are preparing it for delivery.", o.OrderNumber)
}

func Rejected(o *models.Order, reason string) string {
	return fmt.Sprintf("Your order %s was rejected.\nReason: %s", o.OrderNumber, reason)
}

func Shipped(o *models.Order) string {
	return fmt.Sprintf("Your order %s has been shipped.", o.OrderNumber)
}

func Delivered(o *models.Order) string {
	return fmt.Sprintf("Your order %s has been delivered. Thank you for shopping with us!", o.OrderNumber)
}

var statusLabels = map[models.Status]string{
	models.StatusPending:         "Pending",
	models.StatusAwaitingPayment: "Awaiting payment",
	models.StatusPaymentReceived: "Payment received, under review",
	models.StatusVerified:        "Verified",
	models.StatusShipped:         "Shipped",
	models.StatusDelivered:       "Delivered",
	models.StatusCancelled:       "Cancelled",
}

func StatusLabel(s models.Status) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// OrderSummary renders the buyer's view of one order.
func OrderSummary(o *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s\n", o.OrderNumber)
	fmt.Fprintf(&b, "Status: %s\n", StatusLabel(o.Status))
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %s x%d @ %s\n", it.ProductName, it.Quantity, money(it.UnitPrice))
	}
	fmt.Fprintf(&b, "Total: %s", money(o.TotalAmount))
	if o.Status == models.StatusCancelled && o.AdminNotes != "" {
		fmt.Fprintf(&b, "\nReason: %s", o.AdminNotes)
	}
	return b.String()
}
