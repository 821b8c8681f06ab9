// Package notify sends operational SMS alerts. Delivery is best effort:
// failures are logged and never surfaced to the customer path.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

// Notifier delivers short human-readable alerts. NewOrder and OrderCancelled
// go to the store owner; OrderStatus goes to the customer's phone.
type Notifier interface {
	NewOrder(ctx context.Context, orderID int64, customerName string, total float64)
	OrderCancelled(ctx context.Context, orderID int64, fee float64)
	OrderStatus(ctx context.Context, orderID int64, customerPhone, message string)
}

// TwilioNotifier sends SMS to the store owner via the Twilio REST API.
type TwilioNotifier struct {
	client *twilio.RestClient
	from   string
	to     string
	logger *slog.Logger
}

func NewTwilioNotifier(accountSID, authToken, from, to string, logger *slog.Logger) *TwilioNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioNotifier{client: client, from: from, to: to, logger: logger}
}

func (n *TwilioNotifier) NewOrder(ctx context.Context, orderID int64, customerName string, total float64) {
	n.send(fmt.Sprintf("New order #%d from %s, total $%.2f", orderID, customerName, total))
}

func (n *TwilioNotifier) OrderCancelled(ctx context.Context, orderID int64, fee float64) {
	n.send(fmt.Sprintf("Order #%d cancelled, fee $%.2f retained", orderID, fee))
}

func (n *TwilioNotifier) OrderStatus(ctx context.Context, orderID int64, customerPhone, message string) {
	if customerPhone == "" {
		return
	}
	n.sendTo(customerPhone, fmt.Sprintf("Order #%d: %s", orderID, message))
}

func (n *TwilioNotifier) send(body string) {
	n.sendTo(n.to, body)
}

func (n *TwilioNotifier) sendTo(to, body string) {
	params := &api.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(n.from)
	params.SetBody(body)

	if _, err := n.client.Api.CreateMessage(params); err != nil {
		n.logger.Warn("sms notification failed", "error", err)
		return
	}
	n.logger.Debug("sms notification sent")
}

// NopNotifier is used when Twilio credentials are not configured.
type NopNotifier struct{}

func (NopNotifier) NewOrder(context.Context, int64, string, float64) {}

func (NopNotifier) OrderCancelled(context.Context, int64, float64) {}

func (NopNotifier) OrderStatus(context.Context, int64, string, string) {}
