// Package notify delivers customer-facing messages (OTP codes, purchase
// receipts, referral credits) over SMS, WhatsApp, email or push.
package notify

import (
	"context"
	"sync"
	"time"

	"mealpedeal-api/logger"

	"go.uber.org/zap"
)

type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsapp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
	ChannelPush     Channel = "push"
)

type Message struct {
	Channel   Channel `json:"channel" bson:"channel"`
	Recipient string  `json:"recipient" bson:"recipient"`
	Subject   string  `json:"subject,omitempty" bson:"subject,omitempty"`
	Body      string  `json:"text" bson:"text"`
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to the application log instead of delivering them
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, msg Message) error {
	logger.Info("notification",
		zap.String("channel", string(msg.Channel)),
		zap.String("recipient", msg.Recipient),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// Async hands each message to Next on its own goroutine so callers never
// wait on delivery. The request context is detached; Timeout bounds each send.
type Async struct {
	Next    Notifier
	Timeout time.Duration

	wg sync.WaitGroup
}

func NewAsync(next Notifier, timeout time.Duration) *Async {
	return &Async{Next: next, Timeout: timeout}
}

func (a *Async) Send(ctx context.Context, msg Message) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		sendCtx := context.WithoutCancel(ctx)
		if a.Timeout > 0 {
			var cancel context.CancelFunc
			sendCtx, cancel = context.WithTimeout(sendCtx, a.Timeout)
			defer cancel()
		}
		if err := a.Next.Send(sendCtx, msg); err != nil {
			logger.Warn("notification delivery failed",
				zap.String("channel", string(msg.Channel)),
				zap.String("recipient", msg.Recipient),
				zap.Error(err),
			)
		}
	}()
	return nil
}

// Wait blocks until in-flight sends finish; used on shutdown
func (a *Async) Wait() {
	a.wg.Wait()
}
