package testutil

import (
	"context"
	"sync"
	"time"

	"tour-booking-api/internal/core/mailer"
	"tour-booking-api/internal/core/payment"
)

// Mailer 记录所有发送；Err 非 nil 时每次发送都失败
type Mailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	Err  error
}

func (m *Mailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *Mailer) Sent() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}

func (m *Mailer) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

const ValidSignature = "t=1,v1=valid"

// Gateway 只有 ValidSignature 能通过验签
type Gateway struct {
	mu        sync.Mutex
	Requests  []payment.CheckoutRequest
	Completed *payment.CompletedCheckout
	Err       error
}

func (g *Gateway) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	g.Requests = append(g.Requests, req)
	return &payment.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1"}, nil
}

func (g *Gateway) ParseCompletedCheckout(_ []byte, signature string) (*payment.CompletedCheckout, error) {
	if signature != ValidSignature {
		return nil, payment.ErrBadSignature
	}
	return g.Completed, nil
}

// Clock 手动推进的时钟
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

func NewClock(start time.Time) *Clock { return &Clock{t: start} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
