package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"tour-booking-api/internal/core/config"
)

var ErrBadSignature = errors.New("payment: webhook signature verification failed")

type CheckoutRequest struct {
	TourID        string
	TourName      string
	Summary       string
	ImageURL      string
	Price         float64 // 主币单位
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CompletedCheckout 支付完成后用于创建 booking
type CompletedCheckout struct {
	SessionID     string
	TourID        string
	CustomerEmail string
	Amount        float64
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// ParseCompletedCheckout 非 checkout.session.completed 事件返回 (nil, nil)
	ParseCompletedCheckout(payload []byte, signature string) (*CompletedCheckout, error)
}

type StripeGateway struct {
	api           *client.API
	webhookSecret string
	currency      string
}

func NewStripe(c config.Payment) (*StripeGateway, error) {
	if c.StripeSecretKey == "" {
		return nil, errors.New("payment: payment.stripeSecretKey is required")
	}
	api := &client.API{}
	api.Init(c.StripeSecretKey, nil)
	cur := c.Currency
	if cur == "" {
		cur = string(stripe.CurrencyUSD)
	}
	return &StripeGateway{api: api, webhookSecret: c.WebhookSecret, currency: cur}, nil
}

func toMinorUnits(v float64) int64 { return int64(math.Round(v * 100)) }

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(req.TourName + " Tour"),
	}
	if req.Summary != "" {
		product.Description = stripe.String(req.Summary)
	}
	if req.ImageURL != "" {
		product.Images = stripe.StringSlice([]string{req.ImageURL})
	}
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		CustomerEmail:      stripe.String(req.CustomerEmail),
		ClientReferenceID:  stripe.String(req.TourID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(g.currency),
				UnitAmount:  stripe.Int64(toMinorUnits(req.Price)),
				ProductData: product,
			},
		}},
	}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (g *StripeGateway) ParseCompletedCheckout(payload []byte, signature string) (*CompletedCheckout, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return decodeCompleted(ev)
}

func decodeCompleted(ev stripe.Event) (*CompletedCheckout, error) {
	if ev.Type != stripe.EventTypeCheckoutSessionCompleted {
		return nil, nil
	}
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("payment: decode checkout session: %w", err)
	}
	email := cs.CustomerEmail
	if email == "" && cs.CustomerDetails != nil {
		email = cs.CustomerDetails.Email
	}
	return &CompletedCheckout{
		SessionID:     cs.ID,
		TourID:        cs.ClientReferenceID,
		CustomerEmail: email,
		Amount:        float64(cs.AmountTotal) / 100,
	}, nil
}

// ErrNotConfigured 没有配置 Stripe key 时创建会话返回
var ErrNotConfigured = errors.New("payment: gateway not configured")

// Unconfigured 本地开发 / 管理端用；webhook 一律视为验签失败
type Unconfigured struct{}

func (Unconfigured) CreateCheckoutSession(context.Context, CheckoutRequest) (*CheckoutSession, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) ParseCompletedCheckout([]byte, string) (*CompletedCheckout, error) {
	return nil, ErrBadSignature
}

// FromConfig stripeSecretKey 为空时退回 Unconfigured
func FromConfig(c config.Payment, l *zap.Logger) Gateway {
	g, err := NewStripe(c)
	if err != nil {
		l.Warn("stripe disabled", zap.Error(err))
		return Unconfigured{}
	}
	if c.WebhookSecret == "" {
		l.Warn("payment.webhookSecret empty, checkout webhooks will be rejected")
	}
	return g
}
