package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"tour-booking-api/internal/core/apperr"
	"tour-booking-api/internal/domain"
	"tour-booking-api/internal/service"
	"tour-booking-api/internal/transport/http/ez"
	mdw "tour-booking-api/internal/transport/http/middleware"
	resp "tour-booking-api/internal/transport/http/response"
)

type BookingHandler struct {
	bookings *service.BookingService
	guards   Guards
	siteURL  string
}

func NewBookingHandler(b *service.BookingService, g Guards, siteURL string) *BookingHandler {
	return &BookingHandler{bookings: b, guards: g, siteURL: siteURL}
}

func (h *BookingHandler) Priority() int { return 50 }

func (h *BookingHandler) MountAPI(api *gin.RouterGroup) {
	l := h.guards.Log
	bookings := api.Group("/bookings")

	ez.Register(bookings, l, ez.Action[struct{}, resp.Resp]{
		Method: http.MethodGet, Path: "/checkout-session/:id", Binder: ez.BindNone, Use: []gin.HandlerFunc{h.guards.Protect},
		Handler: func(c *gin.Context, _ *struct{}) (resp.Resp, error) {
			sess, err := h.bookings.CheckoutSession(c.Request.Context(), mdw.CurrentUser(c), c.Param("id"), origin(c, h.siteURL))
			if err != nil {
				return resp.Resp{}, err
			}
			return resp.OK(gin.H{"session": sess}), nil
		},
	})

	ez.Register(bookings, l, ez.Action[struct{}, resp.Resp]{
		Method: http.MethodGet, Path: "/mine", Binder: ez.BindNone, Use: []gin.HandlerFunc{h.guards.Protect},
		Handler: func(c *gin.Context, _ *struct{}) (resp.Resp, error) {
			bs, tours, err := h.bookings.MyBookings(c.Request.Context(), mdw.CurrentUser(c).ID)
			if err != nil {
				return resp.Resp{}, err
			}
			return resp.List(len(bs), gin.H{"bookings": bs, "tours": tours}), nil
		},
	})

	// Stripe 回调：不鉴权，按签名校验原始 body
	ez.Register(bookings, l, ez.Action[struct{}, gin.H]{
		Method: http.MethodPost, Path: "/webhook-checkout", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			payload, err := io.ReadAll(c.Request.Body)
			if err != nil {
				return nil, apperr.Wrap(apperr.KindValidation, "Webhook error: unreadable body", err)
			}
			if err := h.bookings.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
				return nil, err
			}
			return gin.H{"received": true}, nil
		},
	})
}

// MountAdmin 管理端预订 CRUD
func (h *BookingHandler) MountAdmin(admin *gin.RouterGroup) {
	l := h.guards.Log
	bookings := admin.Group("/bookings")

	type listQ struct {
		Page
		User string `form:"user"`
		Tour string `form:"tour"`
	}
	ez.Register(bookings, l, ez.Action[listQ, resp.Resp]{
		Method: http.MethodGet, Path: "", Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *listQ) (resp.Resp, error) {
			off, lim := in.Window()
			bs, total, err := h.bookings.List(c.Request.Context(), domain.BookingQuery{UserID: in.User, TourID: in.Tour, Offset: off, Limit: lim})
			if err != nil {
				return resp.Resp{}, err
			}
			return resp.List(len(bs), gin.H{"bookings": bs, "total": total}), nil
		},
	})

	ez.Register(bookings, l, ez.Action[service.BookingInput, gin.H]{
		Method: http.MethodPost, Path: "", Binder: ez.BindJSON, Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *service.BookingInput) (gin.H, error) {
			b, err := h.bookings.Create(c.Request.Context(), *in)
			if err != nil {
				return nil, err
			}
			return gin.H{"booking": b}, nil
		},
	})

	ez.Register(bookings, l, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet, Path: "/:id", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			b, err := h.bookings.Get(c.Request.Context(), c.Param("id"))
			if err != nil {
				return nil, err
			}
			return gin.H{"booking": b}, nil
		},
	})

	ez.Register(bookings, l, ez.Action[service.BookingPatch, gin.H]{
		Method: http.MethodPatch, Path: "/:id", Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.BookingPatch) (gin.H, error) {
			b, err := h.bookings.Update(c.Request.Context(), c.Param("id"), *in)
			if err != nil {
				return nil, err
			}
			return gin.H{"booking": b}, nil
		},
	})

	ez.Register(bookings, l, ez.Action[struct{}, struct{}]{
		Method: http.MethodDelete, Path: "/:id", Binder: ez.BindNone, Status: http.StatusNoContent,
		Handler: func(c *gin.Context, _ *struct{}) (struct{}, error) {
			return struct{}{}, h.bookings.Delete(c.Request.Context(), c.Param("id"))
		},
	})
}
