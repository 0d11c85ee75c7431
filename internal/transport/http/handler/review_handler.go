package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tour-booking-api/internal/domain"
	"tour-booking-api/internal/service"
	"tour-booking-api/internal/transport/http/ez"
	mdw "tour-booking-api/internal/transport/http/middleware"
	resp "tour-booking-api/internal/transport/http/response"
)

// ReviewHandler 评论接口全部需要登录
type ReviewHandler struct {
	reviews *service.ReviewService
	guards  Guards
}

func NewReviewHandler(r *service.ReviewService, g Guards) *ReviewHandler {
	return &ReviewHandler{reviews: r, guards: g}
}

func (h *ReviewHandler) Priority() int { return 40 }

type reviewQuery struct {
	Page
	Tour string `form:"tour"`
	User string `form:"user"`
}

func (h *ReviewHandler) MountAPI(api *gin.RouterGroup) {
	l := h.guards.Log
	reviews := api.Group("/reviews", h.guards.Protect)
	writers := []gin.HandlerFunc{h.guards.Restrict(domain.RoleUser, domain.RoleAdmin)}

	ez.Register(reviews, l, ez.Action[reviewQuery, resp.Resp]{
		Method: http.MethodGet, Path: "", Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *reviewQuery) (resp.Resp, error) {
			off, lim := in.Window()
			out, _, err := h.reviews.List(c.Request.Context(), domain.ReviewQuery{TourID: in.Tour, UserID: in.User, Offset: off, Limit: lim})
			if err != nil {
				return resp.Resp{}, err
			}
			return resp.List(len(out), gin.H{"reviews": out}), nil
		},
	})

	ez.Register(reviews, l, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet, Path: "/:id", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			r, err := h.reviews.Get(c.Request.Context(), c.Param("id"))
			if err != nil {
				return nil, err
			}
			return gin.H{"review": r}, nil
		},
	})

	ez.Register(reviews, l, ez.Action[service.ReviewPatch, gin.H]{
		Method: http.MethodPatch, Path: "/:id", Binder: ez.BindJSON, Use: writers,
		Handler: func(c *gin.Context, in *service.ReviewPatch) (gin.H, error) {
			r, err := h.reviews.Update(c.Request.Context(), mdw.CurrentUser(c), c.Param("id"), *in)
			if err != nil {
				return nil, err
			}
			return gin.H{"review": r}, nil
		},
	})

	ez.Register(reviews, l, ez.Action[struct{}, struct{}]{
		Method: http.MethodDelete, Path: "/:id", Binder: ez.BindNone, Status: http.StatusNoContent, Use: writers,
		Handler: func(c *gin.Context, _ *struct{}) (struct{}, error) {
			return struct{}{}, h.reviews.Delete(c.Request.Context(), mdw.CurrentUser(c), c.Param("id"))
		},
	})
}
