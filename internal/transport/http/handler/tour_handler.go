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

type TourHandler struct {
	tours   *service.TourService
	reviews *service.ReviewService
	guards  Guards
}

func NewTourHandler(t *service.TourService, r *service.ReviewService, g Guards) *TourHandler {
	return &TourHandler{tours: t, reviews: r, guards: g}
}

func (h *TourHandler) Priority() int { return 30 }

// tourQuery ?difficulty=easy&price[gte]=300&sort=-price&page=2
type tourQuery struct {
	Page
	Difficulty string   `form:"difficulty"`
	MinPrice   *float64 `form:"price[gte]"`
	MaxPrice   *float64 `form:"price[lte]"`
	Sort       string   `form:"sort"`
}

func (h *TourHandler) MountAPI(api *gin.RouterGroup) {
	l := h.guards.Log
	tours := api.Group("/tours")
	staff := h.guards.Only(domain.RoleAdmin, domain.RoleLeadGuide)

	ez.Register(tours, l, ez.Action[tourQuery, resp.Resp]{
		Method: http.MethodGet, Path: "", Binder: ez.BindQuery, Use: []gin.HandlerFunc{h.guards.IsLoggedIn},
		Handler: func(c *gin.Context, in *tourQuery) (resp.Resp, error) {
			off, lim := in.Window()
			out, _, err := h.tours.List(c.Request.Context(), domain.TourQuery{
				Difficulty: domain.Difficulty(in.Difficulty),
				MinPrice:   in.MinPrice,
				MaxPrice:   in.MaxPrice,
				Sort:       in.Sort,
				Offset:     off,
				Limit:      lim,
			})
			if err != nil {
				return resp.Resp{}, err
			}
			return resp.List(len(out), gin.H{"tours": out}), nil
		},
	})

	ez.Register(tours, l, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet, Path: "/:id", Binder: ez.BindNone, Use: []gin.HandlerFunc{h.guards.IsLoggedIn},
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			t, err := h.tours.Get(c.Request.Context(), c.Param("id"))
			if err != nil {
				return nil, err
			}
			return gin.H{"tour": t}, nil
		},
	})

	ez.Register(tours, l, ez.Action[service.TourInput, gin.H]{
		Method: http.MethodPost, Path: "", Binder: ez.BindJSON, Status: http.StatusCreated, Use: staff,
		Handler: func(c *gin.Context, in *service.TourInput) (gin.H, error) {
			t, err := h.tours.Create(c.Request.Context(), *in)
			if err != nil {
				return nil, err
			}
			return gin.H{"tour": t}, nil
		},
	})

	ez.Register(tours, l, ez.Action[service.TourPatch, gin.H]{
		Method: http.MethodPatch, Path: "/:id", Binder: ez.BindJSON, Use: staff,
		Handler: func(c *gin.Context, in *service.TourPatch) (gin.H, error) {
			t, err := h.tours.Update(c.Request.Context(), c.Param("id"), *in)
			if err != nil {
				return nil, err
			}
			return gin.H{"tour": t}, nil
		},
	})

	ez.Register(tours, l, ez.Action[struct{}, struct{}]{
		Method: http.MethodDelete, Path: "/:id", Binder: ez.BindNone, Status: http.StatusNoContent, Use: staff,
		Handler: func(c *gin.Context, _ *struct{}) (struct{}, error) {
			return struct{}{}, h.tours.Delete(c.Request.Context(), c.Param("id"))
		},
	})

	// 嵌套评论：/tours/:id/reviews
	ez.Register(tours, l, ez.Action[Page, resp.Resp]{
		Method: http.MethodGet, Path: "/:id/reviews", Binder: ez.BindQuery, Use: []gin.HandlerFunc{h.guards.Protect},
		Handler: func(c *gin.Context, in *Page) (resp.Resp, error) {
			off, lim := in.Window()
			out, _, err := h.reviews.List(c.Request.Context(), domain.ReviewQuery{TourID: c.Param("id"), Offset: off, Limit: lim})
			if err != nil {
				return resp.Resp{}, err
			}
			return resp.List(len(out), gin.H{"reviews": out}), nil
		},
	})

	ez.Register(tours, l, ez.Action[service.ReviewInput, gin.H]{
		Method: http.MethodPost, Path: "/:id/reviews", Binder: ez.BindJSON, Status: http.StatusCreated,
		Use: h.guards.Only(domain.RoleUser),
		Handler: func(c *gin.Context, in *service.ReviewInput) (gin.H, error) {
			r, err := h.reviews.Create(c.Request.Context(), mdw.CurrentUser(c), c.Param("id"), *in)
			if err != nil {
				return nil, err
			}
			return gin.H{"review": r}, nil
		},
	})
}
