package review

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medibook-api/internal/handler"
	"github.com/jwalitptl/medibook-api/internal/middleware"
	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/service/review"
	"github.com/jwalitptl/medibook-api/pkg/httputil"
)

type Handler struct {
	svc  *review.Service
	auth *middleware.AuthMiddleware
}

func NewHandler(svc *review.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	reviews := r.Group("/doctors/:id/reviews")
	reviews.GET("", h.GetReviews)
	reviews.POST("", h.auth.Authenticate(), h.auth.RequireRoles(model.RolePatient), h.AddReview)
}

type addRequest struct {
	Rating     *int   `json:"rating"`
	ReviewText string `json:"reviewText"`
}

func (h *Handler) AddReview(c *gin.Context) {
	var req addRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	rv, err := h.svc.Add(c.Request.Context(), review.AddInput{
		DoctorID:   c.Param("id"),
		PatientID:  middleware.CurrentSession(c).ID,
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, "Review added successfully", rv)
}

func (h *Handler) GetReviews(c *gin.Context) {
	summary, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondOK(c, "Reviews fetched successfully", summary)
}
