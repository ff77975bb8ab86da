package booking

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medibook-api/internal/middleware"
	"github.com/jwalitptl/medibook-api/internal/service/payment"
	apperrors "github.com/jwalitptl/medibook-api/pkg/errors"
	"github.com/jwalitptl/medibook-api/pkg/httputil"
)

const signatureHeader = "X-Razorpay-Signature"

type Handler struct {
	svc  *payment.Service
	auth *middleware.AuthMiddleware
}

func NewHandler(svc *payment.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	{
		bookings.POST("/checkout-session/:doctorId", h.auth.Authenticate(), h.CreateCheckoutSession)
		// Signed by the payment provider instead of a session token.
		bookings.POST("/webhook", h.Webhook)
	}
}

func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	session, err := h.svc.CreateSession(c.Request.Context(), c.Param("doctorId"), middleware.CurrentSession(c).ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondOK(c, "Checkout session created", session)
}

func (h *Handler) Webhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		_ = c.Error(apperrors.BadRequest("Invalid webhook payload", err))
		return
	}

	if err := h.svc.HandleWebhook(c.Request.Context(), body, c.GetHeader(signatureHeader)); err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondOK(c, "Webhook processed", nil)
}
