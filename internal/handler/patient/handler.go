package patient

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medibook-api/internal/handler"
	"github.com/jwalitptl/medibook-api/internal/middleware"
	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/service/patient"
	"github.com/jwalitptl/medibook-api/pkg/httputil"
)

type Handler struct {
	svc  *patient.Service
	auth *middleware.AuthMiddleware
}

func NewHandler(svc *patient.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	users.Use(h.auth.Authenticate(), h.auth.RequireRoles(model.RolePatient))
	{
		users.GET("/profile/me", h.GetProfile)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
	}
}

func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.svc.Profile(c.Request.Context(), middleware.CurrentSession(c).ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondOK(c, "Profile info is getting", profile)
}

func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.svc.Get(c.Request.Context(), middleware.CurrentSession(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondOK(c, "User found", user)
}

// Fields outside the whitelist are dropped by binding. The photo only
// changes through an uploaded file.
type updateRequest struct {
	Name       *string `json:"name" form:"name"`
	Phone      *string `json:"phone" form:"phone"`
	Gender     *string `json:"gender" form:"gender" binding:"omitempty,gender"`
	BloodGroup *string `json:"bloodGroup" form:"bloodGroup" binding:"omitempty,bloodgroup"`
}

func (r updateRequest) toModel() model.PatientUpdate {
	u := model.PatientUpdate{
		Name:  r.Name,
		Phone: r.Phone,
	}
	if r.Gender != nil {
		g := model.Gender(*r.Gender)
		u.Gender = &g
	}
	if r.BloodGroup != nil {
		b := model.BloodGroup(*r.BloodGroup)
		u.BloodGroup = &b
	}
	return u
}

func (h *Handler) UpdateUser(c *gin.Context) {
	var req updateRequest
	if err := handler.Bind(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	file, err := handler.FormFile(c, handler.PhotoField)
	if err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.svc.Update(c.Request.Context(), middleware.CurrentSession(c), c.Param("id"), req.toModel(), file)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondOK(c, "Successfully updated", user)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentSession(c), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondOK(c, "Account deleted successfully", nil)
}
