package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medibook-api/internal/handler"
	"github.com/jwalitptl/medibook-api/internal/middleware"
	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/service/admin"
	"github.com/jwalitptl/medibook-api/pkg/httputil"
)

type Handler struct {
	svc  *admin.Service
	auth *middleware.AuthMiddleware
}

func NewHandler(svc *admin.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	admins := r.Group("/admin", h.auth.Authenticate(), h.auth.RequireRoles(model.RoleAdmin))
	{
		admins.GET("/stats", h.GetStats)
		admins.GET("/users", h.ListUsers)
		admins.GET("/doctors", h.ListDoctors)
		admins.GET("/appointments", h.ListAppointments)
		admins.DELETE("/users/:id", h.DeleteUser)
		admins.DELETE("/doctors/:id", h.DeleteDoctor)
		admins.PUT("/appointments/:id/status", h.UpdateAppointmentStatus)
		admins.PUT("/doctors/:id/approval", h.SetDoctorApproval)
	}
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondOK(c, "Dashboard stats fetched successfully", stats)
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondOK(c, "Users fetched successfully", users)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.svc.ListDoctors(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondOK(c, "Doctors fetched successfully", doctors)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	appointments, err := h.svc.ListAppointments(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondOK(c, "Appointments fetched successfully", appointments)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.svc.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondOK(c, "User deleted successfully", nil)
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	if err := h.svc.DeleteDoctor(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondOK(c, "Doctor deleted successfully", nil)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateAppointmentStatus(c *gin.Context) {
	var req statusRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	view, err := h.svc.UpdateAppointmentStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondOK(c, "Appointment status updated successfully", view)
}

type approvalRequest struct {
	Status string `json:"status"`
}

func (h *Handler) SetDoctorApproval(c *gin.Context) {
	var req approvalRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	doctor, err := h.svc.SetDoctorApproval(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondOK(c, "Doctor approval updated successfully", doctor)
}
