package doctor

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medibook-api/internal/handler"
	"github.com/jwalitptl/medibook-api/internal/middleware"
	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/service/doctor"
	"github.com/jwalitptl/medibook-api/pkg/httputil"
)

type Handler struct {
	svc  *doctor.Service
	auth *middleware.AuthMiddleware
}

func NewHandler(svc *doctor.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors")
	doctors.GET("", h.ListDoctors)
	doctors.GET("/:id", h.GetDoctor)

	self := doctors.Group("", h.auth.Authenticate(), h.auth.RequireRoles(model.RoleDoctor))
	{
		self.GET("/profile/me", h.GetProfile)
		self.GET("/appointments", h.GetAppointments)
		self.PUT("/:id", h.UpdateDoctor)
		self.DELETE("/:id", h.DeleteDoctor)
	}
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.svc.List(c.Request.Context(), c.Query("query"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondOK(c, "Doctors found successfully", doctors)
}

func (h *Handler) GetDoctor(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondOK(c, "Doctor found successfully", doc)
}

func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.svc.Profile(c.Request.Context(), middleware.CurrentSession(c).ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondOK(c, "Profile info is getting", profile)
}

func (h *Handler) GetAppointments(c *gin.Context) {
	appointments, err := h.svc.Appointments(c.Request.Context(), middleware.CurrentSession(c).ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondOK(c, "Doctor appointments fetched successfully", appointments)
}

// Fields outside the whitelist are dropped by binding. The list fields
// are parsed separately so malformed entries can be filtered out. The
// photo only changes through an uploaded file.
type updateRequest struct {
	Name           *string         `json:"name" form:"name"`
	Phone          *string         `json:"phone" form:"phone"`
	Specialization *string         `json:"specialization" form:"specialization"`
	TicketPrice    *float64        `json:"ticketPrice" form:"ticketPrice"`
	Bio            *string         `json:"bio" form:"bio"`
	About          *string         `json:"about" form:"about"`
	Qualifications json.RawMessage `json:"qualifications" form:"-"`
	Experiences    json.RawMessage `json:"experiences" form:"-"`
	TimeSlots      json.RawMessage `json:"timeSlots" form:"-"`
}

func (h *Handler) toModel(c *gin.Context, r updateRequest) model.DoctorUpdate {
	u := model.DoctorUpdate{
		Name:           r.Name,
		Phone:          r.Phone,
		Specialization: r.Specialization,
		TicketPrice:    r.TicketPrice,
		Bio:            r.Bio,
		About:          r.About,
	}
	if q, ok := model.ParseQualifications(handler.RawList(c, r.Qualifications, "qualifications")); ok {
		u.Qualifications = &q
	}
	if e, ok := model.ParseExperiences(handler.RawList(c, r.Experiences, "experiences")); ok {
		u.Experiences = &e
	}
	if t, ok := model.ParseTimeSlots(handler.RawList(c, r.TimeSlots, "timeSlots")); ok {
		u.TimeSlots = &t
	}
	return u
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
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

	doc, err := h.svc.Update(c.Request.Context(), middleware.CurrentSession(c), c.Param("id"), h.toModel(c, req), file)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondOK(c, "Doctor details updated successfully", doc)
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentSession(c), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondOK(c, "Account deleted successfully", nil)
}
