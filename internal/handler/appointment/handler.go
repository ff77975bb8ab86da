package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medibook-api/internal/handler"
	"github.com/jwalitptl/medibook-api/internal/middleware"
	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/service/appointment"
	"github.com/jwalitptl/medibook-api/pkg/httputil"
)

type Handler struct {
	svc  *appointment.Service
	auth *middleware.AuthMiddleware
}

func NewHandler(svc *appointment.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments", h.auth.Authenticate())
	{
		appointments.POST("/book", h.BookAppointment)
		appointments.GET("/my-appointments", h.MyAppointments)
	}
}

type bookRequest struct {
	DoctorID        string `json:"doctorId"`
	AppointmentDate string `json:"appointmentDate"`
	TimeSlot        string `json:"timeSlot"`
}

func (h *Handler) BookAppointment(c *gin.Context) {
	var req bookRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	view, err := h.svc.Create(c.Request.Context(), model.CreateBookingInput{
		PatientID:       middleware.CurrentSession(c).ID,
		DoctorID:        req.DoctorID,
		AppointmentDate: req.AppointmentDate,
		TimeSlot:        req.TimeSlot,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, "Appointment created successfully!", view)
}

func (h *Handler) MyAppointments(c *gin.Context) {
	views, err := h.svc.ListForPatient(c.Request.Context(), middleware.CurrentSession(c).ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	message := "Appointments fetched successfully"
	if len(views) == 0 {
		message = "You have no appointments booked yet."
	}
	httputil.RespondOK(c, message, views)
}
