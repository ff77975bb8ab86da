package auth

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medibook-api/internal/handler"
	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/service/auth"
	"github.com/jwalitptl/medibook-api/internal/storage"
	apperrors "github.com/jwalitptl/medibook-api/pkg/errors"
	"github.com/jwalitptl/medibook-api/pkg/httputil"
)

type Handler struct {
	svc    *auth.Service
	photos storage.PhotoStore
}

func NewHandler(svc *auth.Service, photos storage.PhotoStore) *Handler {
	return &Handler{svc: svc, photos: photos}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}
}

type registerRequest struct {
	Email          string          `json:"email" form:"email" binding:"omitempty,email"`
	Password       string          `json:"password" form:"password"`
	Name           string          `json:"name" form:"name"`
	Role           string          `json:"role" form:"role" binding:"role"`
	Phone          string          `json:"phone" form:"phone"`
	Gender         string          `json:"gender" form:"gender" binding:"gender"`
	BloodGroup     string          `json:"bloodGroup" form:"bloodGroup" binding:"bloodgroup"`
	Specialization string          `json:"specialization" form:"specialization"`
	TicketPrice    *float64        `json:"ticketPrice" form:"ticketPrice" binding:"omitempty,min=0"`
	Qualifications json.RawMessage `json:"qualifications" form:"-"`
	Experiences    json.RawMessage `json:"experiences" form:"-"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := handler.Bind(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	file, err := handler.FormFile(c, handler.PhotoField)
	if err != nil {
		_ = c.Error(err)
		return
	}

	in := model.RegisterInput{
		Role:           model.Role(req.Role),
		Email:          req.Email,
		Password:       req.Password,
		Name:           req.Name,
		Phone:          req.Phone,
		Gender:         model.Gender(req.Gender),
		BloodGroup:     model.BloodGroup(req.BloodGroup),
		Specialization: req.Specialization,
		TicketPrice:    req.TicketPrice,
	}
	if q, ok := model.ParseQualifications(handler.RawList(c, req.Qualifications, "qualifications")); ok {
		in.Qualifications = q
	}
	if e, ok := model.ParseExperiences(handler.RawList(c, req.Experiences, "experiences")); ok {
		in.Experiences = e
	}

	if file != nil {
		url, err := h.photos.Save(c.Request.Context(), file)
		if err != nil {
			if storage.IsRejected(err) {
				_ = c.Error(apperrors.BadRequest("Invalid photo", err))
				return
			}
			_ = c.Error(apperrors.Internal(err))
			return
		}
		in.Photo = url
	}

	user, err := h.svc.Register(c.Request.Context(), in)
	if err != nil {
		if file != nil && in.Photo != "" {
			if rmErr := h.photos.Remove(c.Request.Context(), in.Photo); rmErr != nil {
				log.Warn().Err(rmErr).Str("photo", in.Photo).Msg("failed to remove orphaned photo")
			}
		}
		_ = c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, "User successfully created", user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	httputil.Response
	Token string     `json:"token"`
	Role  model.Role `json:"role"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.svc.Login(c.Request.Context(), model.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Response: httputil.Response{
			Success: true,
			Message: "Successfully logged in",
			Data:    result.Data,
		},
		Token: result.Token,
		Role:  result.Role,
	})
}
