package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/domain/models"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/middleware"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/tenantgate"
)

// The resource handlers below never touch the database directly: every read
// and write goes through the gate handle derived from the authenticated
// identity, so tenant scoping is enforced regardless of what the request
// claims.

func (s *Server) handleListAppointments(c *gin.Context) {
	identity, _ := middleware.IdentityFrom(c)
	handle, err := s.gateFor(identity)
	if err != nil {
		s.internalError(c, "resolve data gate", err)
		return
	}

	filter := tenantgate.Filter{}
	if staffID := c.Query("staffId"); staffID != "" {
		filter["staff_id"] = staffID
	}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}

	appointments, err := handle.Appointments().FindMany(c.Request.Context(), filter)
	if err != nil {
		s.internalError(c, "list appointments", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "appointments": appointments})
}

type createAppointmentRequest struct {
	TenantID  string    `json:"tenantId"`
	ClientID  string    `json:"clientId" binding:"required"`
	ServiceID string    `json:"serviceId" binding:"required"`
	StaffID   string    `json:"staffId" binding:"required"`
	StartsAt  time.Time `json:"startsAt" binding:"required"`
	EndsAt    time.Time `json:"endsAt" binding:"required"`
}

func (s *Server) handleCreateAppointment(c *gin.Context) {
	var req createAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	identity, _ := middleware.IdentityFrom(c)
	handle, err := s.gateFor(identity)
	if err != nil {
		s.internalError(c, "resolve data gate", err)
		return
	}

	appointment := &models.Appointment{
		ID: uuid.NewString(),
		// The gate overwrites this with the identity's tenant; a forged body
		// value changes nothing.
		TenantID:  req.TenantID,
		ClientID:  req.ClientID,
		ServiceID: req.ServiceID,
		StaffID:   req.StaffID,
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
		Status:    "pending",
	}
	if err := handle.Appointments().Create(c.Request.Context(), appointment); err != nil {
		s.internalError(c, "create appointment", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "appointment": appointment})
}

func (s *Server) handleListClients(c *gin.Context) {
	identity, _ := middleware.IdentityFrom(c)
	handle, err := s.gateFor(identity)
	if err != nil {
		s.internalError(c, "resolve data gate", err)
		return
	}

	clients, err := handle.Clients().FindMany(c.Request.Context(), nil)
	if err != nil {
		s.internalError(c, "list clients", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "clients": clients})
}

type createClientRequest struct {
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName"`
	Notes     string `json:"notes"`
}

func (s *Server) handleCreateClient(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	identity, _ := middleware.IdentityFrom(c)
	handle, err := s.gateFor(identity)
	if err != nil {
		s.internalError(c, "resolve data gate", err)
		return
	}

	client := &models.Client{
		ID:        uuid.NewString(),
		Email:     req.Email,
		Phone:     req.Phone,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Notes:     req.Notes,
	}
	if err := handle.Clients().Create(c.Request.Context(), client); err != nil {
		s.internalError(c, "create client", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "client": client})
}
