package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"saveit/internal/models"
	"saveit/internal/services"
)

// SMSHandler serves reminder settings and ad hoc messages.
type SMSHandler struct {
	smsService services.SMSServicer
}

// NewSMSHandler creates a new SMSHandler.
func NewSMSHandler(smsService services.SMSServicer) *SMSHandler {
	return &SMSHandler{smsService: smsService}
}

// SubscribeRequest configures SMS reminders.
type SubscribeRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,phone" example:"+14155552671"`
	Enabled     *bool  `json:"enabled"`
}

// SubscribeResponse is returned after the settings are saved.
type SubscribeResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Data    models.UserProfile `json:"data"`
}

// SendRequest is an ad hoc text message.
type SendRequest struct {
	To      string `json:"to" binding:"required,phone"`
	Message string `json:"message" binding:"required,max=1600"`
}

// SendResponse carries the delivery id.
type SendResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
}

// Subscribe handles saving the user's phone number and reminder flag.
// @Summary     Configure SMS reminders
// @Description Save the phone number used for daily reminders. Reminders are enabled unless enabled is false.
// @Tags        sms
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SubscribeRequest true "Reminder settings"
// @Success     200 {object} SubscribeResponse "Settings saved"
// @Failure     400 {object} ErrorResponse "Invalid phone number"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /sms/subscribe [post]
func (h *SMSHandler) Subscribe(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	profile, err := h.smsService.Subscribe(c.Request.Context(), userID, req.PhoneNumber, req.Enabled)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, SubscribeResponse{
		Success: true,
		Message: "SMS reminders configured successfully",
		Data:    *profile,
	})
}

// GetSettings returns the user's reminder settings.
// @Summary     Get SMS settings
// @Tags        sms
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.UserProfile "Reminder settings"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No settings saved"
// @Router      /sms/settings [get]
func (h *SMSHandler) GetSettings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	profile, err := h.smsService.GetSettings(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Send handles sending a single text message.
// @Summary     Send an SMS
// @Tags        sms
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SendRequest true "Recipient and message"
// @Success     200 {object} SendResponse "Message accepted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     502 {object} ErrorResponse "Provider rejected the message"
// @Router      /sms/send [post]
func (h *SMSHandler) Send(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	id, err := h.smsService.SendMessage(c.Request.Context(), userID, req.To, req.Message)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, SendResponse{Success: true, MessageID: id})
}
