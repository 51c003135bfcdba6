package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"saveit/internal/reminder"
	"saveit/internal/services"
)

// CronHandler exposes scheduled jobs.
type CronHandler struct {
	reminders services.ReminderServicer
}

// NewCronHandler creates a new CronHandler.
func NewCronHandler(reminders services.ReminderServicer) *CronHandler {
	return &CronHandler{reminders: reminders}
}

// DailyRemindersResponse summarizes a reminder run.
type DailyRemindersResponse struct {
	Message string                `json:"message"`
	Total   int                   `json:"total"`
	Sent    int                   `json:"sent"`
	Results []reminder.UserResult `json:"results,omitempty"`
}

// DailyReminders runs the reminder job.
// @Summary     Send daily reminders
// @Description Texts every opted-in user who has not logged today. Requires the cron secret as a bearer token.
// @Tags        cron
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} DailyRemindersResponse "Run summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /cron/daily-reminders [post]
func (h *CronHandler) DailyReminders(c *gin.Context) {
	result, err := h.reminders.Run(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	if result.Total == 0 {
		c.JSON(http.StatusOK, DailyRemindersResponse{Message: "No users with SMS reminders enabled"})
		return
	}
	c.JSON(http.StatusOK, DailyRemindersResponse{
		Message: "Daily reminders processed",
		Total:   result.Total,
		Sent:    result.Sent,
		Results: result.Results,
	})
}
