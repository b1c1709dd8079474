package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ptm/backend/internal/pomodoro"
	"ptm/backend/internal/service"
)

type PomodoroHandler struct {
	pomodoroService *service.PomodoroService
}

type startRequest struct {
	TaskID *string `json:"taskId"`
}

func NewPomodoroHandler(pomodoroService *service.PomodoroService) *PomodoroHandler {
	return &PomodoroHandler{pomodoroService: pomodoroService}
}

func (h *PomodoroHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.pomodoroService.GetState()})
}

// Start accepts an optional body; an empty body starts without a task.
func (h *PomodoroHandler) Start(c *gin.Context) {
	var req startRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeInvalidJSON(c)
			return
		}
	}

	state, apiErr := h.pomodoroService.Start(req.TaskID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *PomodoroHandler) Pause(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.pomodoroService.Pause()})
}

func (h *PomodoroHandler) Resume(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.pomodoroService.Resume()})
}

func (h *PomodoroHandler) Reset(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.pomodoroService.Reset()})
}

func (h *PomodoroHandler) Skip(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.pomodoroService.Skip()})
}

func (h *PomodoroHandler) UpdateSettings(c *gin.Context) {
	var req pomodoro.SettingsPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	state, apiErr := h.pomodoroService.UpdateSettings(req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}
