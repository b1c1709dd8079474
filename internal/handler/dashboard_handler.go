package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ptm/backend/internal/app"
)

type DashboardHandler struct {
	app *app.App
}

func NewDashboardHandler(application *app.App) *DashboardHandler {
	return &DashboardHandler{app: application}
}

func (h *DashboardHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stats": h.app.Dashboard()})
}
