package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ptm/backend/internal/project"
)

type ProjectHandler struct {
	projects *project.Store
}

func NewProjectHandler(projects *project.Store) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

func (h *ProjectHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"projects": h.projects.List()})
}

func (h *ProjectHandler) Get(c *gin.Context) {
	p, err := h.projects.Get(c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

func (h *ProjectHandler) Create(c *gin.Context) {
	var req project.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	created, err := h.projects.Create(req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": created})
}

func (h *ProjectHandler) Update(c *gin.Context) {
	var req project.UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	updated, err := h.projects.Update(c.Param("id"), req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": updated})
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projects.Delete(c.Param("id")); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProjectHandler) Stats(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.projects.Get(id); err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": h.projects.Stats(id)})
}
