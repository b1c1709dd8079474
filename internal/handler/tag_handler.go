package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ptm/backend/internal/tag"
)

type TagHandler struct {
	tags *tag.Store
}

func NewTagHandler(tags *tag.Store) *TagHandler {
	return &TagHandler{tags: tags}
}

func (h *TagHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tags": h.tags.List()})
}

func (h *TagHandler) Get(c *gin.Context) {
	t, err := h.tags.Get(c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tag": t})
}

func (h *TagHandler) Create(c *gin.Context) {
	var req tag.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	created, err := h.tags.Create(req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tag": created})
}

// Resolve returns the tag with the given name, creating it when missing.
func (h *TagHandler) Resolve(c *gin.Context) {
	var req tag.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	resolved, err := h.tags.GetOrCreate(req.Name, req.Color)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tag": resolved})
}

func (h *TagHandler) Update(c *gin.Context) {
	var req tag.UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	updated, err := h.tags.Update(c.Param("id"), req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tag": updated})
}

func (h *TagHandler) Delete(c *gin.Context) {
	if err := h.tags.Delete(c.Param("id")); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TagHandler) Count(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.tags.Get(id); err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": h.tags.TaskCount(id)})
}
