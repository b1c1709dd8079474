package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "ptm/backend/internal/errors"
	"ptm/backend/internal/task"
)

type TaskHandler struct {
	tasks *task.Store
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type subTaskRequest struct {
	Title string `json:"title"`
}

func NewTaskHandler(tasks *task.Store) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// List applies ?filter= and ?q=. Without q the stored search query is used.
func (h *TaskHandler) List(c *gin.Context) {
	filter := task.Filter(c.DefaultQuery("filter", string(task.FilterAll)))
	if !task.IsValidFilter(filter) {
		writeError(c, apperrors.BadRequest("invalid_filter", "unknown filter "+string(filter)))
		return
	}

	query, ok := c.GetQuery("q")
	if !ok {
		query = h.tasks.SearchQuery()
	}
	c.JSON(http.StatusOK, gin.H{"tasks": h.tasks.FilteredBy(filter, query)})
}

func (h *TaskHandler) Get(c *gin.Context) {
	t, err := h.tasks.Get(c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": t})
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req task.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	created, err := h.tasks.Create(req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": created})
}

func (h *TaskHandler) Update(c *gin.Context) {
	var req task.UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	updated, err := h.tasks.Update(c.Param("id"), req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": updated})
}

func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.tasks.Delete(c.Param("id")); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TaskHandler) Toggle(c *gin.Context) {
	updated, err := h.tasks.ToggleCompletion(c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": updated})
}

func (h *TaskHandler) Reorder(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	h.tasks.Reorder(req.IDs)
	c.JSON(http.StatusOK, gin.H{"tasks": h.tasks.List()})
}

func (h *TaskHandler) GetSearch(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"query": h.tasks.SearchQuery()})
}

func (h *TaskHandler) SetSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	h.tasks.SetSearchQuery(req.Query)
	c.JSON(http.StatusOK, gin.H{"query": h.tasks.SearchQuery()})
}

func (h *TaskHandler) AddSubTask(c *gin.Context) {
	var req subTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	created, err := h.tasks.AddSubTask(c.Param("id"), req.Title)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subTask": created})
}

func (h *TaskHandler) UpdateSubTask(c *gin.Context) {
	var req task.SubTaskUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	updated, err := h.tasks.UpdateSubTask(c.Param("id"), c.Param("subTaskId"), req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subTask": updated})
}

func (h *TaskHandler) ToggleSubTask(c *gin.Context) {
	updated, err := h.tasks.ToggleSubTaskCompletion(c.Param("id"), c.Param("subTaskId"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subTask": updated})
}

func (h *TaskHandler) DeleteSubTask(c *gin.Context) {
	if err := h.tasks.DeleteSubTask(c.Param("id"), c.Param("subTaskId")); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
