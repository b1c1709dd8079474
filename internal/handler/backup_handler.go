package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "ptm/backend/internal/errors"
	"ptm/backend/internal/service"
)

const maxImportBytes = 32 << 20

type BackupHandler struct {
	backupService *service.BackupService
}

func NewBackupHandler(backupService *service.BackupService) *BackupHandler {
	return &BackupHandler{backupService: backupService}
}

func (h *BackupHandler) Export(c *gin.Context) {
	data, apiErr := h.backupService.Export()
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, data)
}

// Import reads the export document from the body. ?strategy= is overwrite or
// merge; ?strict=true also rejects warnings.
func (h *BackupHandler) Import(c *gin.Context) {
	strict := false
	if raw := c.Query("strict"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(c, apperrors.BadRequest("invalid_strict", "strict must be a boolean"))
			return
		}
		strict = parsed
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		writeInvalidJSON(c)
		return
	}

	result, apiErr := h.backupService.Import(body, c.Query("strategy"), strict)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": result})
}

func (h *BackupHandler) Usage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"usage": h.backupService.Usage()})
}
