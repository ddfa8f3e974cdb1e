package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/souenergy/cotacao-backend/internal/storage/local"
)

// ImageHandler serves uploaded product pictures from transient storage.
type ImageHandler struct {
	store  local.Store
	logger *zap.Logger
}

// NewImageHandler constructs the HTTP handler adapter.
func NewImageHandler(store local.Store, logger *zap.Logger) *ImageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageHandler{store: store, logger: logger}
}

// Serve streams a stored image back to the client. Unknown names and
// traversal attempts both come back as 404.
func (h *ImageHandler) Serve(c *gin.Context) {
	path, err := h.store.Path(c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "image not found"})
		return
	}

	c.File(path)
}
