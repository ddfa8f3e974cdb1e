package handlers

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/souenergy/cotacao-backend/internal/domain/models"
	"github.com/souenergy/cotacao-backend/internal/repository/mongodb"
	"github.com/souenergy/cotacao-backend/internal/service/intake"
)

// pictureField is the multipart field carrying the optional product image.
const pictureField = "productPicture"

// QuotationHandler handles quotation intake and the authenticated admin
// read endpoints.
type QuotationHandler struct {
	svc    *intake.Service
	repo   mongodb.Repository
	logger *zap.Logger
}

// NewQuotationHandler constructs the HTTP handler adapter.
func NewQuotationHandler(svc *intake.Service, repo mongodb.Repository, logger *zap.Logger) *QuotationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuotationHandler{svc: svc, repo: repo, logger: logger}
}

// Submit receives a multipart quotation form with an optional single
// product picture and runs it through the intake pipeline.
func (h *QuotationHandler) Submit(c *gin.Context) {
	var form models.QuotationForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "malformed form submission"})
		return
	}

	file, err := c.FormFile(pictureField)
	if err != nil {
		// Absent file is a valid submission; the picture is optional.
		// Anything other than absence means a broken file part.
		if !errors.Is(err, http.ErrMissingFile) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid product picture upload"})
			return
		}
		file = nil
	}

	id, err := h.svc.Submit(c.Request.Context(), form, file)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			h.logger.Warn("rejected quotation submission", zap.String("field", verr.Field))
			c.JSON(http.StatusBadRequest, gin.H{"message": "all required form fields must be filled in"})
			return
		}
		h.logger.Error("failed to process quotation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error while processing the quotation"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "quotation submitted successfully", "id": id})
}

// List returns every quotation, newest first.
func (h *QuotationHandler) List(c *gin.Context) {
	quotations, err := h.repo.ListAll(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list quotations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch quotations"})
		return
	}

	sort.Slice(quotations, func(a, b int) bool {
		return quotations[a].CreatedAt.After(quotations[b].CreatedAt)
	})
	if quotations == nil {
		quotations = []models.Quotation{}
	}

	c.JSON(http.StatusOK, quotations)
}

// GetByID returns a single quotation.
func (h *QuotationHandler) GetByID(c *gin.Context) {
	quotation, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "quotation not found"})
			return
		}
		h.logger.Error("failed to fetch quotation", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch quotation"})
		return
	}

	c.JSON(http.StatusOK, quotation)
}
