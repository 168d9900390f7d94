package transaction

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/everleepham/bank-antiscam-app/pkg/common"
	"github.com/everleepham/bank-antiscam-app/pkg/middleware"
	"github.com/everleepham/bank-antiscam-app/pkg/validation"
)

// Handler exposes transfer operations over HTTP
type Handler struct {
	service *Service
}

// NewHandler creates a transaction handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Transfer handles POST /transactions
func (h *Handler) Transfer(c *gin.Context) {
	senderID, err := middleware.GetAccountID(c)
	if err != nil {
		common.HandleServiceError(c, err, "authentication required")
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingErrorResponse(c, err)
		return
	}

	resp, err := h.service.Transfer(c.Request.Context(), senderID, &req)
	if err != nil {
		common.HandleServiceError(c, err, "failed to process transfer")
		return
	}
	common.CreatedResponse(c, resp)
}

// Verify handles POST /transactions/:id/verify
func (h *Handler) Verify(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		common.AppErrorResponse(c, common.NewValidation("transaction id is required"))
		return
	}

	resp, err := h.service.Verify(c.Request.Context(), id)
	if err != nil {
		common.HandleServiceError(c, err, "failed to verify transaction")
		return
	}
	common.SuccessResponse(c, resp)
}

// List handles GET /transactions
func (h *Handler) List(c *gin.Context) {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		common.HandleServiceError(c, err, "authentication required")
		return
	}

	txns, err := h.service.ListBySender(c.Request.Context(), accountID)
	if err != nil {
		common.HandleServiceError(c, err, "failed to list transactions")
		return
	}
	common.SuccessResponse(c, txns)
}

// ListSuspicious handles GET /transactions/suspicious
func (h *Handler) ListSuspicious(c *gin.Context) {
	txns, err := h.service.ListSuspicious(c.Request.Context())
	if err != nil {
		common.HandleServiceError(c, err, "failed to list suspicious transactions")
		return
	}
	common.SuccessResponse(c, txns)
}

// bindingErrorResponse renders request binding failures as field-level errors
func bindingErrorResponse(c *gin.Context, err error) {
	if verrs, ok := err.(validator.ValidationErrors); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": common.CodeValidation, "fields": validation.NewValidationError(verrs).Errors},
		})
		return
	}
	common.AppErrorResponse(c, common.NewValidation("invalid request body"))
}
