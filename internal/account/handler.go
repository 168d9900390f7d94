package account

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/everleepham/bank-antiscam-app/pkg/common"
	"github.com/everleepham/bank-antiscam-app/pkg/validation"
)

// Handler handles HTTP requests for accounts and auth
type Handler struct {
	service *Service
}

// NewHandler creates a new account handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register creates an account
// POST /api/v1/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingErrorResponse(c, err)
		return
	}

	acct, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		common.HandleServiceError(c, err, "failed to register account")
		return
	}

	common.CreatedResponse(c, acct)
}

// Login authenticates an account and records its device binding
// POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingErrorResponse(c, err)
		return
	}

	result, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		common.HandleServiceError(c, err, "failed to log in")
		return
	}

	common.SuccessResponse(c, result)
}

// GetScore returns the account's current trust score and tier
// GET /api/v1/accounts/:id/score
func (h *Handler) GetScore(c *gin.Context) {
	accountID := c.Param("id")

	result, err := h.service.GetScore(c.Request.Context(), accountID)
	if err != nil {
		common.HandleServiceError(c, err, "failed to resolve score")
		return
	}

	common.SuccessResponse(c, result)
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
