package trust

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/everleepham/bank-antiscam-app/pkg/common"
	"github.com/everleepham/bank-antiscam-app/pkg/validation"
)

// EvaluateRequest triggers a rule evaluation for one account, optionally
// scoped to a specific transaction.
type EvaluateRequest struct {
	AccountID     string `json:"account_id" binding:"required"`
	TransactionID string `json:"transaction_id"`
}

// Handler exposes the rule engine over HTTP
type Handler struct {
	engine *Engine
}

// NewHandler creates a trust handler
func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// Evaluate handles POST /trust/evaluate
func (h *Handler) Evaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingErrorResponse(c, err)
		return
	}

	result, err := h.engine.Evaluate(c.Request.Context(), req.AccountID, req.TransactionID)
	if err != nil {
		common.HandleServiceError(c, err, "failed to evaluate trust score")
		return
	}
	common.SuccessResponse(c, result)
}

// Score handles GET /trust/:id/score
func (h *Handler) Score(c *gin.Context) {
	accountID := c.Param("id")
	if accountID == "" {
		common.AppErrorResponse(c, common.NewValidation("account id is required"))
		return
	}

	score, err := h.engine.CurrentScore(c.Request.Context(), accountID)
	if err != nil {
		common.HandleServiceError(c, err, "failed to resolve trust score")
		return
	}
	common.SuccessResponse(c, gin.H{"account_id": accountID, "score": score})
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
