package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	activationdomain "github.com/smallbiznis/scraprates/internal/activation/domain"
	auditdomain "github.com/smallbiznis/scraprates/internal/audit/domain"
	"github.com/smallbiznis/scraprates/internal/audit/masking"
	"github.com/smallbiznis/scraprates/internal/observability/logger"
	"github.com/smallbiznis/scraprates/pkg/db/pagination"
	"go.uber.org/zap"
)

const (
	codeInvalidRequest  = "invalid_request"
	codeCodeNotFound    = "code_not_found"
	codeCodeAlreadyUsed = "code_already_used"
	codeRateLimited     = "rate_limited"
	codeServerError     = "server_error"
)

const (
	msgActivated       = "Subscription activate ho gayi! - سبسکرپشن فعال ہو گئی!"
	msgFieldsRequired  = "All fields required"
	msgCodeNotFound    = "Ghalat code - یہ کوڈ غلط ہے"
	msgCodeAlreadyUsed = "Yeh code pehle istemal ho chuka hai - یہ کوڈ استعمال ہو چکا ہے"
	msgRateLimited     = "Bohat zyada koshishen. Thori der baad dobara try karein."
	msgServerError     = "Server error"
)

type activateRequest struct {
	Code          string `json:"code"`
	PhoneNumber   string `json:"phoneNumber"`
	TransactionID string `json:"transactionId"`
}

// activateResponse keeps the contract the mobile client already parses,
// outside the usual data/error envelope.
type activateResponse struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message"`
	Code      string     `json:"code,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type generateCodesRequest struct {
	Count int `json:"count"`
}

func (s *Server) Activate(c *gin.Context) {
	var req activateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, activateResponse{Message: msgFieldsRequired, Code: codeInvalidRequest})
		return
	}

	ctx := c.Request.Context()
	result, err := s.activationSvc.Consume(ctx, activationdomain.ConsumeRequest{
		Code:          req.Code,
		PhoneNumber:   req.PhoneNumber,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		status, resp := activationFailure(err)
		if status == http.StatusInternalServerError {
			logger.FromContext(ctx).Error("activation failed", zap.Error(err))
		}
		code := strings.ToUpper(strings.TrimSpace(req.Code))
		s.auditAs(c, auditdomain.ActorTypeSubscriber, masking.MaskPhone(req.PhoneNumber), auditdomain.ActionCodeConsumeFail, "activation_code", code, map[string]any{
			"reason": resp.Code,
		})
		c.JSON(status, resp)
		return
	}

	s.auditAs(c, auditdomain.ActorTypeSubscriber, masking.MaskPhone(req.PhoneNumber), auditdomain.ActionCodeConsume, "activation_code", result.Code, map[string]any{
		"transaction_id": masking.MaskSecret(req.TransactionID),
		"expires_at":     result.ExpiresAt,
	})

	expiresAt := result.ExpiresAt
	c.JSON(http.StatusOK, activateResponse{
		Success:   true,
		Message:   msgActivated,
		ExpiresAt: &expiresAt,
	})
}

func activationFailure(err error) (int, activateResponse) {
	switch {
	case errors.Is(err, activationdomain.ErrCodeNotFound):
		return http.StatusBadRequest, activateResponse{Message: msgCodeNotFound, Code: codeCodeNotFound}
	case errors.Is(err, activationdomain.ErrCodeAlreadyUsed):
		return http.StatusBadRequest, activateResponse{Message: msgCodeAlreadyUsed, Code: codeCodeAlreadyUsed}
	case isActivationValidationError(err):
		return http.StatusBadRequest, activateResponse{Message: msgFieldsRequired, Code: codeInvalidRequest}
	default:
		return http.StatusInternalServerError, activateResponse{Message: msgServerError, Code: codeServerError}
	}
}

func (s *Server) ListActivationCodes(c *gin.Context) {
	var query struct {
		PageToken string `form:"page_token"`
		PageSize  int    `form:"page_size"`
		Status    string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.activationSvc.List(c.Request.Context(), activationdomain.ListRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		Status: strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Codes, "page_info": resp.PageInfo})
}

func (s *Server) GenerateActivationCodes(c *gin.Context) {
	var req generateCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	codes, err := s.activationSvc.Generate(c.Request.Context(), req.Count)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, auditdomain.ActionCodesGenerate, "activation_code", "", map[string]any{
		"count": len(codes),
	})

	c.JSON(http.StatusCreated, gin.H{"data": codes})
}

func (s *Server) DeleteUnusedActivationCodes(c *gin.Context) {
	removed, err := s.activationSvc.DeleteUnused(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, auditdomain.ActionCodesPurge, "activation_code", "", map[string]any{
		"count": removed,
	})

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": removed}})
}
