package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	batchdomain "github.com/linecontrol/boxline/internal/batch/domain"
	boxdomain "github.com/linecontrol/boxline/internal/box/domain"
	scandomain "github.com/linecontrol/boxline/internal/scan/domain"
)

type scanRequest struct {
	Code      string   `json:"code"`
	Mode      string   `json:"mode"`
	UserName  string   `json:"user_name"`
	MachineID string   `json:"machine_id"`
	Coworkers []string `json:"coworkers"`
	ScannedAt string   `json:"scanned_at"`
}

type scanResponse struct {
	Status      string             `json:"status"`
	Message     string             `json:"message"`
	ProductInfo string             `json:"product_info,omitempty"`
	Box         *boxdomain.Box     `json:"box,omitempty"`
	Batch       *batchdomain.Batch `json:"batch,omitempty"`
}

func (s *Server) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		AbortWithError(c, newValidationError("code", "invalid_code", "invalid code"))
		return
	}

	var scannedAt time.Time
	if raw := strings.TrimSpace(req.ScannedAt); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("scanned_at", "invalid_scanned_at", "invalid scanned_at"))
			return
		}
		scannedAt = parsed
	}

	outcome, err := s.scanSvc.Scan(c.Request.Context(), scandomain.ScanRequest{
		Code:      req.Code,
		Mode:      req.Mode,
		UserName:  req.UserName,
		MachineID: req.MachineID,
		Coworkers: req.Coworkers,
		ScannedAt: scannedAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, scanResponse{
		Status:      string(outcome.Kind),
		Message:     outcome.Message,
		ProductInfo: outcome.Product,
		Box:         outcome.Box,
		Batch:       outcome.Batch,
	})
}
