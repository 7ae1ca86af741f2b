package server

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
	batchdomain "github.com/linecontrol/boxline/internal/batch/domain"
)

type printRequest struct {
	Type        string `json:"type"`
	Category    string `json:"category"`
	Recipe      string `json:"recipe"`
	BrandName   string `json:"brand_name"`
	ItemsPerBox int    `json:"items_per_box"`
	Count       int    `json:"count"`
	BatchNumber string `json:"batch_number"`
}

type printResponse struct {
	BatchID   string   `json:"batch_id"`
	BoxIDs    []string `json:"box_ids"`
	PDFBase64 string   `json:"pdf_base64"`
	Filename  string   `json:"filename"`
}

func (s *Server) PrintBatch(c *gin.Context) {
	var req printRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.batchSvc.Create(c.Request.Context(), batchdomain.CreateBatchRequest{
		Type:        req.Type,
		Category:    req.Category,
		Recipe:      req.Recipe,
		BrandName:   req.BrandName,
		ItemsPerBox: req.ItemsPerBox,
		Count:       req.Count,
		BatchNumber: req.BatchNumber,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	batchID := ""
	if resp.BatchID != 0 {
		batchID = resp.BatchID.String()
	}
	c.JSON(http.StatusOK, printResponse{
		BatchID:   batchID,
		BoxIDs:    resp.BoxIDs,
		PDFBase64: base64.StdEncoding.EncodeToString(resp.Document),
		Filename:  resp.Filename,
	})
}
