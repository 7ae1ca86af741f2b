package server

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"github.com/linecontrol/boxline/internal/report"
)

type finishRequest struct {
	BrandName   string `json:"brand_name"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Recipe      string `json:"recipe"`
	CountDone   int    `json:"count_done"`
	BatchNumber string `json:"batch_number"`
	BatchID     string `json:"batch_id"`
	UserName    string `json:"user_name"`
}

func (s *Server) FinishBatch(c *gin.Context) {
	var req finishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	doc, err := s.reportSvc.FinishBatch(c.Request.Context(), report.Entry{
		Brand:       req.BrandName,
		Type:        req.Type,
		Category:    req.Category,
		Recipe:      req.Recipe,
		Count:       req.CountDone,
		BatchNumber: req.BatchNumber,
		BatchID:     req.BatchID,
		UserName:    req.UserName,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	name := slug.Make(strings.TrimSpace(req.BrandName))
	if name == "" {
		name = "batch"
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"pdf_base64": base64.StdEncoding.EncodeToString(doc),
		"filename":   fmt.Sprintf("report_%s.pdf", name),
	})
}

type finishInventoryRequest struct {
	Stats map[string]int `json:"stats"`
}

func (s *Server) FinishInventory(c *gin.Context) {
	var req finishInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	s.reportSvc.FinishInventory(c.Request.Context(), req.Stats)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
