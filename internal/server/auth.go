package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	PIN string `json:"pin"`
}

// Login matches a terminal PIN against the reference user list. There is no
// session state; the terminal keeps the returned name for scan stamping.
func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.PIN) == "" {
		AbortWithError(c, newValidationError("pin", "invalid_pin", "invalid pin"))
		return
	}

	user, ok := s.refStore.FindUserByPIN(req.PIN)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_name": user.Name})
}
