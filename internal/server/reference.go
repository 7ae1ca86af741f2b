package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.refStore.Snapshot().Users})
}

func (s *Server) ListMachines(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.refStore.Snapshot().Machines})
}

func (s *Server) ListProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.refStore.Snapshot().Products})
}

func (s *Server) ReloadReference(c *gin.Context) {
	if err := s.refStore.Reload(); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
