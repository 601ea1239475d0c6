package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleListSolvers lists solver accounts for the assignment picker.
func (s *Server) handleListSolvers(c *gin.Context) {
	solvers, err := s.store.ListSolvers(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"solvers": solvers})
}
