package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleListNotifications returns the caller's notifications, newest
// first. Pass ?unread=true to restrict to unread ones.
func (s *Server) handleListNotifications(c *gin.Context) {
	claims := currentClaims(c)
	unreadOnly := c.Query("unread") == "true"

	notifications, err := s.notifications.List(c.Request.Context(), claims.UserID, unreadOnly)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"notifications": notifications})
}

// handleUnreadCount returns the caller's unread notification count.
func (s *Server) handleUnreadCount(c *gin.Context) {
	claims := currentClaims(c)

	count, err := s.notifications.UnreadCount(c.Request.Context(), claims.UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"count": count})
}

// handleMarkRead marks one of the caller's notifications as read.
func (s *Server) handleMarkRead(c *gin.Context) {
	claims := currentClaims(c)

	if err := s.notifications.MarkRead(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "read"})
}

// handleMarkAllRead marks every unread notification of the caller as read.
func (s *Server) handleMarkAllRead(c *gin.Context) {
	claims := currentClaims(c)

	if err := s.notifications.MarkAllRead(c.Request.Context(), claims.UserID); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "read"})
}
