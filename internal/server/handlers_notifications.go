package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/spigell/job-portal/internal/notify"
)

func (s *Server) listNotifications(c *gin.Context) {
	filter := notify.ListFilter{Kind: notify.Kind(c.Query("kind"))}

	if filter.Kind != "" && !filter.Kind.Valid() {
		badRequest(c, fmt.Errorf("unknown notification kind %q", filter.Kind))
		return
	}

	var err error
	if filter.UnreadOnly, err = queryBool(c, "unread"); err != nil {
		badRequest(c, err)
		return
	}
	if filter.Limit, err = queryInt(c, "limit"); err != nil {
		badRequest(c, err)
		return
	}
	if filter.Offset, err = queryInt(c, "offset"); err != nil {
		badRequest(c, err)
		return
	}

	rows, err := s.deps.Notifications.List(c.Request.Context(), actor(c), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": rows})
}

func (s *Server) recentNotifications(c *gin.Context) {
	rows, err := s.deps.Notifications.Recent(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": rows})
}

func (s *Server) unreadCount(c *gin.Context) {
	count, err := s.deps.Notifications.UnreadCount(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

func (s *Server) markRead(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, fmt.Errorf("invalid notification id %q", c.Param("id")))
		return
	}

	row, err := s.deps.Notifications.MarkRead(c.Request.Context(), uint(id), actor(c), s.now().UTC())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (s *Server) markAllRead(c *gin.Context) {
	updated, err := s.deps.Notifications.MarkAllRead(c.Request.Context(), actor(c), s.now().UTC())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}

func queryBool(c *gin.Context, key string) (bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean", key)
	}
	return b, nil
}
