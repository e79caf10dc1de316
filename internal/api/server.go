// Package api exposes a read-only HTTP view of the player and queue for
// dashboards and health checks.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"groovebox/internal/music"
	"groovebox/internal/music/cache"
	"groovebox/internal/music/player"
)

// Server serves playback status over HTTP
type Server struct {
	queue  *music.Queue
	player *player.Player
	cache  *cache.Manager
	logger *zap.Logger
}

// NewServer creates the HTTP status server
func NewServer(queue *music.Queue, p *player.Player, c *cache.Manager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{queue: queue, player: p, cache: c, logger: logger}
}

// Router builds the gin handler tree
func (s *Server) Router(production bool) *gin.Engine {
	if production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(s.logger))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.GET("/player", s.getPlayer)
		api.GET("/queue", s.getQueue)
		api.GET("/cache", s.getCache)
	}
	return router
}

func (s *Server) getPlayer(c *gin.Context) {
	snap := s.player.Snapshot()

	resp := gin.H{
		"session_id":         snap.SessionID,
		"state":              snap.State.String(),
		"elapsed_seconds":    int(snap.Elapsed.Seconds()),
		"reconnect_failures": snap.ReconnectFailures,
	}
	if snap.Track != nil {
		resp["track"] = trackJSON(*snap.Track)
		resp["duration_seconds"] = int(snap.Duration.Seconds())
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getQueue(c *gin.Context) {
	tracks, cursor := s.queue.Snapshot()

	out := make([]gin.H, len(tracks))
	for i, t := range tracks {
		out[i] = trackJSON(t)
	}
	c.JSON(http.StatusOK, gin.H{
		"tracks": out,
		"cursor": cursor,
		"loop":   s.queue.Loop(),
	})
}

func (s *Server) getCache(c *gin.Context) {
	ids := s.cache.TrackIDs()

	entries := make([]gin.H, 0, len(ids))
	for _, id := range ids {
		view, ok := s.cache.Status(id)
		if !ok {
			continue
		}
		entries = append(entries, gin.H{
			"track_id": id,
			"title":    view.Track.Title,
			"status":   view.Status.String(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func trackJSON(t music.Track) gin.H {
	return gin.H{
		"id":               t.ID,
		"title":            t.Title,
		"url":              t.URL,
		"duration_seconds": int(t.Duration.Seconds()),
		"uploader":         t.Uploader,
		"thumbnail":        t.Thumbnail,
		"requester_id":     t.RequesterID,
		"source":           t.Source,
	}
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info("HTTP Request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
