package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/newsroom-crawler/internal/domain"
	"github.com/jonesrussell/newsroom-crawler/internal/orchestrator"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ArticlesResponse is the body of GET /api/v1/articles.
type ArticlesResponse struct {
	Articles []domain.ArticleRecord `json:"articles"`
	Count    int                    `json:"count"`
}

// StatsResponse is the body of GET /api/v1/stats.
type StatsResponse struct {
	Records        int                   `json:"records"`
	ByOrganization map[string]int        `json:"by_organization"`
	Running        bool                  `json:"running"`
	LastRun        *orchestrator.Summary `json:"last_run,omitempty"`
}

func (s *Server) setupRoutes(router *gin.Engine) {
	router.GET("/health", s.health)
	router.HEAD("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	if s.deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	}

	v1 := router.Group("/api/v1")
	v1.GET("/articles", s.listArticles)
	v1.GET("/stats", s.stats)

	runs := v1.Group("/runs")
	if s.cfg.JWTSecret != "" {
		runs.Use(JWTMiddleware(s.cfg.JWTSecret))
	}
	runs.POST("", s.triggerRun)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: serviceName,
		Version: s.cfg.Version,
		Uptime:  time.Since(s.started).Truncate(time.Second).String(),
	})
}

func (s *Server) listArticles(c *gin.Context) {
	records := s.records()

	if org := c.Query("organization"); org != "" {
		filtered := make([]domain.ArticleRecord, 0, len(records))
		for _, r := range records {
			if strings.EqualFold(r.Organization, org) {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	c.JSON(http.StatusOK, ArticlesResponse{Articles: records, Count: len(records)})
}

func (s *Server) stats(c *gin.Context) {
	records := s.records()

	resp := StatsResponse{
		Records:        len(records),
		ByOrganization: make(map[string]int),
	}
	for _, r := range records {
		resp.ByOrganization[r.Organization]++
	}
	if s.deps.Runs != nil {
		resp.Running = s.deps.Runs.Busy()
	}
	if s.deps.Summaries != nil {
		if last, ok := s.deps.Summaries.LastSummary(); ok {
			resp.LastRun = &last
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) triggerRun(c *gin.Context) {
	if s.deps.Runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "runs are not enabled"})
		return
	}

	if err := s.deps.Runs.Trigger(s.baseCtx); err != nil {
		if errors.Is(err, orchestrator.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start run"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (s *Server) records() []domain.ArticleRecord {
	if s.deps.Records == nil {
		return []domain.ArticleRecord{}
	}
	records := s.deps.Records.Records()
	if records == nil {
		records = []domain.ArticleRecord{}
	}
	return records
}
