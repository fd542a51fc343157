package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pricewalk/pricewalk/api/handler"
	"github.com/pricewalk/pricewalk/api/middleware"
	"github.com/pricewalk/pricewalk/cache"
	"github.com/pricewalk/pricewalk/config"
	"github.com/pricewalk/pricewalk/scraper"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	Scrape:  ConcurrencyCap
//
// Health sits outside the concurrency cap so monitoring probes answer even
// while every scrape slot is busy.
func NewRouter(sc *scraper.Scraper, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/health", handler.Health(sc, cfg.Scraper.MaxSessions, startTime))

	capped := r.Group("")
	capped.Use(middleware.ConcurrencyCap(cfg.Scraper.MaxSessions))
	capped.POST("/scrape", handler.Scrape(sc, cc))

	return r
}
