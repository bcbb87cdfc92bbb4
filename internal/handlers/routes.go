package handlers

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-board/internal/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	Applications *ApplicationHandler
	Board        *BoardHandler
	Health       *HealthHandler

	AllowedOrigins []string
}

// Engine builds the gin engine with the JSON API, the board and /metrics.
func (r *Router) Engine() (*gin.Engine, error) {
	templates, err := ParseTemplates()
	if err != nil {
		return nil, err
	}

	e := gin.New()
	e.Use(gin.Recovery(), logging.GinLogger())
	e.SetHTMLTemplate(templates)

	config := cors.DefaultConfig()
	if len(r.AllowedOrigins) == 0 || r.AllowedOrigins[0] == "*" {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = r.AllowedOrigins
	}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}

	api := e.Group("/api/v1", cors.New(config))
	{
		api.GET("/health", r.Health.HealthCheck)

		api.GET("/applications", r.Applications.ListApplications)
		api.POST("/applications", r.Applications.CreateApplication)
		api.POST("/applications/extract", r.Applications.ExtractApplication)
		api.GET("/applications/:id", r.Applications.GetApplication)
		api.PUT("/applications/:id", r.Applications.UpdateApplication)
		api.DELETE("/applications/:id", r.Applications.DeleteApplication)
		api.GET("/applications/:id/events", r.Applications.ListEvents)
	}

	b := e.Group(boardPath, r.Board.SessionMiddleware())
	{
		b.GET("", r.Board.Show)
		b.POST("/page", r.Board.Paginate)
		b.POST("/add", r.Board.OpenAdd)
		b.POST("/edit/:id", r.Board.OpenEdit)
		b.POST("/save", r.Board.Save)
		b.POST("/close", r.Board.CloseDialog)
		b.POST("/delete/:id", r.Board.OpenDelete)
		b.POST("/delete-confirm", r.Board.ConfirmDelete)
		b.POST("/delete-cancel", r.Board.CloseDelete)
	}

	e.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, boardPath) })
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return e, nil
}
