// Package api exposes the triage service over HTTP: a JSON API and the
// interactive HTML pages.
package api

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

// NewRouter wires middleware, pages and API routes onto a gin engine.
func NewRouter(h *Handler, maxBodyBytes int64) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(h.log),
		limitBodySize(maxBodyBytes),
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			MaxAge:       12 * time.Hour,
		}),
	)
	router.SetHTMLTemplate(parseTemplates())

	router.GET("/", h.index)
	router.GET("/predict", h.predictPage)
	router.POST("/predict", h.predictForm)
	router.GET("/patients", h.patientsPage)
	router.GET("/insights", h.insightsPage)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", h.readyz)

	api := router.Group("/api")
	{
		api.POST("/predict", h.apiPredict)
		api.GET("/patients", h.apiPatients)
		api.GET("/patients/export", h.exportPatients)
		api.GET("/insights", h.apiInsights)
		api.GET("/features", h.apiFeatures)
	}

	return router
}

func parseTemplates() *template.Template {
	funcs := template.FuncMap{
		"percent": func(v float64) string {
			return fmt.Sprintf("%.1f%%", v*100)
		},
		"width": func(v float64) string {
			return fmt.Sprintf("%.1f", v*100)
		},
		"number": func(v float64) string {
			return fmt.Sprintf("%.1f", v)
		},
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Set("request_id", id)
		c.Next()
	}
}

func requestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
			"request_id": c.GetString("request_id"),
		}).Info("request handled")
	}
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
