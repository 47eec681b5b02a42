package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ditherbooth/pkg/booth"
	"ditherbooth/pkg/config"
	"ditherbooth/pkg/spool"
)

type Options struct {
	DevPassword  string
	SpoolTimeout time.Duration
}

func New(b *booth.Booth, store *config.Store, spooler spool.Spooler, opts Options, logger *zap.Logger) *Server {
	if opts.SpoolTimeout <= 0 {
		opts.SpoolTimeout = config.DefaultTimeout
	}

	s := &Server{
		booth:    b,
		store:    store,
		spooler:  spool.WithTimeout(spooler, opts.SpoolTimeout),
		password: opts.DevPassword,
		logger:   logger.With(zap.String("via", "http")),
	}
	s.engine = s.routes()
	return s
}

// Server is the HTTP front of the booth. It owns no state besides its
// collaborators; settings are read from the store on every request.
type Server struct {
	booth    *booth.Booth
	store    *config.Store
	spooler  spool.Spooler
	password string
	logger   *zap.Logger
	engine   *gin.Engine
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(s.logger), recovery(s.logger))

	r.POST("/print", s.print)
	r.POST("/preview", s.preview)

	api := r.Group("/api")
	api.GET("/public-config", s.publicConfig)

	dev := api.Group("", s.devAuth)
	dev.GET("/dev/settings", s.getSettings)
	dev.PUT("/dev/settings", s.putSettings)
	dev.POST("/spool", s.spool)

	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := logger.With(
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
		if len(c.Errors) > 0 {
			log = log.With(zap.Strings("errors", c.Errors.Errors()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error("request")
		case status >= 400:
			log.Warn("request")
		default:
			log.Debug("request")
		}
	}
}

func recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, r interface{}) {
		logger.With(zap.Any("panic", r), zap.String("path", c.Request.URL.Path)).Error("recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	})
}
