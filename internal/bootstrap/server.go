package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/bnbchat/api"
	"github.com/Domenick1991/bnbchat/config"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Registrar is implemented by every HTTP handler group.
type Registrar interface {
	Register(router *gin.RouterGroup)
}

// Run starts the HTTP server and blocks until ctx is cancelled or the server fails.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger, handlers ...Registrar) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           NewRouter(cfg, logger, handlers...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("address", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func NewRouter(cfg *config.Config, logger *zap.Logger, handlers ...Registrar) *gin.Engine {
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.RequestLogger(logger))
	router.Use(api.RateLimit(cfg.HTTP.RatePerMinute, cfg.HTTP.RateBurst, logger))

	router.GET("/healthz", func(c *gin.Context) {
		mode := "live"
		if cfg.Chat.DevMode {
			mode = "rule_based"
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": mode})
	})

	group := router.Group("/")
	for _, h := range handlers {
		h.Register(group)
	}
	return router
}
