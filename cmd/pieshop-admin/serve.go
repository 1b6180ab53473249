package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	ginprometheus "github.com/zsais/go-gin-prometheus"

	"github.com/goliatone/go-pieshop-admin/pkg/di"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the back-office HTTP API",
	RunE:  serve,
}

func serve(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("pieshop admin version `%v`, buildtime `%v`", version, buildtime)
	container, err := loadContainer(ctx)
	if err != nil {
		return err
	}
	defer container.Close()

	if err := container.Metrics().Register(prometheus.DefaultRegisterer); err != nil {
		return err
	}

	cfg := container.Config().Server
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := newRouter(container)
	p := ginprometheus.NewPrometheus("gin")
	p.Use(r)

	s := &http.Server{
		Addr:           cfg.Addr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errc := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Addr)
		errc <- s.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// newRouter mounts the back-office API next to the service endpoints.
func newRouter(container *di.Container) *gin.Engine {
	r := gin.New()
	r.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/ping"), gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"buildtime": buildtime,
			"version":   version,
			"name":      "pieshop admin",
		})
	})
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "ok",
		})
	})

	container.Handlers().Register(r.Group("/api"))
	return r
}
