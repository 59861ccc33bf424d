package chrome

import (
	"context"
	"net"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// LeaserServer serves a LeaserService over a unix socket for SocketLeaser clients
type LeaserServer struct {
	leaser LeaserService
	sock   string
	srv    *http.Server
}

// NewLeaserServer for leaser listening on sock
func NewLeaserServer(leaser LeaserService, sock string) *LeaserServer {
	if sock == "" {
		sock = DefaultSocket
	}
	return &LeaserServer{leaser: leaser, sock: sock}
}

// Handler routes acquire, return, count and cleanup to the leaser
func (l *LeaserServer) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/acquire", func(c *gin.Context) {
		port, err := l.leaser.Acquire()
		if err != nil {
			log.Error().Err(err).Msg("failed to acquire browser")
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		c.String(http.StatusOK, port)
	})

	router.GET("/return", func(c *gin.Context) {
		port := c.Query("port")
		if err := l.leaser.Return(port); err != nil {
			log.Warn().Err(err).Str("port", port).Msg("failed to return browser")
			c.String(http.StatusNotFound, err.Error())
			return
		}
		c.String(http.StatusOK, "ok")
	})

	router.GET("/count", func(c *gin.Context) {
		count, err := l.leaser.Count()
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		c.String(http.StatusOK, count)
	})

	router.GET("/cleanup", func(c *gin.Context) {
		resp, err := l.leaser.Cleanup()
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		c.String(http.StatusOK, resp)
	})
	return router
}

// Serve until ctx is done, removing any socket left by a previous server
func (l *LeaserServer) Serve(ctx context.Context) error {
	os.Remove(l.sock)
	listener, err := net.Listen("unix", l.sock)
	if err != nil {
		return err
	}
	l.srv = &http.Server{Handler: l.Handler()}

	go func() {
		<-ctx.Done()
		l.srv.Shutdown(context.Background())
	}()

	log.Info().Str("socket", l.sock).Msg("leaser service listening")
	if err := l.srv.Serve(listener); err != http.ErrServerClosed {
		return err
	}
	return nil
}
