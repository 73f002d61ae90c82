package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mxkacsa/worldsync"
	"github.com/mxkacsa/worldsync/state"
)

const (
	mimeMsgpack     = "application/msgpack"
	requestIDHeader = "X-Request-ID"
	updateBacklog   = 256
)

// server exposes the store over HTTP.
type server struct {
	engine  *engine
	log     zerolog.Logger
	updates *worldsync.UpdateBuffer
}

func newServer(e *engine, log zerolog.Logger) *server {
	s := &server{engine: e, log: log, updates: worldsync.NewUpdateBuffer(updateBacklog)}
	e.store.Subscribe(s.updates.Add)
	return s
}

func (s *server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/snapshot", s.getSnapshot)
	r.GET("/updates", s.getUpdates)
	r.GET("/world", s.getWorld)
	r.GET("/records", s.getRecords)
	r.POST("/inventory", s.postInventory)
	r.POST("/checked", s.postChecked)
	r.DELETE("/checked/:location", s.deleteChecked)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.engine.gatherer, promhttp.HandlerOpts{})))
	return r
}

func (s *server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("request_id", id).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

// =============================================================================
// Handlers
// =============================================================================

func (s *server) getSnapshot(c *gin.Context) {
	snap := s.engine.store.Latest()
	if strings.Contains(c.GetHeader("Accept"), mimeMsgpack) {
		raw, err := worldsync.EncodeSnapshot(snap)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.Data(http.StatusOK, mimeMsgpack, raw)
		return
	}
	c.JSON(http.StatusOK, worldsync.Document(snap))
}

type updateResponse struct {
	Trigger worldsync.TriggerKind `json:"trigger"`
	Version uint64                `json:"version"`
	Changes *worldsync.ChangeSet  `json:"changes"`
	Patch   any                   `json:"patch"`
}

// getUpdates drains the updates published since the last call. Each carries
// the change set and a JSON patch against the previous snapshot document.
func (s *server) getUpdates(c *gin.Context) {
	drained := s.updates.Drain()
	out := make([]updateResponse, 0, len(drained))
	for _, u := range drained {
		patch, err := worldsync.Patch(u.Prev, u.Next)
		if err != nil {
			s.fail(c, err)
			return
		}
		out = append(out, updateResponse{Trigger: u.Trigger, Version: u.Next.Version(), Changes: u.Changes, Patch: patch})
	}
	c.JSON(http.StatusOK, out)
}

func (s *server) getWorld(c *gin.Context) {
	data := s.engine.store.StaticData()
	if data == nil {
		s.fail(c, worldsync.ErrNoWorld)
		return
	}
	regions := make([]string, 0, data.NumRegions())
	for _, r := range data.Regions() {
		regions = append(regions, r.Name)
	}
	c.JSON(http.StatusOK, gin.H{
		"game":          data.Game,
		"load_id":       data.LoadID,
		"start_regions": data.StartRegions(),
		"regions":       regions,
		"locations":     len(data.Locations()),
		"events":        data.NumEvents(),
	})
}

func (s *server) getRecords(c *gin.Context) {
	if s.engine.recorder == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "trigger recording is disabled"})
		return
	}
	c.JSON(http.StatusOK, s.engine.recorder.Records())
}

type inventoryRequest struct {
	Item  string `json:"item" binding:"required"`
	Count *int   `json:"count" binding:"omitempty,gte=0"`
	Delta *int   `json:"delta"`
}

func (s *server) postInventory(c *gin.Context) {
	var req inventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if (req.Count == nil) == (req.Delta == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one of count and delta is required"})
		return
	}
	var (
		snap *state.Snapshot
		err  error
	)
	if req.Count != nil {
		snap, err = s.engine.store.SetItemCount(c.Request.Context(), req.Item, *req.Count)
	} else {
		snap, err = s.engine.store.AddItem(c.Request.Context(), req.Item, *req.Delta)
	}
	s.respond(c, snap, err)
}

type checkRequest struct {
	Location string `json:"location" binding:"required"`
}

func (s *server) postChecked(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := s.engine.store.CheckLocation(c.Request.Context(), req.Location)
	s.respond(c, snap, err)
}

func (s *server) deleteChecked(c *gin.Context) {
	snap, err := s.engine.store.UncheckLocation(c.Request.Context(), c.Param("location"))
	s.respond(c, snap, err)
}

func (s *server) respond(c *gin.Context, snap *state.Snapshot, err error) {
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, worldsync.Document(snap))
}

func (s *server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	cause := eris.Cause(err)
	switch {
	case eris.Is(err, worldsync.ErrNoWorld):
		status = http.StatusConflict
	case errors.Is(cause, context.DeadlineExceeded), errors.Is(cause, context.Canceled):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// =============================================================================
// Command
// =============================================================================

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gin.SetMode(gin.ReleaseMode)
	e := newEngine(cfg, logger)
	if _, err := e.load(ctx, args[0]); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newServer(e, logger).routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if watchWorld {
		g.Go(func() error {
			return newWorldWatcher(args[0], e, logger).Run(ctx)
		})
	}
	return g.Wait()
}
