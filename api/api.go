// Package api serves read-only views of ledger instances over HTTP so a
// mirror or dashboard can follow the registry without touching the store.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/CosmWasm/tinyjson/jwriter"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"okinoko_ledger/contract"
	"okinoko_ledger/contract/dao"
	"okinoko_ledger/sdk"
)

const defaultPageSize = 100

type Server struct {
	factory  *contract.Factory
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	now      func() int64
}

type ServerOptionFunc func(*Server)

// WithGatherer exposes the given registry on /metrics.
func WithGatherer(g prometheus.Gatherer) ServerOptionFunc {
	return func(s *Server) { s.gatherer = g }
}

func WithLogger(logger *slog.Logger) ServerOptionFunc {
	return func(s *Server) { s.logger = logger }
}

// WithClock overrides the time used to project accrual when no ?at= is given.
func WithClock(now func() int64) ServerOptionFunc {
	return func(s *Server) { s.now = now }
}

func NewServer(factory *contract.Factory, opts ...ServerOptionFunc) *Server {
	s := &Server{
		factory: factory,
		now:     func() int64 { return time.Now().Unix() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	s.logger = s.logger.With("component", "api")
	return s
}

// Handler builds the gin engine with every route installed.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	s.InstallAPI(r)
	return r
}

// InstallAPI registers the ledger read handlers with gin.
func (s *Server) InstallAPI(r *gin.Engine) {
	r.GET("/api/v1/instances", s.listInstancesHandler)
	r.GET("/api/v1/instances/:instance", s.instanceHandler)
	r.GET("/api/v1/instances/:instance/depositors/:address", s.depositorHandler)
	r.GET("/api/v1/instances/:instance/votes/:proposal", s.voteHandler)
	r.GET("/api/v1/instances/:instance/proposals/:proposal", s.marketHandler)
	r.GET("/api/v1/instances/:instance/proposals/:proposal/stakes/:address", s.stakeHandler)
	r.GET("/api/v1/owners/:owner", s.ownerHandler)
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(started),
		)
	}
}

type marshaler interface {
	MarshalTinyJSON(w *jwriter.Writer)
}

func render(c *gin.Context, status int, v marshaler) {
	w := jwriter.Writer{}
	v.MarshalTinyJSON(&w)
	buf, err := w.BuildBytes()
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(status, "application/json; charset=utf-8", buf)
}

func renderError(c *gin.Context, status int, msg string) {
	render(c, status, errorView{Message: msg})
}

func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dao.ErrInstanceNotFound):
		renderError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, dao.ErrInvalidPayload):
		renderError(c, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("view failed", "path", c.Request.URL.Path, "error", err)
		renderError(c, http.StatusInternalServerError, "internal error")
	}
}

func queryUint(c *gin.Context, name string, fallback uint64) (uint64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		renderError(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}

func queryInt(c *gin.Context, name string, fallback int64) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		renderError(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}

func paramUint(c *gin.Context, name string) (uint64, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		renderError(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}

func (s *Server) ledger(c *gin.Context) (*contract.Ledger, bool) {
	l, err := s.factory.Instance(c.Request.Context(), sdk.Address(c.Param("instance")))
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return l, true
}

func (s *Server) listInstancesHandler(c *gin.Context) {
	offset, ok := queryUint(c, "offset", 0)
	if !ok {
		return
	}
	limit, ok := queryUint(c, "limit", defaultPageSize)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	count, err := s.factory.Count(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	page, err := s.factory.List(ctx, offset, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	render(c, http.StatusOK, instancePage{Count: count, Offset: offset, Instances: page})
}

func (s *Server) instanceHandler(c *gin.Context) {
	l, ok := s.ledger(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	meta, err := l.Meta(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	regOwner, _, err := s.factory.OriginalOwnerOf(ctx, l.Address())
	if err != nil {
		s.fail(c, err)
		return
	}
	rs, err := l.RewardState(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	available, err := l.AvailableRewards(ctx, s.now())
	if err != nil {
		s.fail(c, err)
		return
	}
	votes, err := l.VoteCount(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	render(c, http.StatusOK, instanceView{
		Meta:          meta,
		RegistryOwner: regOwner,
		Rewards:       rs,
		Available:     available,
		Votes:         votes,
	})
}

func (s *Server) depositorHandler(c *gin.Context) {
	l, ok := s.ledger(c)
	if !ok {
		return
	}
	at, ok := queryInt(c, "at", s.now())
	if !ok {
		return
	}
	ctx := c.Request.Context()
	addr := sdk.Address(c.Param("address"))
	d, err := l.Depositor(ctx, addr)
	if err != nil {
		s.fail(c, err)
		return
	}
	pending, err := l.PendingRewards(ctx, addr, at)
	if err != nil {
		s.fail(c, err)
		return
	}
	render(c, http.StatusOK, depositorView{Depositor: d, Pending: pending, At: at})
}

func (s *Server) voteHandler(c *gin.Context) {
	l, ok := s.ledger(c)
	if !ok {
		return
	}
	id, ok := paramUint(c, "proposal")
	if !ok {
		return
	}
	v, err := l.Vote(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if v == nil {
		renderError(c, http.StatusNotFound, "no vote on proposal")
		return
	}
	render(c, http.StatusOK, voteView{Vote: v})
}

func (s *Server) marketHandler(c *gin.Context) {
	l, ok := s.ledger(c)
	if !ok {
		return
	}
	id, ok := paramUint(c, "proposal")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	totals, err := l.StakeTotals(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	stakers, err := l.Stakers(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	render(c, http.StatusOK, marketView{Totals: totals, Stakers: stakers})
}

func (s *Server) stakeHandler(c *gin.Context) {
	l, ok := s.ledger(c)
	if !ok {
		return
	}
	id, ok := paramUint(c, "proposal")
	if !ok {
		return
	}
	st, err := l.Stake(c.Request.Context(), id, sdk.Address(c.Param("address")))
	if err != nil {
		s.fail(c, err)
		return
	}
	if st == nil {
		renderError(c, http.StatusNotFound, "no stake on proposal")
		return
	}
	render(c, http.StatusOK, stakeView{Stake: st})
}

type ownerView struct {
	Owner    sdk.Address
	Instance sdk.Address
}

func (v ownerView) MarshalTinyJSON(w *jwriter.Writer) {
	w.RawString(`{"owner":`)
	w.String(v.Owner.String())
	w.RawString(`,"instance":`)
	w.String(v.Instance.String())
	w.RawByte('}')
}

func (s *Server) ownerHandler(c *gin.Context) {
	owner := sdk.Address(c.Param("owner"))
	inst, ok, err := s.factory.InstanceOf(c.Request.Context(), owner)
	if err != nil {
		s.fail(c, err)
		return
	}
	if !ok {
		renderError(c, http.StatusNotFound, "owner has no instance")
		return
	}
	render(c, http.StatusOK, ownerView{Owner: owner, Instance: inst})
}
