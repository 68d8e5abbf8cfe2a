package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"time"

	"github.com/student-ally/ally-core/internal/alumni"
	"github.com/student-ally/ally-core/internal/audit"
	"github.com/student-ally/ally-core/internal/auth"
	"github.com/student-ally/ally-core/internal/donations"
	"github.com/student-ally/ally-core/internal/events"
	"github.com/student-ally/ally-core/internal/infrastructure/config"
	"github.com/student-ally/ally-core/internal/infrastructure/logging"
	"github.com/student-ally/ally-core/internal/infrastructure/redis"
	"github.com/student-ally/ally-core/internal/jobs"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker is implemented by the database handle and, optionally, by
// the event publisher and engagement writer.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EventPublisher publishes domain events. *mqtt.Client satisfies it.
type EventPublisher interface {
	PublishEvent(name string, data any) error
}

// EngagementWriter records engagement metrics. *influxdb.Client satisfies it.
type EngagementWriter interface {
	WriteAuthAttempt(partition, kind, outcome string)
	WriteRegistration(partition, role string)
	WriteDonation(donationID int64, amount, raised float64)
}

// RateLimiter counts hits per key. *redis.Limiter satisfies it.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (redis.Result, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Server   config.ServerConfig
	Security config.SecurityConfig
	Metrics  config.MetricsConfig
	Logger   *logging.Logger
	Version  string

	Tokens *auth.TokenService
	Hasher auth.Hasher
	Users  auth.IdentityRepository
	Admins auth.IdentityRepository

	Alumni    *alumni.Repository
	Stories   *alumni.StoryRepository
	Jobs      *jobs.Repository
	Events    *events.Repository
	Donations *donations.Repository

	// Optional collaborators.
	DB         HealthChecker
	AuditRepo  audit.Repository
	Limiter    RateLimiter
	Publisher  EventPublisher
	Engagement EngagementWriter
}

// Server is the HTTP API server.
//
// The router is built by New so handlers can be exercised without a
// listener; Start binds the port and serves it.
type Server struct {
	cfg     config.ServerConfig
	secCfg  config.SecurityConfig
	metCfg  config.MetricsConfig
	logger  *logging.Logger
	version string

	tokens *auth.TokenService
	hasher auth.Hasher
	users  auth.IdentityRepository
	admins auth.IdentityRepository

	alumni    *alumni.Repository
	stories   *alumni.StoryRepository
	jobs      *jobs.Repository
	events    *events.Repository
	donations *donations.Repository

	db         HealthChecker
	auditRepo  audit.Repository
	auditCh    chan *audit.AuditLog
	auditDone  chan struct{}
	limiter    RateLimiter
	publisher  EventPublisher
	engagement EngagementWriter
	metrics    *metrics

	trustedProxies []netip.Prefix

	router   http.Handler
	server   *http.Server
	listener net.Listener
	errCh    chan error
	cancel   context.CancelFunc // stops the audit writer on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	case deps.Tokens == nil:
		return nil, fmt.Errorf("token service is required")
	case deps.Hasher == nil:
		return nil, fmt.Errorf("password hasher is required")
	case deps.Users == nil || deps.Admins == nil:
		return nil, fmt.Errorf("identity repositories are required")
	case deps.Alumni == nil || deps.Stories == nil || deps.Jobs == nil ||
		deps.Events == nil || deps.Donations == nil:
		return nil, fmt.Errorf("resource repositories are required")
	}

	proxies, err := deps.Server.TrustedProxyPrefixes()
	if err != nil {
		return nil, fmt.Errorf("parsing trusted proxies: %w", err)
	}

	s := &Server{
		cfg:        deps.Server,
		secCfg:     deps.Security,
		metCfg:     deps.Metrics,
		logger:     deps.Logger,
		version:    deps.Version,
		tokens:     deps.Tokens,
		hasher:     deps.Hasher,
		users:      deps.Users,
		admins:     deps.Admins,
		alumni:     deps.Alumni,
		stories:    deps.Stories,
		jobs:       deps.Jobs,
		events:     deps.Events,
		donations:  deps.Donations,
		db:         deps.DB,
		auditRepo:  deps.AuditRepo,
		limiter:    deps.Limiter,
		publisher:  deps.Publisher,
		engagement: deps.Engagement,
		errCh:      make(chan error, 1),

		trustedProxies: proxies,
	}

	if s.auditRepo != nil {
		s.auditCh = make(chan *audit.AuditLog, auditChanSize)
	}
	if s.metCfg.Enabled {
		s.metrics = newMetrics(s.version)
	}
	if s.secCfg.Cookie.Name == "" {
		s.secCfg.Cookie.Name = defaultCookieName
	}

	s.router = s.buildRouter()
	return s, nil
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the listener, starts the audit writer, and serves in a
// background goroutine. Serve failures are reported on Errors().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.auditCh != nil {
		s.auditDone = make(chan struct{})
		go func() {
			defer close(s.auditDone)
			s.drainAuditLog(srvCtx)
		}()
	}

	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.cancel()
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:           s.router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", ln.Addr().String(),
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ServeTLS(ln, s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", ln.Addr().String())
			err = s.server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
			s.errCh <- err
		}
	}()

	return nil
}

// Errors delivers a fatal serve error, if one occurs.
func (s *Server) Errors() <-chan error {
	return s.errCh
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server, then flushes queued audit
// entries.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	err := s.server.Shutdown(ctx)

	if s.cancel != nil {
		s.cancel()
	}
	if s.auditDone != nil {
		<-s.auditDone
	}

	if err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// publish sends a domain event when a publisher is configured. Failures are
// logged and never fail the request.
func (s *Server) publish(name string, data any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(name, data); err != nil {
		s.logger.Warn("event publish failed", "event", name, "error", err)
	}
}
