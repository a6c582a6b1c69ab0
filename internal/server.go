package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/2beens/gymreps/internal/api"
	"github.com/2beens/gymreps/internal/config"
	"github.com/2beens/gymreps/internal/middleware"
	"github.com/2beens/gymreps/internal/telemetry/metrics"
	"github.com/2beens/gymreps/internal/telemetry/tracing"
	"github.com/2beens/gymreps/internal/tracking"
)

const startSessionRouteName = "start-session"

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	apiSecret         string // required in X-REPS-TOKEN on write routes, when set
	versionInfo       string

	config       *config.Config
	sessionStore *sessionStore
	tracker      *tracking.Tracker
	sweeper      *tracking.Sweeper
	redisClient  *redis.Client
	rateLimiter  middleware.RequestRateLimiter

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	ApiSecret               string
	RedisPassword           string
	DBPassword              string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "gymreps-service")
	if err != nil {
		return nil, err
	}

	promRegistry := metrics.NewRegistry()
	metricsManager := metrics.NewManager("gymreps", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	var rdb *redis.Client
	if params.Config.RedisEnabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
			Password: params.RedisPassword,
			DB:       0, // use default DB
		})
		if params.HoneycombTracingEnabled {
			rdb.AddHook(redisotel.NewTracingHook())
		}

		rdbStatus := rdb.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			log.Errorf("--> failed to ping redis: %s", err)
		} else {
			log.Debugf("redis ping: %s", rdbStatus.Val())
		}
	} else {
		log.Warnln("redis not configured, start_session will not be rate limited")
	}

	store, err := newSessionStore(ctx, sessionStoreParams{
		Config:         params.Config,
		RedisClient:    rdb,
		PromRegistry:   promRegistry,
		DBPassword:     params.DBPassword,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		otelShutdown()
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, fmt.Errorf("new sessions store: %w", err)
	}

	tracker := tracking.NewTracker(store, metricsManager)
	sweeper, err := tracking.NewSweeper(ctx, tracker, params.Config.TrackingSweepEvery, params.Config.TrackingMaxIdle)
	if err != nil {
		otelShutdown()
		store.Close()
		return nil, fmt.Errorf("new idle sweeper: %w", err)
	}

	s := &Server{
		config:       params.Config,
		apiSecret:    params.ApiSecret,
		versionInfo:  params.VersionInfo,
		sessionStore: store,
		tracker:      tracker,
		sweeper:      sweeper,
		redisClient:  rdb,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}
	if rdb != nil {
		s.rateLimiter = redis_rate.NewLimiter(rdb)
	}

	return s, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	miscHandler := api.NewMiscHandler(s.versionInfo)
	r.HandleFunc("/", miscHandler.HandleRoot).Methods("GET", "POST", "OPTIONS").Name("root")
	r.HandleFunc("/version", miscHandler.HandleVersion).Methods("GET").Name("version")
	r.HandleFunc("/exercises", miscHandler.HandleExercises).Methods("GET", "OPTIONS").Name("exercises")

	sessionsHandler := api.NewSessionsHandler(s.sessionStore, s.metricsManager)
	var saveHandler http.Handler = http.HandlerFunc(sessionsHandler.HandleSave)
	if s.rateLimiter != nil {
		saveHandler = middleware.RateLimit(
			s.rateLimiter,
			startSessionRouteName,
			s.config.StartSessionRateLimitPerMin,
			s.metricsManager,
		)(saveHandler)
	}
	r.Handle("/start_session", saveHandler).Methods("POST", "OPTIONS").Name(startSessionRouteName)
	r.HandleFunc("/user_sessions/{username}", sessionsHandler.HandleList).Methods("GET", "OPTIONS").Name("user-sessions")

	trackingHandler := api.NewTrackingHandler(s.tracker)
	r.HandleFunc("/tracking/sessions", trackingHandler.HandleStart).Methods("POST", "OPTIONS").Name("tracking-start")
	r.HandleFunc("/tracking/sessions/{id}/frames", trackingHandler.HandleFrame).Methods("POST", "OPTIONS").Name("tracking-frame")
	r.HandleFunc("/tracking/sessions/{id}/finish", trackingHandler.HandleFinish).Methods("POST", "OPTIONS").Name("tracking-finish")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.apiSecret)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(host string, port int) {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      s.routerSetup(),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(host, strconv.Itoa(s.config.MetricsPort))
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.sweeper.Start()
	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	ctx, timeoutCancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer timeoutCancel()

	// stop taking frames first, then persist whatever is still live
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	s.sweeper.Stop(s.config.ShutdownTimeout)
	for _, res := range s.tracker.FinishAll(ctx) {
		if !res.Persisted {
			log.Errorf("session [%s] of [%s] lost on shutdown: %s", res.Summary.ID, res.Summary.Username, res.PersistError)
		}
	}

	s.sessionStore.Close()

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
