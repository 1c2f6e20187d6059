package main

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	auth "HeatX/internal/auth"
	chart "HeatX/internal/calc/chart"
	exchanger "HeatX/internal/calc/exchanger"
	batch "HeatX/internal/calc/premium/batch"
	importer "HeatX/internal/calc/premium/importer"
	rating "HeatX/internal/calc/premium/rating"
	recommend "HeatX/internal/calc/premium/recommend"
	report "HeatX/internal/calc/report"
	config "HeatX/internal/config"
	metrics "HeatX/internal/metrics"
	repo "HeatX/internal/repo"
	ws "HeatX/internal/ws"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var wg sync.WaitGroup

func CORS(mux *mux.Router) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working behind the logger.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Debug("http request")
	})
}

type App struct {
	Config  *config.Config
	Calc    *exchanger.Handler
	Metrics *metrics.Registry
	// Auth is nil when AUTH_ENABLED is off; tool routes are then public.
	Auth *auth.Authenv
}

func HandleList(mux *mux.Router, app *App) {
	limiter := auth.NewIPRateLimiter(rate.Limit(app.Config.RateLimit), app.Config.RateBurst)

	api := mux.PathPrefix("/api").Subrouter()
	api.Use(limiter.LimitMiddleware)

	tools := api
	if app.Auth != nil {
		api.HandleFunc("/login", app.Auth.AuthHandler).Methods("POST")
		api.HandleFunc("/register", app.Auth.RegisterHandler).Methods("POST")

		// same paths as without auth, only guarded
		tools = api.NewRoute().Subrouter()
		tools.Use(app.Auth.AuthMiddleware)
	}

	chartH := &chart.Handler{Calc: app.Calc}
	reportH := &report.Handler{Calc: app.Calc}
	importH := &importer.Handler{Calc: app.Calc}
	batchH := &batch.Handler{Calc: app.Calc}
	recommendH := &recommend.Handler{Calc: app.Calc}
	ratingH := &rating.Handler{}

	tools.HandleFunc("/tools/exchanger/calc", app.Calc.Calc).Methods("POST")
	tools.HandleFunc("/tools/exchanger/charts", chartH.Render).Methods("POST")
	tools.HandleFunc("/tools/exchanger/report/pdf", reportH.Generate).Methods("POST")
	tools.HandleFunc("/tools/exchanger/report/xlsx", reportH.Export).Methods("POST")

	tools.HandleFunc("/tools-premium/exchanger/import", importH.Exchanger).Methods("POST")
	tools.HandleFunc("/tools-premium/exchanger/batch", batchH.Exchanger).Methods("POST")
	tools.HandleFunc("/tools-premium/exchanger/compare", batchH.Compare).Methods("POST")
	tools.HandleFunc("/tools-premium/exchanger/recommend-area", recommendH.Area).Methods("POST")
	tools.HandleFunc("/tools-premium/exchanger/rating", ratingH.Calc).Methods("POST")

	var live http.Handler = ws.New(app.Calc)
	if app.Auth != nil {
		live = app.Auth.AuthMiddleware(live)
	}
	mux.Handle("/ws/exchanger", live)
	mux.Handle("/metrics", app.Metrics).Methods("GET")

	mux.PathPrefix("/").
		Handler(http.FileServer(http.Dir(app.Config.StaticDir)))
}

func setupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	setupLogging(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reg := metrics.New()
	app := &App{
		Config:  cfg,
		Calc:    &exchanger.Handler{Engine: cfg.Engine.NewEngine(), Metrics: reg},
		Metrics: reg,
	}

	if cfg.AuthEnabled {
		db, err := auth.InitDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		users := repo.NewPostgresUserDB(db)
		if err := users.Migrate(ctx); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		app.Auth = &auth.Authenv{JWTkey: []byte(cfg.TokenKey), Repo: users}
	}

	router := mux.NewRouter()
	router.Use(requestLogger)
	HandleList(router, app)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           CORS(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.WithFields(log.Fields{
			"addr":   cfg.Addr,
			"tls":    cfg.TLS(),
			"auth":   cfg.AuthEnabled,
			"policy": cfg.Engine.Policy,
		}).Info("starting server")

		var err error
		if cfg.TLS() {
			err = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("server error: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, closing active connections")

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server shutdown: %v", err)
	}
	wg.Wait()
	log.Info("server stopped")
}
