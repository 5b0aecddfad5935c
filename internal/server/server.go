package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hotelbook/apiserver/config"
	"github.com/hotelbook/apiserver/internal/auth"
	"github.com/hotelbook/apiserver/internal/cache"
	"github.com/hotelbook/apiserver/internal/catalog"
	"github.com/hotelbook/apiserver/internal/db"
	"github.com/hotelbook/apiserver/internal/handlers"
	"github.com/hotelbook/apiserver/internal/metrics"
	"github.com/hotelbook/apiserver/internal/mq"
	"github.com/hotelbook/apiserver/internal/services"
	"github.com/hotelbook/apiserver/internal/storage"
	"github.com/hotelbook/apiserver/internal/store"
)

const shutdownTimeout = 10 * time.Second

// App bundles the services the HTTP routes are served from.
type App struct {
	Users        *services.UserService
	Hotels       *services.HotelService
	Bookings     *services.BookingService
	Catalog      catalog.Catalog
	FrontendURL  string
	CookieSecure bool
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	closers    []func() error
	closeOnce  sync.Once
}

type repositories struct {
	users    services.UserRepository
	hotels   services.HotelRepository
	bookings services.BookingRepository
}

// New constructs a Server from configuration, connecting every backend it
// names. Optional backends (event queue, search cache) are skipped when not
// configured.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("JWT_SECRET is required: %w", err)
	}

	s := &Server{}
	repos, err := s.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objects, err := storage.NewObjectStorage(ctx, cfg.Media)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("init media storage: %w", err)
	}
	if err := objects.EnsureBucket(ctx); err != nil {
		s.close()
		return nil, fmt.Errorf("ensure media bucket: %w", err)
	}
	media, err := storage.NewMedia(objects, cfg.Media.PublicURL)
	if err != nil {
		s.close()
		return nil, err
	}

	hotelOpts, err := s.hotelOptions(ctx, cfg)
	if err != nil {
		s.close()
		return nil, err
	}

	cat, err := catalog.Default()
	if err != nil {
		s.close()
		return nil, err
	}

	users := services.NewUserService(repos.users, issuer)
	app := App{
		Users:        users,
		Hotels:       services.NewHotelService(repos.hotels, media, hotelOpts...),
		Bookings:     services.NewBookingService(repos.bookings, repos.hotels, repos.users),
		Catalog:      cat,
		FrontendURL:  cfg.FrontendURL,
		CookieSecure: cfg.Auth.CookieSecure,
	}
	s.router = NewRouter(app)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// NewRouter registers every route of the API on a fresh router.
func NewRouter(app App) *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		metrics.Middleware,
	)
	if app.FrontendURL != "" {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{app.FrontendURL},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	authMiddleware := handlers.RequireAuth(app.Users)

	router.Get("/healthz", handlers.Healthz)
	router.Handle("/metrics", metrics.Handler())
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, app.Users, app.CookieSecure)
	})
	router.Route("/hotels", func(r chi.Router) {
		handlers.HotelRouter(r, app.Hotels, app.Bookings, app.Catalog, authMiddleware)
	})
	router.Route("/my-hotels", func(r chi.Router) {
		handlers.MyHotelsRouter(r, app.Hotels, authMiddleware)
	})
	router.Route("/my-bookings", func(r chi.Router) {
		handlers.BookingsRouter(r, app.Bookings, authMiddleware)
	})
	return router
}

func (s *Server) openStore(ctx context.Context, cfg config.Config) (repositories, error) {
	switch cfg.DataStore {
	case config.DataStoreMemory:
		slog.WarnContext(ctx, "using in-memory data store; data is lost on restart")
		mem := store.NewMemoryDB()
		return repositories{users: mem.Users(), hotels: mem.Hotels(), bookings: mem.Bookings()}, nil
	case "", config.DataStorePostgres:
		dbConn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return repositories{}, err
		}
		s.closers = append(s.closers, dbConn.Close)
		return repositories{
			users:    store.NewUserRepository(dbConn),
			hotels:   store.NewHotelRepository(dbConn),
			bookings: store.NewBookingRepository(dbConn),
		}, nil
	default:
		return repositories{}, fmt.Errorf("unknown data store %q", cfg.DataStore)
	}
}

func (s *Server) hotelOptions(ctx context.Context, cfg config.Config) ([]services.HotelOption, error) {
	var opts []services.HotelOption

	backend, err := mq.NewBackend(ctx, cfg.MQ)
	switch {
	case errors.Is(err, mq.ErrDisabled):
		slog.InfoContext(ctx, "listing events disabled")
	case err != nil:
		return nil, fmt.Errorf("init message queue: %w", err)
	default:
		events, err := mq.NewEvents(backend, cfg.MQ.Topic)
		if err != nil {
			_ = backend.Close()
			return nil, err
		}
		s.closers = append(s.closers, events.Close)
		opts = append(opts, services.WithEventPublisher(events))
	}

	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("init search cache: %w", err)
		}
		s.closers = append(s.closers, client.Close)
		opts = append(opts, services.WithSearchCache(cache.NewSearchCache(client, cfg.Redis.CacheTTL)))
	}
	return opts, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until ctx is cancelled, then drains in-flight
// requests and releases backend connections.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "http server listening", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.InfoContext(ctx, "shutting down http server")
		return s.Shutdown()
	}
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	s.close()
	return err
}

func (s *Server) close() {
	s.closeOnce.Do(func() {
		for i := len(s.closers) - 1; i >= 0; i-- {
			if err := s.closers[i](); err != nil {
				slog.Warn("close backend", "error", err)
			}
		}
	})
}
