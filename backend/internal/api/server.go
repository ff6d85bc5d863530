// Package api serves the wallet session and arcade profile over a loopback
// HTTP API, for tooling and for frontends that are not Wails-bound.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/satsarcade/sats-arcade/internal/arcade"
	"github.com/satsarcade/sats-arcade/internal/wallet"
)

// WalletService is the session manager surface the API drives.
type WalletService interface {
	Snapshot() wallet.Snapshot
	Connect(ctx context.Context) (wallet.Session, error)
	Refresh(ctx context.Context, force bool) error
	SendBitcoin(ctx context.Context, address string, amountSats int64) (string, error)
	Logout(ctx context.Context)
	PlayAsGuest()
}

// ArcadeService is the game profile surface the API drives.
type ArcadeService interface {
	Profile() (arcade.Profile, error)
	SelectShip(id string) (arcade.Ship, error)
	RecordScore(score int) (int, bool, error)
}

// Options configures a Server.
type Options struct {
	// Token, when set, must be sent as X-Api-Token on /api/v1 routes.
	Token  string
	Logger *log.Logger
}

// Server handles HTTP requests
type Server struct {
	wallet       WalletService
	arcade       ArcadeService
	token        string
	errorHandler *ErrorHandler
	logger       *log.Logger
	startTime    time.Time

	httpServer *http.Server
}

// NewServer creates a new API server
func NewServer(w WalletService, a ArcadeService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[API] ", log.LstdFlags|log.Lshortfile)
	}
	return &Server{
		wallet:       w,
		arcade:       a,
		token:        opts.Token,
		errorHandler: NewErrorHandler(logger),
		logger:       logger,
		startTime:    time.Now(),
	}
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware)

	// Health and monitoring endpoints
	r.Get("/health", s.handleHealthCheck)
	r.Get("/health/ready", s.handleReadiness)
	r.Get("/health/live", s.handleLiveness)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.tokenMiddleware)

		r.Get("/chains", s.handleListChains)

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/session", s.handleSession)
			r.Post("/connect", s.handleConnect)
			r.Post("/refresh", s.handleRefresh)
			r.Post("/send", s.handleSend)
			r.Post("/logout", s.handleLogout)
			r.Post("/guest", s.handleGuest)
		})

		r.Route("/arcade", func(r chi.Router) {
			r.Get("/ships", s.handleListShips)
			r.Get("/profile", s.handleProfile)
			r.Post("/ship", s.handleSelectShip)
			r.Post("/score", s.handleScore)
		})
	})

	return r
}

// ListenAndServe serves on 127.0.0.1:port until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("api: listen: %w", err)
	}
	s.httpServer = &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}()

	s.logger.Printf("listening on %s", ln.Addr())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api: serve: %w", err)
	}
	return nil
}

func (s *Server) tokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			got := r.Header.Get("X-Api-Token")
			if subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
				s.errorHandler.HandleUnauthorized(w, r)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Printf("request_id=%s method=%s path=%s status=%d duration=%s",
			middleware.GetReqID(r.Context()), r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Api-Token")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-App-Version", Version)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("write response: %v", err)
	}
}

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 16

// decodeJSON decodes an optional request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
