package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/simonvc/bistroledger/internal/accounting"
	"github.com/simonvc/bistroledger/internal/auth"
	"github.com/simonvc/bistroledger/internal/logger"
)

type Options struct {
	AllowedOrigins []string
	// RateLimit is requests per second per client; zero disables limiting.
	RateLimit float64
	RateBurst int
	// Tokens enables bearer authentication. Without it the caller is taken
	// from the X-User-ID header.
	Tokens *auth.Tokens
	Now    func() time.Time
}

type Server struct {
	svc    *accounting.Service
	router chi.Router
	addr   string
	tokens *auth.Tokens
	now    func() time.Time
}

func New(svc *accounting.Service, addr string, opts Options) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID", "X-Validation-PIN"},
		AllowCredentials: true,
	}))
	if opts.RateLimit > 0 {
		r.Use(newRateLimiter(opts.RateLimit, opts.RateBurst).middleware)
	}

	s := &Server{svc: svc, router: r, addr: addr, tokens: opts.Tokens, now: opts.Now}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}

	r.Get("/health", s.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authenticate)

		// Chart of accounts
		r.Get("/chart", s.getChart)
		r.Get("/accounts", s.listAccounts)
		r.Post("/accounts", s.createAccount)
		r.Get("/accounts/{id}", s.getAccount)
		r.Patch("/accounts/{id}", s.setAccountActive)
		r.Delete("/accounts/{id}", s.deleteAccount)

		// Journal
		r.Get("/journal", s.listEntries)
		r.Post("/journal", s.createEntry)
		r.Get("/journal/{id}", s.getEntry)
		r.Post("/journal/{id}/validate", s.validateEntry)

		// Derived ledger
		r.Get("/ledger", s.getLedger)
		r.Get("/ledger/{account}", s.getAccountLedger)
		r.Get("/ledger/audit", s.audit)
		r.Get("/metrics", s.metrics)

		// Reports
		r.Get("/reports/trial-balance", s.trialBalance)
		r.Get("/reports/profit-and-loss", s.profitAndLoss)
		r.Get("/reports/balance-sheet", s.balanceSheet)

		// Source documents
		r.Post("/events/sales", s.postSale)
		r.Post("/events/purchases", s.postPurchase)
		r.Post("/events/expenses", s.postExpense)

		// Expense claims
		r.Get("/expenses", s.listExpenses)
		r.Post("/expenses", s.submitExpense)
		r.Get("/expenses/{id}", s.getExpense)
		r.Post("/expenses/{id}/approve", s.approveExpense)
		r.Post("/expenses/{id}/reject", s.rejectExpense)
	})

	return s
}

// ListenAndServe runs until ctx is cancelled, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.L.Info("bistroledger server listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.L.Info("bistroledger server stopped")
		return nil
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
