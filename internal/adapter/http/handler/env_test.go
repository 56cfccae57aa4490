package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/iho/pocketledger/internal/adapter/http/middleware"
	"github.com/iho/pocketledger/internal/domain"
	"github.com/iho/pocketledger/internal/usecase"
	"github.com/iho/pocketledger/internal/usecase/fakes"
)

func init() {
	domain.BcryptCost = 4
}

// testEnv serves the handlers over in-memory repositories for one user.
type testEnv struct {
	store    *fakes.Store
	services *usecase.Services
	router   chi.Router
	userID   domain.ID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := fakes.NewStore()
	env := &testEnv{
		store:    store,
		services: usecase.NewServices(fakes.Dependencies(store)),
		userID:   domain.NewID(),
	}

	accounts := NewAccountHandler(env.services.Accounts)
	transactions := NewTransactionHandler(env.services.Transactions)
	ledger := NewLedgerHandler(env.services.Ledger)
	authH := NewAuthHandler(env.services.Users)

	r := chi.NewRouter()
	r.Post("/auth/register", authH.Register)
	r.Post("/auth/login", authH.Login)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if req.Header.Get("X-Anonymous") != "" {
					next.ServeHTTP(w, req)
					return
				}
				next.ServeHTTP(w, req.WithContext(middleware.WithUserID(req.Context(), env.userID)))
			})
		})
		r.Get("/me", authH.Me)
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", accounts.Create)
			r.Get("/", accounts.List)
			r.Get("/{id}", accounts.Get)
			r.Patch("/{id}", accounts.Update)
			r.Delete("/{id}", accounts.Archive)
		})
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", transactions.Create)
			r.Get("/", transactions.List)
			r.Get("/{id}", transactions.Get)
			r.Patch("/{id}", transactions.Update)
			r.Delete("/{id}", transactions.Delete)
		})
		r.Get("/ledger/trial-balance", ledger.TrialBalance)
		r.Get("/ledger/balances", ledger.Balances)
	})
	env.router = r
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(v))
	return &buf
}

func withUser(req *http.Request, id domain.ID) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), id))
}
