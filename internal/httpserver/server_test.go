package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/backend"
	"storefront/internal/catalog"
	"storefront/internal/session"
	"storefront/internal/storage"
)

const productsJSON = `[
	{"id":"p1","slug":"crate","name":"Crate","price":9.99,"active":true,"categoryId":"c1"},
	{"id":"p2","slug":"custom-rack","name":"Custom rack","price":null,"active":true,"categoryId":"c2"}
]`

type fakeBackend struct {
	mu         sync.Mutex
	orders     []map[string]any
	authHeader string
	failOrders bool
	rejectMe   bool
	gate       chan struct{}
	received   chan struct{}
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, productsJSON)
	})
	mux.HandleFunc("GET /api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		var all []map[string]any
		_ = json.Unmarshal([]byte(productsJSON), &all)
		for _, p := range all {
			if p["id"] == r.PathValue("id") || p["slug"] == r.PathValue("id") {
				_ = json.NewEncoder(w).Encode(p)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"product not found"}`)
	})
	mux.HandleFunc("GET /api/categories", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `[{"id":"c1","name":"Crates"},{"id":"c2","name":"Racks"}]`)
	})
	mux.HandleFunc("GET /api/promotions", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `[{"id":"spring","title":"Spring","active":true},{"id":"old","title":"Old","active":false}]`)
	})
	mux.HandleFunc("POST /api/orders", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.orders = append(f.orders, body)
		gate, received, fail := f.gate, f.received, f.failOrders
		f.mu.Unlock()
		if received != nil {
			received <- struct{}{}
		}
		if gate != nil {
			<-gate
		}
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"message":"database down"}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"o-42","status":"pending"}`)
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		io.WriteString(w, `{"token":"tok-1"}`)
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		reject := f.rejectMe
		f.mu.Unlock()
		if reject {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		io.WriteString(w, `{"id":"u1","email":"staff@example.com"}`)
	})
	mux.HandleFunc("GET /api/orders", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.authHeader = r.Header.Get("Authorization")
		f.mu.Unlock()
		io.WriteString(w, `{"items":[{"id":"o-42","status":"pending"}],"total":1}`)
	})
	mux.HandleFunc("PATCH /api/orders/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"`+r.PathValue("id")+`","status":"shipped"}`)
	})
	mux.HandleFunc("POST /api/categories", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"id":"c3","name":"Bins"}`)
	})
	mux.HandleFunc("GET /api/customers/export/csv", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		io.WriteString(w, "name,email\nAna,ana@example.com\n")
	})
	return mux
}

func (f *fakeBackend) order(i int) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[i]
}

func (f *fakeBackend) lastAuthHeader() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authHeader
}

func (f *fakeBackend) orderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

type testEnv struct {
	router *gin.Engine
	cookie *http.Cookie
}

func newTestEnv(t *testing.T, fb *fakeBackend) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(fb.handler())
	t.Cleanup(srv.Close)

	client := backend.NewWithHTTPClient(srv.URL+"/api", srv.Client(), nil)
	st := storage.NewMemory()
	reg := session.NewRegistry(st, client, session.Options{TTL: time.Hour, RevertDelay: time.Hour})
	t.Cleanup(reg.Close)

	router, err := buildRouter(zap.NewNop(), Deps{
		Sessions: reg,
		Catalog:  catalog.New(client, time.Minute, nil),
		Storage:  st,
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return &testEnv{router: router}
}

func (e *testEnv) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			e.cookie = c
		}
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{})

	if rec := env.do(http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from healthz, got %d", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from readyz, got %d", rec.Code)
	}
}

func TestBuildRouterRequiresSessions(t *testing.T) {
	if _, err := buildRouter(zap.NewNop(), Deps{}); err == nil {
		t.Fatal("expected error without session registry")
	}
}

func TestSessionCookieIssuedOnce(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{})

	rec := env.do(http.MethodGet, "/cart", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if env.cookie == nil || !env.cookie.HttpOnly {
		t.Fatalf("expected http-only session cookie, got %+v", env.cookie)
	}

	rec = env.do(http.MethodGet, "/cart", "")
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("expected no new cookie for a known session")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(rateLimiter(1, 1))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/test", nil))
	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/test", nil))

	if first.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", first.Code)
	}
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
}
