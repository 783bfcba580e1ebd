package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tutorstack/content-backend/internal/platform/logger"
	"github.com/tutorstack/content-backend/internal/textstore"
)

func newTextRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
	h := NewTextHandler(log, textstore.New())

	r := gin.New()
	r.POST("/api/ingest", h.Ingest)
	r.POST("/api/search", h.Search)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIngestAndSearch(t *testing.T) {
	r := newTextRouter()

	w := doJSON(t, r, http.MethodPost, "/api/ingest", `{"text": "Python is a great programming language"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("ingest status = %d, body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"id":0`) {
		t.Fatalf("ingest body = %s", w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/search?k=1", `{"text": "Python"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("search status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Python is a great") {
		t.Fatalf("search body = %s", w.Body.String())
	}
}

func TestSearchNoResults(t *testing.T) {
	r := newTextRouter()
	w := doJSON(t, r, http.MethodPost, "/api/search", `{"text": "NonexistentContent123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"chunks":[]`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestValidationErrors(t *testing.T) {
	r := newTextRouter()
	if w := doJSON(t, r, http.MethodPost, "/api/ingest", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("ingest without text: status = %d, want 400", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/api/search", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("search without text: status = %d, want 400", w.Code)
	}
}
