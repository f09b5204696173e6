package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/posts/"+string(rune('a'+i)), nil))
	}

	assert.Equal(t, float64(3), testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/posts/{id}", "404")))
}

func TestRecordMutation(t *testing.T) {
	m := New()

	m.RecordMutation("update", "ok")
	m.RecordMutation("update", "forbidden")
	m.RecordMutation("update", "forbidden")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.mutationsTotal.WithLabelValues("update", "ok")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.mutationsTotal.WithLabelValues("update", "forbidden")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.RecordMutation("create", "ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `post_mutations_total{op="create",result="ok"} 1`)
}
