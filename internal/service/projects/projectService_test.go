package projectService

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhil/modportal/internal/logger"
	"github.com/nikhil/modportal/internal/store"
	"github.com/nikhil/modportal/internal/store/storetest"
)

func newService(t *testing.T, timeout time.Duration) (*ProjectService, func(id, url string, created *time.Time)) {
	t.Helper()
	db := storetest.Open(t)

	ps := NewProjectService(store.New(db), timeout)
	ps.Log = logger.Nop()

	add := func(id, url string, created *time.Time) {
		db.MustExec(`INSERT INTO client_projects (id, name, api_url, anon_key, created_at) VALUES (?, ?, ?, ?, ?)`,
			id, "Project "+id, url, "anon-"+id, created)
	}
	return ps, add
}

func TestTestConnectionOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Equal(t, "/rest/v1/", r.URL.Path)
		assert.Equal(t, "anon-p1", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-p1", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ps, add := newService(t, 0)
	add("p1", srv.URL+"/", nil)

	ok, err := ps.TestConnection(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTestConnectionRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	ps, add := newService(t, 0)
	add("p1", srv.URL, nil)

	ok, err := ps.TestConnection(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTestConnectionTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ps, add := newService(t, 50*time.Millisecond)
	add("p1", srv.URL, nil)

	start := time.Now()
	ok, err := ps.TestConnection(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestTestConnectionUnknownProject(t *testing.T) {
	ps, _ := newService(t, 0)

	_, err := ps.TestConnection(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRows(t *testing.T) {
	ps, add := newService(t, 0)
	created := time.Date(2025, time.March, 4, 23, 30, 0, 0, time.UTC)
	add("p1", "https://one.example", &created)
	add("p2", "https://two.example", nil)

	rows, err := ps.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "p1", rows[0].ID)
	assert.Equal(t, "Mar 4, 2025", rows[0].CreatedLabel)
	assert.Equal(t, "", rows[0].ContactEmail)
	assert.Equal(t, "", rows[1].CreatedLabel)

	assert.Equal(t, DefaultCheckTimeout, ps.CheckTimeout)
}
