package infra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"inventory-orchestrator/inventory/slots/domain"
)

func TestHTTPFetcher_FetchDecodesCreative(t *testing.T) {
	var gotPath, gotFormat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFormat = r.URL.Query().Get("format")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c-1","format":"banner","body":"hello"}`))
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(srv.URL + "/")
	require.NoError(t, err)

	c, err := f.Fetch(context.Background(), domain.ItemConfig{Key: "home_banner", UnitID: "unit-7", Format: domain.FormatBanner})
	require.NoError(t, err)
	require.Equal(t, "/items/unit-7", gotPath)
	require.Equal(t, "banner", gotFormat)
	require.Equal(t, "c-1", c.ID)
	require.Equal(t, "unit-7", c.UnitID)
	require.Equal(t, "hello", c.Body)

	f.Release(c)
	f.Release(nil)
}

func TestHTTPFetcher_FallsBackToKeyAsUnit(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"id":"c-2"}`))
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(srv.URL)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), domain.ItemConfig{Key: "interstitial_1"})
	require.NoError(t, err)
	require.Equal(t, "/items/interstitial_1", gotPath)
}

func TestHTTPFetcher_NonOKIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no fill", http.StatusNoContent)
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(srv.URL)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), domain.ItemConfig{Key: "k"})
	require.ErrorIs(t, err, ErrUpstreamStatus)
}

func TestHTTPFetcher_RejectsRelativeURL(t *testing.T) {
	_, err := NewHTTPFetcher("items.local")
	require.Error(t, err)
}

func TestHTTPFetcher_HonorsContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Fetch(ctx, domain.ItemConfig{Key: "k"})
	require.ErrorIs(t, err, context.Canceled)
}
