package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchReadsOpenGraphTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head>
			<title>Fallback Title</title>
			<meta property="og:title" content="Some Song">
			<meta property="og:description" content="Official video">
			<meta property="og:image" content="https://img.example.com/thumb.jpg">
			<meta property="og:site_name" content="YouTube">
		</head><body></body></html>`))
	}))
	defer srv.Close()

	p, err := NewClient(srv.Client()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Some Song", p.Title)
	assert.Equal(t, "Official video", p.Description)
	assert.Equal(t, "https://img.example.com/thumb.jpg", p.Image)
	assert.Equal(t, "YouTube", p.SiteName)
}

func TestFetchFallsBackToDocumentTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>  Plain Page  </title></head><body></body></html>`))
	}))
	defer srv.Close()

	p, err := NewClient(srv.Client()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Plain Page", p.Title)
	assert.Empty(t, p.Image)
}

func TestFetchRejectsNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.Client()).Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetchHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(srv.Client()).Fetch(ctx, srv.URL)
	assert.Error(t, err)
}
