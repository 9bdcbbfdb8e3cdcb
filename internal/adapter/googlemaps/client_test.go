package googlemaps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(srv *httptest.Server) *Client {
	c := NewClient("maps-key", 5*time.Second)
	c.staticMapURL = srv.URL + "/staticmap"
	c.streetViewURL = srv.URL + "/streetview"
	return c
}

func TestSatelliteTile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/staticmap", r.URL.Path)
		assert.Equal(t, "39.741900,-104.983800", q.Get("center"))
		assert.Equal(t, "20", q.Get("zoom"))
		assert.Equal(t, "640x640", q.Get("size"))
		assert.Equal(t, "satellite", q.Get("maptype"))
		assert.Equal(t, "png", q.Get("format"))
		assert.Equal(t, "maps-key", q.Get("key"))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG tile"))
	}))
	defer srv.Close()

	data, err := testClient(srv).SatelliteTile(context.Background(), 39.7419, -104.9838, 20, 640)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG tile"), data)
}

func TestStreetView(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path == "/streetview/metadata" {
			assert.Equal(t, "39.741900,-104.983800", q.Get("location"))
			assert.Equal(t, "maps-key", q.Get("key"))
			_, _ = w.Write([]byte(`{"status":"OK","pano_id":"abc"}`))
			return
		}
		assert.Equal(t, "/streetview", r.URL.Path)
		assert.Equal(t, "640x640", q.Get("size"))
		assert.Equal(t, "90", q.Get("heading"))
		assert.Equal(t, "10", q.Get("pitch"))
		assert.Equal(t, "39.741900,-104.983800", q.Get("location"))
		_, _ = w.Write([]byte("jpeg"))
	}))
	defer srv.Close()

	data, err := testClient(srv).StreetView(context.Background(), 39.7419, -104.9838, 90)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)
}

func TestStreetView_NoPanoramaSkipsImage(t *testing.T) {
	var imageCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/streetview/metadata" {
			_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS"}`))
			return
		}
		imageCalls++
		_, _ = w.Write([]byte("grey placeholder"))
	}))
	defer srv.Close()

	_, err := testClient(srv).StreetView(context.Background(), 39.7419, -104.9838, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoPanorama)
	assert.Contains(t, err.Error(), "ZERO_RESULTS")
	assert.Zero(t, imageCalls)
}

func TestFetch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "forbidden",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte("The provided API key is invalid."))
			},
			want: "status 403",
		},
		{
			name:    "empty body",
			handler: func(http.ResponseWriter, *http.Request) {},
			want:    "empty image",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := testClient(srv).SatelliteTile(context.Background(), 1, 2, 20, 640)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
