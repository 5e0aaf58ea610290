package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRecognizeURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ImageURL string `json:"image_url"`
			Lang     string `json:"lang"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://x.test/a.jpg", req.ImageURL)
		assert.Equal(t, "chi_sim", req.Lang)

		json.NewEncoder(w).Encode(map[string]string{"text": "红色的鞋"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "chi_sim", 5*time.Second, zap.NewNop())

	got, err := c.RecognizeURL(context.Background(), "https://x.test/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "红色的鞋", got)
}

func TestRecognizeBytes(t *testing.T) {
	image := []byte{0xff, 0xd8, 0xff, 0xe0}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ImageData string `json:"image_data"`
			Lang      string `json:"lang"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, base64.StdEncoding.EncodeToString(image), req.ImageData)

		json.NewEncoder(w).Encode(map[string]string{"text": "some text"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "chi_sim", 5*time.Second, zap.NewNop())

	got, err := c.Recognize(context.Background(), image)
	require.NoError(t, err)
	assert.Equal(t, "some text", got)
}

func TestRecognizeFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "engine error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<garbage"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(srv.URL, "chi_sim", 5*time.Second, zap.NewNop())

			got, err := c.RecognizeURL(context.Background(), "https://x.test/a.jpg")
			assert.Error(t, err)
			assert.Equal(t, "", got)
		})
	}
}
