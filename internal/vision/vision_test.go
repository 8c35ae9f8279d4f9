package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func TestDetect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := Response{}
		for _, u := range req.ImageURLs {
			resp.Results = append(resp.Results, Result{URL: u, Labels: []string{"Jacket"}, Colors: []string{"#000000"}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	out, err := c.Detect(context.Background(), []string{"u1", "u2"})
	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "u2", out.Results[1].URL)

	s := out.Suggestions()
	assert.Equal(t, []string{"Jacket", "Jacket"}, s.Labels)
	assert.Equal(t, []string{"#000000", "#000000"}, s.Colors)
}

func TestDetectErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"quota"}`, http.StatusInternalServerError)
			},
			want: ErrVisionError,
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
			want: ErrVisionError,
		},
		{
			name: "count mismatch",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(Response{Results: []Result{{URL: "u1"}}})
			},
			want: ErrVisionError,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			want: ErrVisionTimeout,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(srv.URL, 50*time.Millisecond)
			_, err := c.Detect(context.Background(), []string{"u1", "u2"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSuggestionsWithoutColors(t *testing.T) {
	r := Response{Results: []Result{{URL: "a", Labels: []string{"Shirt"}}, {URL: "b", Brands: []string{"Nike"}}}}
	s := r.Suggestions()
	assert.Nil(t, s.Colors)
	assert.Equal(t, []string{"Nike"}, s.Brands)

	r.Results[1].Colors = []string{}
	assert.NotNil(t, r.Suggestions().Colors)
}
