package notify_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pkgforge.dev/rebake/internal/adapters/notify"
	"go.pkgforge.dev/rebake/internal/core/ports"
)

func TestWebhook_PostsAttachment(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
	}))
	defer srv.Close()

	err := notify.NewWebhook(srv.URL).Notify(context.Background(), ports.Notification{
		Title:   "SUCCESS: Recipe VLC packaged new version 3.0.20",
		Text:    "*Build Path(s):*\n/cache/VLC/VLC-3.0.20.pkg",
		Success: true,
	})
	require.NoError(t, err)

	attachments, ok := got["attachments"].([]any)
	require.True(t, ok)
	require.Len(t, attachments, 1)
	first, ok := attachments[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "good", first["color"])
	assert.Contains(t, first["title"], "VLC")
}

func TestWebhook_FailureUsesDangerColor(t *testing.T) {
	var color string
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		var p struct {
			Attachments []struct {
				Color string `json:"color"`
			} `json:"attachments"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		color = p.Attachments[0].Color
	}))
	defer srv.Close()

	err := notify.NewWebhook(srv.URL).Notify(context.Background(), ports.Notification{
		Title: "Failed to run VLC",
	})
	require.NoError(t, err)
	assert.Equal(t, "danger", color)
}

func TestWebhook_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := notify.NewWebhook(srv.URL).Notify(context.Background(), ports.Notification{Title: "x"})
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	assert.NoError(t, notify.Noop{}.Notify(context.Background(), ports.Notification{Title: "x"}))
}
