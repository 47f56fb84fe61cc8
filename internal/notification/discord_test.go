package notification

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/whist/internal/domain"
)

func webhookServer(t *testing.T, status int, got *discordWebhook) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestDiscordSendSuccess(t *testing.T) {
	var got discordWebhook
	srv := webhookServer(t, http.StatusNoContent, &got)

	svc := NewDiscordService(zerolog.Nop(), srv.URL)
	svc.now = func() time.Time { return time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC) }

	err := svc.SendSuccess(t.Context(), domain.ImportStatistics{
		TotalShows:     4,
		ImportedShows:  3,
		AddedShows:     2,
		SkippedShows:   1,
		EpisodesMarked: 41,
	})
	require.NoError(t, err)

	require.Len(t, got.Embeds, 1)
	embed := got.Embeds[0]
	assert.Equal(t, "Whist Trakt Import Completed", embed.Title)
	assert.Equal(t, "2025-03-14T12:00:00Z", embed.Timestamp)
	require.Len(t, embed.Fields, 5)
	assert.Equal(t, "3 of 4 imported (75.0%)", embed.Fields[0].Value)
	assert.Equal(t, "41", embed.Fields[3].Value)
}

func TestDiscordSendError(t *testing.T) {
	var got discordWebhook
	srv := webhookServer(t, http.StatusOK, &got)

	err := NewDiscordService(zerolog.Nop(), srv.URL).SendError(t.Context(), errors.New("export unreadable"))
	require.NoError(t, err)

	require.Len(t, got.Embeds, 1)
	assert.Contains(t, got.Embeds[0].Description, "export unreadable")
	assert.Equal(t, 0xff0000, got.Embeds[0].Color)
}

func TestDiscordNon2xx(t *testing.T) {
	var got discordWebhook
	srv := webhookServer(t, http.StatusBadRequest, &got)

	err := NewDiscordService(zerolog.Nop(), srv.URL).SendError(t.Context(), errors.New("x"))
	require.ErrorContains(t, err, "status 400")
}

func TestServiceWithoutWebhook(t *testing.T) {
	svc := NewService(zerolog.Nop(), "")

	require.NoError(t, svc.SendSuccess(t.Context(), domain.ImportStatistics{}))
	require.NoError(t, svc.SendError(t.Context(), errors.New("ignored")))
}
