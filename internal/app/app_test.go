package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/whist/internal/database"
	"github.com/varoOP/whist/internal/domain"
	"github.com/varoOP/whist/internal/testutil"
)

type webhook struct {
	mu     sync.Mutex
	titles []string
}

func newWebhook(t *testing.T) (*webhook, string) {
	t.Helper()

	hook := &webhook{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Embeds []struct {
				Title string `json:"title"`
			} `json:"embeds"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil && len(payload.Embeds) > 0 {
			hook.mu.Lock()
			hook.titles = append(hook.titles, payload.Embeds[0].Title)
			hook.mu.Unlock()
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	return hook, srv.URL
}

func newTestApp(t *testing.T, catalog domain.Catalog, webhookURL string) *App {
	t.Helper()

	dir := t.TempDir()
	db, err := database.NewDB(dir, zerolog.Nop())
	require.NoError(t, err)

	a := newApp(zerolog.Nop(), &domain.Config{DataDir: dir, DiscordWebhookURL: webhookURL}, db, catalog)
	t.Cleanup(func() { a.Close() })

	return a
}

func TestImportNotifiesSuccess(t *testing.T) {
	hook, url := newWebhook(t)
	catalog := testutil.NewCatalog()
	catalog.AddSeason(95396, "Severance", 1, "2022-02-18", "2022-02-25")

	a := newTestApp(t, catalog, url)

	export := filepath.Join(t.TempDir(), "watched-shows.json")
	require.NoError(t, os.WriteFile(export, []byte(`[
		{
			"last_watched_at": "2024-05-02T21:14:00.000Z",
			"show": {"title": "Severance", "ids": {"tmdb": 95396}},
			"seasons": [{"number": 1, "episodes": [{"number": 1, "plays": 1, "last_watched_at": "2024-05-01T20:00:00.000Z"}]}]
		}
	]`), 0644))

	require.NoError(t, a.Import(t.Context(), export))

	progress, err := a.libraryService.Progress(t.Context(), 95396)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.Watched)
	assert.Equal(t, 2, progress.Total)

	hook.mu.Lock()
	defer hook.mu.Unlock()
	assert.Equal(t, []string{"Whist Trakt Import Completed"}, hook.titles)
}

func TestImportNotifiesFailure(t *testing.T) {
	hook, url := newWebhook(t)
	a := newTestApp(t, testutil.NewCatalog(), url)

	err := a.Import(t.Context(), filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	hook.mu.Lock()
	defer hook.mu.Unlock()
	assert.Equal(t, []string{"Whist Trakt Import Failed"}, hook.titles)
}

func TestHandlerServesHealth(t *testing.T) {
	a := newTestApp(t, testutil.NewCatalog(), "")

	rec := httptest.NewRecorder()
	a.Handler().Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
