package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/varoOP/whist/internal/domain"
)

// FileRepository implements domain.TraktRepository using file storage
type FileRepository struct {
	log zerolog.Logger
}

// NewFileRepository creates a new file-based repository
func NewFileRepository(log zerolog.Logger) *FileRepository {
	return &FileRepository{
		log: log.With().Str("module", "repository").Logger(),
	}
}

var _ domain.TraktRepository = (*FileRepository)(nil)

// GetWatchedShows reads a Trakt watched-shows.json export
func (r *FileRepository) GetWatchedShows(ctx context.Context, path string) ([]domain.TraktWatchedShow, error) {
	shows := []domain.TraktWatchedShow{}

	// Check if path exists and is a file (not a directory)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file does not exist: %s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	if err := json.Unmarshal(body, &shows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json from %s: %w", path, err)
	}

	r.log.Debug().Str("path", path).Int("count", len(shows)).Msg("read trakt export")
	return shows, nil
}
