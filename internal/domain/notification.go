package domain

import "context"

// NotificationService defines the interface for notification services
type NotificationService interface {
	// SendSuccess sends a success notification with import statistics
	SendSuccess(ctx context.Context, stats ImportStatistics) error

	// SendError sends an error notification with error details
	SendError(ctx context.Context, err error) error
}

// ImportStatistics holds the final statistics for an import run
type ImportStatistics struct {
	TotalShows      int
	ImportedShows   int
	AddedShows      int
	SkippedShows    int
	EpisodesMarked  int
	MissingEpisodes int
}

func (s ImportStatistics) ImportedPercent() float64 {
	if s.TotalShows == 0 {
		return 0
	}
	return float64(s.ImportedShows) / float64(s.TotalShows) * 100
}
