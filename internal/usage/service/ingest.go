package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chargeview/internal/feed"
	"github.com/smallbiznis/chargeview/internal/observability"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Fetch failure policy. HPC and storage feeds abort the run so a broken
// upstream never hides behind a partial month; the OpenStack feeds
// misbehave routinely enough that their failures only skip the window.
const (
	abortOnFailure  = true
	tolerateFailure = false
)

// windowRow is satisfied by pointers to the monthly usage models, all of
// which carry an id plus a (year, month) window.
type windowRow[M any] interface {
	*M
	SetWindow(id snowflake.ID, year, month int)
}

// replaceWindow fetches the feed for one window, stamps fresh ids onto
// the decoded rows and swaps them in for whatever the window held before.
func replaceWindow[M any, PM windowRow[M]](ctx context.Context, s *Service, feedName, url string, year, month int, abort bool) error {
	var records []M
	proceed, err := s.fetch(ctx, feedName, url, abort, &records)
	if !proceed {
		return err
	}
	for i := range records {
		PM(&records[i]).SetWindow(s.genID.Generate(), year, month)
	}
	return storeWindow(ctx, s, year, month, records)
}

// fetch retrieves and decodes one feed. An empty feed (upstream 404)
// proceeds with no rows so the window still gets cleared. A processing
// failure either aborts or, for tolerant feeds, skips the window.
func (s *Service) fetch(ctx context.Context, feedName, url string, abort bool, out any) (proceed bool, err error) {
	err = s.client.GetJSON(ctx, url, out)
	switch {
	case err == nil:
		s.metrics.ObserveFetch(feedName, observability.FetchOK)
		return true, nil
	case errors.Is(err, feed.ErrNoData):
		s.metrics.ObserveFetch(feedName, observability.FetchEmpty)
		return true, nil
	case feed.IsProcessingFailure(err) && !abort:
		// These endpoints don't use 404 for an empty month like we
		// want, so treat their failures as no data for the window.
		s.log.Warn("skipping feed for window",
			zap.String("feed", feedName),
			zap.Error(err),
		)
		s.metrics.ObserveFetch(feedName, observability.FetchSkipped)
		return false, nil
	default:
		s.metrics.ObserveFetch(feedName, observability.FetchError)
		return false, err
	}
}

// storeWindow deletes the window's rows and inserts the replacements in
// a single transaction, so readers never observe a half-loaded month.
func storeWindow[M any](ctx context.Context, s *Service, year, month int, rows []M) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("year = ? AND month = ?", year, month).Delete(new(M)).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}
