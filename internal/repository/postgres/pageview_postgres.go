package postgres

import (
	"context"
	"database/sql"
	"time"

	"kvgportal/internal/model"
	"kvgportal/internal/repository"
)

// PageViewPostgres is a PostgreSQL implementation of repository.PageViewRepository.
type PageViewPostgres struct {
	db *sql.DB
}

// NewPageViewPostgres creates a new PageViewPostgres repository.
func NewPageViewPostgres(db *sql.DB) *PageViewPostgres {
	return &PageViewPostgres{db: db}
}

var _ repository.PageViewRepository = (*PageViewPostgres)(nil)

// Insert stores one beacon. Replayed ids are ignored.
func (r *PageViewPostgres) Insert(ctx context.Context, pv *model.PageView) error {
	const q = `
		INSERT INTO page_views (id, session_id, type, path, referrer, user_agent, duration_ms, new_session, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, q,
		pv.ID,
		pv.SessionID,
		pv.Type,
		pv.Path,
		pv.Referrer,
		pv.UserAgent,
		pv.DurationMS,
		pv.NewSession,
		pv.OccurredAt,
	)
	return err
}

// Summary aggregates beacons in [from, to). Daily buckets follow the
// calendar of from's location.
func (r *PageViewPostgres) Summary(ctx context.Context, from, to time.Time, topPaths int) (*model.AnalyticsSummary, error) {
	out := &model.AnalyticsSummary{
		From:     from,
		To:       to,
		TopPaths: make([]model.PathCount, 0),
		Daily:    make([]model.DailyCount, 0),
	}

	const qTotals = `
		SELECT
			COUNT(*) FILTER (WHERE type = 'page_view'),
			COUNT(DISTINCT session_id),
			COALESCE(AVG(duration_ms) FILTER (WHERE type = 'session_end' AND duration_ms > 0), 0)
		FROM page_views
		WHERE occurred_at >= $1 AND occurred_at < $2
	`
	if err := r.db.QueryRowContext(ctx, qTotals, from, to).
		Scan(&out.PageViews, &out.UniqueSessions, &out.AvgDurationMS); err != nil {
		return nil, err
	}

	const qPaths = `
		SELECT path, COUNT(*)
		FROM page_views
		WHERE type = 'page_view' AND occurred_at >= $1 AND occurred_at < $2
		GROUP BY path
		ORDER BY COUNT(*) DESC, path ASC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, qPaths, from, to, topPaths)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var pc model.PathCount
		if err := rows.Scan(&pc.Path, &pc.Views); err != nil {
			rows.Close()
			return nil, err
		}
		out.TopPaths = append(out.TopPaths, pc)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	const qDaily = `
		SELECT
			to_char(date_trunc('day', occurred_at AT TIME ZONE $3), 'YYYY-MM-DD') AS day,
			COUNT(*) FILTER (WHERE type = 'page_view'),
			COUNT(DISTINCT session_id)
		FROM page_views
		WHERE occurred_at >= $1 AND occurred_at < $2
		GROUP BY day
		ORDER BY day ASC
	`
	rows, err = r.db.QueryContext(ctx, qDaily, from, to, zoneName(from.Location()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var dc model.DailyCount
		if err := rows.Scan(&dc.Date, &dc.Views, &dc.Sessions); err != nil {
			return nil, err
		}
		out.Daily = append(out.Daily, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// zoneName is the time zone name handed to Postgres. "Local" means nothing to
// the server, so it falls back to UTC.
func zoneName(loc *time.Location) string {
	if loc == nil || loc == time.Local || loc.String() == "Local" {
		return "UTC"
	}
	return loc.String()
}
