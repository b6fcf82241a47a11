package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"kvgportal/internal/model"
	"kvgportal/internal/repository"
)

const (
	maxPathLen      = 512
	maxReferrerLen  = 1024
	maxUserAgentLen = 500
	maxSessionIDLen = 64
	topPathsLimit   = 10
	maxSummaryRange = 366 * 24 * time.Hour
)

// SessionTracker keeps the sliding analytics session window.
type SessionTracker interface {
	TouchSession(ctx context.Context, sessionID string, ttl time.Duration) (bool, error)
	EndSession(ctx context.Context, sessionID string) error
}

// Event is one beacon as received from the browser.
type Event struct {
	Type       string `json:"type"`
	Path       string `json:"path"`
	Referrer   string `json:"referrer"`
	SessionID  string `json:"session_id"`
	DurationMS int64  `json:"duration_ms"`
	UserAgent  string `json:"-"`
}

// AnalyticsService records beacons and aggregates them for the dashboard.
type AnalyticsService interface {
	// Track stores ev. An empty session id gets a fresh one, which the
	// returned page view carries.
	Track(ctx context.Context, ev Event) (*model.PageView, error)
	// Summary aggregates [from, to). Zero values default to the last 30 days.
	Summary(ctx context.Context, from, to time.Time) (*model.AnalyticsSummary, error)
}

type analyticsService struct {
	repo       repository.PageViewRepository
	sessions   SessionTracker
	sessionTTL time.Duration
	metrics    *Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// NewAnalyticsService constructs a new AnalyticsService. sessions may be nil.
func NewAnalyticsService(repo repository.PageViewRepository, sessions SessionTracker, sessionTTL time.Duration, metrics *Metrics, logger *slog.Logger) AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}
	if sessionTTL <= 0 {
		sessionTTL = 30 * time.Minute
	}
	return &analyticsService{repo: repo, sessions: sessions, sessionTTL: sessionTTL, metrics: metrics, logger: logger, now: time.Now}
}

// NewSessionID returns a fresh sortable session identifier.
func NewSessionID() string {
	return ulid.Make().String()
}

func (s *analyticsService) Track(ctx context.Context, ev Event) (*model.PageView, error) {
	typ := model.EventType(strings.TrimSpace(ev.Type))
	switch typ {
	case "":
		typ = model.EventPageView
	case model.EventPageView, model.EventSessionEnd:
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", ErrInvalidInput, ev.Type)
	}

	p := strings.TrimSpace(ev.Path)
	if p == "" || !strings.HasPrefix(p, "/") {
		return nil, fmt.Errorf("%w: path must start with /", ErrInvalidInput)
	}
	if len(p) > maxPathLen {
		return nil, fmt.Errorf("%w: path longer than %d", ErrInvalidInput, maxPathLen)
	}
	if ev.DurationMS < 0 {
		return nil, fmt.Errorf("%w: duration_ms must not be negative", ErrInvalidInput)
	}

	sid := strings.TrimSpace(ev.SessionID)
	if len(sid) > maxSessionIDLen {
		return nil, fmt.Errorf("%w: session_id too long", ErrInvalidInput)
	}
	if sid == "" {
		sid = NewSessionID()
	}

	pv := &model.PageView{
		ID:         ulid.Make().String(),
		SessionID:  sid,
		Type:       typ,
		Path:       p,
		Referrer:   truncate(strings.TrimSpace(ev.Referrer), maxReferrerLen),
		UserAgent:  truncate(ev.UserAgent, maxUserAgentLen),
		DurationMS: ev.DurationMS,
		OccurredAt: s.now().UTC(),
	}

	if s.sessions != nil {
		if typ == model.EventSessionEnd {
			if err := s.sessions.EndSession(ctx, sid); err != nil {
				s.logger.Warn("analytics_session_end_failed", slog.String("error", err.Error()))
			}
		} else {
			created, err := s.sessions.TouchSession(ctx, sid, s.sessionTTL)
			if err != nil {
				s.logger.Warn("analytics_session_touch_failed", slog.String("error", err.Error()))
			}
			pv.NewSession = created
		}
	}

	if err := s.repo.Insert(ctx, pv); err != nil {
		return nil, fmt.Errorf("store page view: %w", err)
	}
	if typ == model.EventPageView {
		s.metrics.pageViewed()
	}
	return pv, nil
}

func (s *analyticsService) Summary(ctx context.Context, from, to time.Time) (*model.AnalyticsSummary, error) {
	if to.IsZero() {
		to = s.now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: from must be before to", ErrInvalidInput)
	}
	if to.Sub(from) > maxSummaryRange {
		return nil, fmt.Errorf("%w: range longer than a year", ErrInvalidInput)
	}
	return s.repo.Summary(ctx, from, to, topPathsLimit)
}

// truncate cuts s to at most n bytes without splitting a rune. Invalid
// bytes become U+FFFD first so Postgres accepts the text.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
