package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cacheMocks "kvgportal/internal/cache/mocks"
	"kvgportal/internal/model"
	repoMocks "kvgportal/internal/repository/mocks"
)

func newAnalyticsSvc(repo *repoMocks.MockPageViewRepository, sessions SessionTracker) *analyticsService {
	svc := NewAnalyticsService(repo, sessions, 0, nil, quietLogger()).(*analyticsService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestAnalyticsService_Track_PageView(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockPageViewRepository)
	mSessions := new(cacheMocks.MockCache)
	svc := newAnalyticsSvc(mRepo, mSessions)

	mSessions.On("TouchSession", ctx, "sess-1", 30*time.Minute).Return(true, nil)
	mRepo.On("Insert", ctx, mock.MatchedBy(func(pv *model.PageView) bool {
		return pv.Type == model.EventPageView &&
			pv.Path == "/vergleich" &&
			pv.SessionID == "sess-1" &&
			pv.NewSession &&
			len(pv.ID) == 26 &&
			pv.OccurredAt.Equal(fixedNow)
	})).Return(nil)

	pv, err := svc.Track(ctx, Event{Path: " /vergleich ", SessionID: "sess-1", UserAgent: "Mozilla/5.0"})
	require.NoError(t, err)
	assert.Equal(t, "Mozilla/5.0", pv.UserAgent)
	mRepo.AssertExpectations(t)
	mSessions.AssertExpectations(t)
}

func TestAnalyticsService_Track_GeneratesSessionID(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockPageViewRepository)
	svc := newAnalyticsSvc(mRepo, nil)

	mRepo.On("Insert", ctx, mock.Anything).Return(nil)

	pv, err := svc.Track(ctx, Event{Path: "/"})
	require.NoError(t, err)
	assert.Len(t, pv.SessionID, 26)
	assert.False(t, pv.NewSession)
}

func TestAnalyticsService_Track_SessionEnd(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockPageViewRepository)
	mSessions := new(cacheMocks.MockCache)
	svc := newAnalyticsSvc(mRepo, mSessions)

	mSessions.On("EndSession", ctx, "sess-1").Return(errors.New("redis down"))
	mRepo.On("Insert", ctx, mock.MatchedBy(func(pv *model.PageView) bool {
		return pv.Type == model.EventSessionEnd && pv.DurationMS == 42000
	})).Return(nil)

	_, err := svc.Track(ctx, Event{Type: "session_end", Path: "/abschluss", SessionID: "sess-1", DurationMS: 42000})
	require.NoError(t, err)
	mSessions.AssertNotCalled(t, "TouchSession", mock.Anything, mock.Anything, mock.Anything)
	mRepo.AssertExpectations(t)
}

func TestAnalyticsService_Track_Truncates(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockPageViewRepository)
	svc := newAnalyticsSvc(mRepo, nil)
	mRepo.On("Insert", ctx, mock.Anything).Return(nil)

	ua := strings.Repeat("ä", 400) // 800 bytes
	pv, err := svc.Track(ctx, Event{Path: "/", UserAgent: ua, Referrer: strings.Repeat("r", 2000)})
	require.NoError(t, err)
	assert.Len(t, pv.UserAgent, 500)
	assert.True(t, utf8.ValidString(pv.UserAgent))
	assert.Len(t, pv.Referrer, 1024)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "Mozilla/5.0", 500, "Mozilla/5.0"},
		{"cut at rune boundary", "Zürich", 3, "Z\xc3\xbc"},
		{"never splits a rune", "Zürich", 2, "Z"},
		{"invalid byte replaced", "Mozilla\xff/5.0", 500, "Mozilla\uFFFD/5.0"},
		{"invalid byte early keeps the rest", "Mozilla\xff" + strings.Repeat("x", 600), 500, "Mozilla\uFFFD" + strings.Repeat("x", 490)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), tt.n)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestAnalyticsService_Track_Validation(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
	}{
		{"unknown type", Event{Type: "click", Path: "/"}},
		{"relative path", Event{Path: "vergleich"}},
		{"empty path", Event{}},
		{"long path", Event{Path: "/" + strings.Repeat("a", 512)}},
		{"negative duration", Event{Path: "/", DurationMS: -1}},
		{"long session id", Event{Path: "/", SessionID: strings.Repeat("s", 65)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockPageViewRepository)
			svc := newAnalyticsSvc(mRepo, nil)
			_, err := svc.Track(context.Background(), tt.ev)
			assert.ErrorIs(t, err, ErrInvalidInput)
			mRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		})
	}
}

func TestAnalyticsService_Summary(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to last 30 days", func(t *testing.T) {
		mRepo := new(repoMocks.MockPageViewRepository)
		svc := newAnalyticsSvc(mRepo, nil)
		want := &model.AnalyticsSummary{PageViews: 12}
		mRepo.On("Summary", ctx, fixedNow.AddDate(0, 0, -30), fixedNow, 10).Return(want, nil)

		got, err := svc.Summary(ctx, time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("inverted range", func(t *testing.T) {
		svc := newAnalyticsSvc(new(repoMocks.MockPageViewRepository), nil)
		_, err := svc.Summary(ctx, fixedNow, fixedNow.Add(-time.Hour))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("range too long", func(t *testing.T) {
		svc := newAnalyticsSvc(new(repoMocks.MockPageViewRepository), nil)
		_, err := svc.Summary(ctx, fixedNow.AddDate(-2, 0, 0), fixedNow)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
