package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"kvgportal/internal/premium"
	"kvgportal/internal/pricing"
	"kvgportal/internal/region"
)

// QuoteCache stores pricing API answers keyed by request tuple.
type QuoteCache interface {
	GetQuote(ctx context.Context, req pricing.QuoteRequest) ([]pricing.Premium, time.Time, bool, error)
	SetQuote(ctx context.Context, req pricing.QuoteRequest, premiums []pricing.Premium, ttl time.Duration) error
}

// QuoteInput is the comparison form.
type QuoteInput struct {
	PLZ            string `json:"plz"`
	BirthDate      string `json:"birth_date"` // YYYY-MM-DD
	Franchise      int    `json:"franchise"`
	Accident       bool   `json:"accident"`
	Model          string `json:"model"`
	CurrentInsurer string `json:"current_insurer"`
}

// Offer is one premium with the yearly figures the comparison table shows.
type Offer struct {
	pricing.Premium
	AnnualPremium  float64 `json:"annual_premium"`
	SavingsPerYear float64 `json:"savings_per_year,omitempty"`
}

// Comparison is the sorted result of a quote.
type Comparison struct {
	Request  pricing.QuoteRequest `json:"request"`
	Region   region.Region        `json:"region"`
	AgeGroup premium.AgeGroup     `json:"age_group"`
	Premiums []Offer              `json:"premiums"`
	Cheapest *Offer               `json:"cheapest,omitempty"`
	Current  *Offer               `json:"current,omitempty"`
	CachedAt *time.Time           `json:"cached_at,omitempty"`
}

// QuoteService compares premiums for a comparison form.
type QuoteService interface {
	Compare(ctx context.Context, in QuoteInput) (*Comparison, error)
}

type quoteService struct {
	quoter  pricing.Quoter
	cache   QuoteCache
	ttl     time.Duration
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewQuoteService constructs a new QuoteService. cache may be nil.
func NewQuoteService(quoter pricing.Quoter, cache QuoteCache, ttl time.Duration, metrics *Metrics, logger *slog.Logger) QuoteService {
	if logger == nil {
		logger = slog.Default()
	}
	return &quoteService{quoter: quoter, cache: cache, ttl: ttl, metrics: metrics, logger: logger, now: time.Now}
}

func (s *quoteService) Compare(ctx context.Context, in QuoteInput) (*Comparison, error) {
	reg, err := region.Lookup(in.PLZ)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	birth, err := time.Parse(birthDateLayout, strings.TrimSpace(in.BirthDate))
	if err != nil {
		return nil, fmt.Errorf("%w: birth_date must be YYYY-MM-DD", ErrInvalidInput)
	}
	now := s.now()
	group, err := premium.GroupFor(birth, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := premium.ValidateFranchise(group, in.Franchise); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	m, err := premium.ParseModel(in.Model)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	req := pricing.QuoteRequest{
		Year:      premium.PremiumYear(now),
		Canton:    reg.Canton,
		Region:    reg.PremiumRegion,
		AgeGroup:  string(group),
		Franchise: in.Franchise,
		Accident:  in.Accident,
		Model:     string(m),
	}

	premiums, cachedAt, err := s.fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	out := &Comparison{
		Request:  req,
		Region:   reg,
		AgeGroup: group,
		Premiums: rank(premiums, in.CurrentInsurer),
		CachedAt: cachedAt,
	}
	if len(out.Premiums) > 0 {
		cheapest := out.Premiums[0]
		out.Cheapest = &cheapest
	}
	if cur := findInsurer(premiums, in.CurrentInsurer); cur != nil {
		o := Offer{Premium: *cur, AnnualPremium: round2(cur.MonthlyPremium * 12)}
		out.Current = &o
	}
	return out, nil
}

// fetch serves from cache when possible. Cache errors never fail the quote.
func (s *quoteService) fetch(ctx context.Context, req pricing.QuoteRequest) ([]pricing.Premium, *time.Time, error) {
	if s.cache != nil {
		premiums, storedAt, ok, err := s.cache.GetQuote(ctx, req)
		if err != nil {
			s.logger.Warn("quote_cache_read_failed", slog.String("error", err.Error()))
		} else if ok {
			s.metrics.quoteServed("cache")
			return premiums, &storedAt, nil
		}
	}

	premiums, err := s.quoter.Quote(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	s.metrics.quoteServed("api")

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.SetQuote(ctx, req, premiums, s.ttl); err != nil {
			s.logger.Warn("quote_cache_write_failed", slog.String("error", err.Error()))
		}
	}
	return premiums, nil, nil
}

// rank sorts offers ascending by monthly premium and fills the yearly figures.
func rank(premiums []pricing.Premium, currentInsurer string) []Offer {
	offers := make([]Offer, 0, len(premiums))
	for _, p := range premiums {
		offers = append(offers, Offer{Premium: p, AnnualPremium: round2(p.MonthlyPremium * 12)})
	}
	sort.SliceStable(offers, func(i, j int) bool {
		if offers[i].MonthlyPremium != offers[j].MonthlyPremium {
			return offers[i].MonthlyPremium < offers[j].MonthlyPremium
		}
		return offers[i].InsurerName < offers[j].InsurerName
	})

	if cur := findInsurer(premiums, currentInsurer); cur != nil {
		for i := range offers {
			if diff := round2((cur.MonthlyPremium - offers[i].MonthlyPremium) * 12); diff > 0 {
				offers[i].SavingsPerYear = diff
			}
		}
	}
	return offers
}

// findInsurer matches by insurer id or case-insensitive name.
func findInsurer(premiums []pricing.Premium, insurer string) *pricing.Premium {
	insurer = strings.TrimSpace(insurer)
	if insurer == "" {
		return nil
	}
	var best *pricing.Premium
	for i := range premiums {
		p := &premiums[i]
		if p.InsurerID != insurer && !strings.EqualFold(p.InsurerName, insurer) {
			continue
		}
		// An insurer may list several products; compare against its cheapest.
		if best == nil || p.MonthlyPremium < best.MonthlyPremium {
			best = p
		}
	}
	return best
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
