package services

import (
	"time"

	"github.com/linkak/linkak/internal/models"
	"github.com/linkak/linkak/internal/repository"
)

// recentClickLimit caps the raw event list returned with per-link stats.
const recentClickLimit = 10

// defaultSummaryDays is the account-summary window when the caller gives none.
const defaultSummaryDays = 30

// Summary is the frequency-table reduction of a set of click events.
// Missing values fall into the "unknown" bucket ("direct" for referrers);
// ClicksOverTime buckets by UTC day.
type Summary struct {
	TotalClicks    int64          `json:"total_clicks"`
	Devices        map[string]int `json:"devices"`
	Browsers       map[string]int `json:"browsers"`
	Countries      map[string]int `json:"countries"`
	Referrers      map[string]int `json:"referrers"`
	ClicksOverTime map[string]int `json:"clicks_over_time"`
}

// LinkStats is the full analytics view of one link.
type LinkStats struct {
	Link         *models.Link
	Summary      Summary
	RecentClicks []models.Click
}

// AccountSummary is the aggregated view of all of an account's links over a
// day range.
type AccountSummary struct {
	Days    int     `json:"days"`
	Links   int     `json:"links"`
	Summary Summary `json:"summary"`
}

// AnalyticsService produces read-side rollups over recorded clicks. All of
// its outputs are pure reductions of the stored event set: calling any
// method twice over the same data yields identical results.
type AnalyticsService struct {
	links     *LinkService
	clickRepo repository.ClickRepository
	now       func() time.Time
}

// NewAnalyticsService creates and returns a new AnalyticsService. Link
// lookups go through the LinkService so account scoping is enforced in one
// place.
func NewAnalyticsService(links *LinkService, clickRepo repository.ClickRepository) *AnalyticsService {
	return &AnalyticsService{
		links:     links,
		clickRepo: clickRepo,
		now:       time.Now,
	}
}

// Summarize reduces a click history to its frequency tables. It is a pure
// function over the given slice; the link's own counter is reported
// separately because it may lag the event rows.
func Summarize(clicks []models.Click) Summary {
	s := Summary{
		TotalClicks:    int64(len(clicks)),
		Devices:        make(map[string]int),
		Browsers:       make(map[string]int),
		Countries:      make(map[string]int),
		Referrers:      make(map[string]int),
		ClicksOverTime: make(map[string]int),
	}
	for _, c := range clicks {
		s.Devices[orUnknown(c.DeviceType)]++
		s.Browsers[orUnknown(c.Browser)]++
		s.Countries[orUnknown(c.Country)]++
		if c.Referrer != "" {
			s.Referrers[c.Referrer]++
		} else {
			s.Referrers["direct"]++
		}
		s.ClicksOverTime[c.Timestamp.UTC().Format("2006-01-02")]++
	}
	return s
}

// LinkStats builds the per-link analytics view for a link owned by the
// given account.
func (s *AnalyticsService) LinkStats(shortCode string, accountID uint) (*LinkStats, error) {
	// Someone else's link is indistinguishable from a missing one.
	link, err := s.links.GetLinkForAccount(shortCode, accountID)
	if err != nil {
		return nil, err
	}

	clicks, err := s.clickRepo.GetClicksByLinkID(link.ID)
	if err != nil {
		return nil, err
	}

	recent := clicks
	if len(recent) > recentClickLimit {
		recent = recent[:recentClickLimit]
	}

	return &LinkStats{
		Link:         link,
		Summary:      Summarize(clicks),
		RecentClicks: recent,
	}, nil
}

// AccountSummary aggregates clicks across all of the account's links over
// the trailing day range (default 30). The range is [now-days, now).
func (s *AnalyticsService) AccountSummary(accountID uint, days int) (*AccountSummary, error) {
	if days <= 0 {
		days = defaultSummaryDays
	}

	links, err := s.links.GetLinksByAccount(accountID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(links))
	for i, l := range links {
		ids[i] = l.ID
	}

	to := s.now()
	from := to.AddDate(0, 0, -days)
	clicks, err := s.clickRepo.GetClicksByLinkIDs(ids, from, to)
	if err != nil {
		return nil, err
	}

	return &AccountSummary{
		Days:    days,
		Links:   len(links),
		Summary: Summarize(clicks),
	}, nil
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
