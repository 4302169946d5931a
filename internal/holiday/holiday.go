// Package holiday names the public holidays shown on the calendar.
package holiday

import (
	"context"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"

	"github.com/example/exterminus/internal/metrics"
	"github.com/example/exterminus/internal/schedule"
)

const (
	observedSuffix = " (observed)"
	cacheSize      = 64
	cacheLayer     = "memory"
)

var federal = []*cal.Holiday{
	us.NewYear,
	us.MlkDay,
	us.PresidentsDay,
	us.MemorialDay,
	us.Juneteenth,
	us.IndependenceDay,
	us.LaborDay,
	us.ColumbusDay,
	us.VeteransDay,
	us.ThanksgivingDay,
	us.ChristmasDay,
}

var jurisdictions = map[string][]*cal.Holiday{
	"US": federal,
	"VA": append(append([]*cal.Holiday{}, federal...), leeJacksonDay, inaugurationDay, electionDay),
}

type monthKey struct {
	year  int
	month time.Month
}

// Provider computes the holidays of a jurisdiction month by month. Results are
// memoized and safe for concurrent use.
type Provider struct {
	holidays []*cal.Holiday
	cache    *lru.Cache[monthKey, map[string]string]
	metrics  *metrics.CacheCounter
}

// NewProvider returns a provider for jurisdiction, a two-letter US state code
// or "US" for federal holidays only. A blank jurisdiction means "US".
func NewProvider(jurisdiction string, counter *metrics.CacheCounter) (*Provider, error) {
	code := strings.ToUpper(strings.TrimSpace(jurisdiction))
	if code == "" {
		code = "US"
	}
	holidays, ok := jurisdictions[code]
	if !ok {
		return nil, fmt.Errorf("holiday: unsupported jurisdiction %q", jurisdiction)
	}
	cache, err := lru.New[monthKey, map[string]string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("holiday: create cache: %w", err)
	}
	return &Provider{holidays: holidays, cache: cache, metrics: counter}, nil
}

// Holidays returns the holiday names falling in month, keyed by YYYY-MM-DD.
// A weekend holiday also appears on its observed weekday with an
// " (observed)" suffix. The returned map belongs to the caller.
func (p *Provider) Holidays(ctx context.Context, year int, month time.Month) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("holiday: invalid month %d", month)
	}
	key := monthKey{year: year, month: month}
	days, ok := p.cache.Get(key)
	if ok {
		p.metrics.Hit(cacheLayer)
	} else {
		p.metrics.Miss(cacheLayer)
		days = p.compute(year, month)
		p.cache.Add(key, days)
	}

	out := make(map[string]string, len(days))
	for k, v := range days {
		out[k] = v
	}
	return out, nil
}

// Name returns the holiday on day, or an empty string.
func (p *Provider) Name(ctx context.Context, day time.Time) (string, error) {
	days, err := p.Holidays(ctx, day.Year(), day.Month())
	if err != nil {
		return "", err
	}
	return days[schedule.FormatDate(day)], nil
}

func (p *Provider) compute(year int, month time.Month) map[string]string {
	days := make(map[string]string)
	add := func(day time.Time, name string) {
		if day.IsZero() || day.Year() != year || day.Month() != month {
			return
		}
		key := schedule.FormatDate(day)
		if existing, ok := days[key]; ok && existing != name {
			name = existing + "; " + name
		}
		days[key] = name
	}

	// Observed dates can cross a year boundary, e.g. New Year's Day on a
	// Saturday is observed on December 31.
	for y := year - 1; y <= year+1; y++ {
		for _, h := range p.holidays {
			actual, observed := h.Calc(y)
			if actual.IsZero() {
				continue
			}
			add(actual, h.Name)
			if !schedule.Day(observed).Equal(schedule.Day(actual)) {
				add(observed, h.Name+observedSuffix)
			}
		}
	}
	return days
}
