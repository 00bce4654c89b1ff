package gaps

import (
	"sort"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/angelmondragon/sellerpulse-backend/internal/snapshot"
	"github.com/angelmondragon/sellerpulse-backend/pkg/enums"
)

// Coverage summarises which dates each seller has data for.
type Coverage struct {
	SellerID               string      `json:"seller_id"`
	SellerName             string      `json:"seller_name,omitempty"`
	BusinessMinDate        *civil.Date `json:"biz_min_date"`
	BusinessMaxDate        *civil.Date `json:"biz_max_date"`
	BusinessPeriodCount    int         `json:"biz_period_count"`
	BusinessWeeklyPeriods  int         `json:"biz_weekly_periods"`
	BusinessMonthlyPeriods int         `json:"biz_monthly_periods"`
	AdsMinDate             *civil.Date `json:"ads_min_date"`
	AdsMaxDate             *civil.Date `json:"ads_max_date"`
	AdsDayCount            int         `json:"ads_day_count"`
}

// CoverageSummary reports per-seller date coverage, sorted by seller name.
func CoverageSummary(snap *snapshot.Snapshot) []Coverage {
	if snap == nil {
		return []Coverage{}
	}

	type tally struct {
		cov     Coverage
		periods map[civil.Date]struct{}
		weekly  map[civil.Date]struct{}
		monthly map[civil.Date]struct{}
		days    map[civil.Date]struct{}
	}
	bySeller := make(map[string]*tally)
	get := func(id, name string) *tally {
		key := strings.TrimSpace(id)
		if key == "" {
			key = strings.TrimSpace(name)
		}
		t, ok := bySeller[key]
		if !ok {
			t = &tally{
				cov:     Coverage{SellerID: key},
				periods: make(map[civil.Date]struct{}),
				weekly:  make(map[civil.Date]struct{}),
				monthly: make(map[civil.Date]struct{}),
				days:    make(map[civil.Date]struct{}),
			}
			bySeller[key] = t
		}
		if t.cov.SellerName == "" {
			t.cov.SellerName = strings.TrimSpace(name)
		}
		return t
	}

	for _, row := range snap.Business {
		if row.PeriodStart.IsZero() {
			continue
		}
		t := get(row.SellerID, row.SellerName)
		t.cov.BusinessMinDate = minDate(t.cov.BusinessMinDate, row.PeriodStart)
		t.cov.BusinessMaxDate = maxDate(t.cov.BusinessMaxDate, row.PeriodStart)
		t.periods[row.PeriodStart] = struct{}{}
		switch row.Granularity {
		case enums.GranularityWeekly:
			t.weekly[row.PeriodStart] = struct{}{}
		case enums.GranularityMonthly:
			t.monthly[row.PeriodStart] = struct{}{}
		}
	}
	for _, row := range snap.Ads {
		if row.RecordDate.IsZero() {
			continue
		}
		t := get(row.SellerID, row.SellerName)
		t.cov.AdsMinDate = minDate(t.cov.AdsMinDate, row.RecordDate)
		t.cov.AdsMaxDate = maxDate(t.cov.AdsMaxDate, row.RecordDate)
		t.days[row.RecordDate] = struct{}{}
	}

	out := make([]Coverage, 0, len(bySeller))
	for _, t := range bySeller {
		t.cov.BusinessPeriodCount = len(t.periods)
		t.cov.BusinessWeeklyPeriods = len(t.weekly)
		t.cov.BusinessMonthlyPeriods = len(t.monthly)
		t.cov.AdsDayCount = len(t.days)
		out = append(out, t.cov)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SellerName != out[j].SellerName {
			return out[i].SellerName < out[j].SellerName
		}
		return out[i].SellerID < out[j].SellerID
	})
	return out
}

func minDate(cur *civil.Date, d civil.Date) *civil.Date {
	if cur == nil || d.Before(*cur) {
		return &d
	}
	return cur
}

func maxDate(cur *civil.Date, d civil.Date) *civil.Date {
	if cur == nil || d.After(*cur) {
		return &d
	}
	return cur
}
