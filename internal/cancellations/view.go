package cancellations

import (
	"cmp"
	"slices"
	"strings"

	"tarediiran-industries.com/transit-cancellations/internal/feed"
)

type Filter struct {
	Text      string    `json:"text"`
	DateFrom  string    `json:"dateFrom"`
	DateTo    string    `json:"dateTo"`
	TimeOfDay TimeOfDay `json:"timeOfDay"`
}

func DefaultFilter() Filter {
	return Filter{TimeOfDay: AllTimes}
}

// WithRange replaces both date bounds.
func (filter Filter) WithRange(dateRange DateRange) Filter {
	filter.DateFrom = dateRange.From
	filter.DateTo = dateRange.To
	return filter
}

// ActiveFilterCount counts the constraints that narrow the result.
func ActiveFilterCount(filter Filter) int {
	count := 0
	if strings.TrimSpace(filter.Text) != "" {
		count++
	}
	if filter.DateFrom != "" {
		count++
	}
	if filter.DateTo != "" {
		count++
	}
	if filter.timeOfDay() != AllTimes {
		count++
	}
	return count
}

// The zero value behaves like "all".
func (filter Filter) timeOfDay() TimeOfDay {
	if filter.TimeOfDay == "" {
		return AllTimes
	}
	return filter.TimeOfDay
}

type IndexedCancellation struct {
	Item       feed.Cancellation
	SearchText string
	TimeOfDay  TimeOfDay
}

type DailyStats struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type LineStats struct {
	Line  string `json:"line"`
	Count int    `json:"count"`
}

type TimeOfDayStats struct {
	Category TimeOfDay `json:"category"`
	Period   string    `json:"period"`
	Count    int       `json:"count"`
}

type View struct {
	Filtered          []feed.Cancellation `json:"filtered"`
	DailyStats        []DailyStats        `json:"dailyStats"`
	LineStats         []LineStats         `json:"lineStats"`
	TimeOfDayStats    []TimeOfDayStats    `json:"timeOfDayStats"`
	HasActiveFilters  bool                `json:"hasActiveFilters"`
	ActiveFilterCount int                 `json:"activeFilterCount"`
}

func buildSearchText(item feed.Cancellation) string {
	parts := make([]string, 0, 4)
	for _, part := range []string{item.Line, item.TrainNumber, item.FromStop, item.ToStop} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// Index precomputes per-record search text and time-of-day. Run it when the
// record set changes, not on every filter edit.
func Index(records []feed.Cancellation) []IndexedCancellation {
	indexed := make([]IndexedCancellation, len(records))
	for i, item := range records {
		indexed[i] = IndexedCancellation{
			Item:       item,
			SearchText: buildSearchText(item),
			TimeOfDay:  ClassifyTimeOfDay(item.FromTime),
		}
	}
	return indexed
}

// BuildView filters in a single pass and tallies the aggregates on the way.
// Filtered keeps input order.
func BuildView(indexed []IndexedCancellation, filter Filter) View {
	text := strings.ToLower(strings.TrimSpace(filter.Text))
	category := filter.timeOfDay()

	filtered := []feed.Cancellation{}
	dateCounts := map[string]int{}
	lineCounts := map[string]int{}
	timeOfDayCounts := map[TimeOfDay]int{}

	for _, entry := range indexed {
		item := entry.Item
		if filter.DateFrom != "" && item.Date < filter.DateFrom {
			continue
		}
		if filter.DateTo != "" && item.Date > filter.DateTo {
			continue
		}
		if text != "" && !strings.Contains(entry.SearchText, text) {
			continue
		}
		if category != AllTimes && entry.TimeOfDay != category {
			continue
		}

		filtered = append(filtered, item)
		dateCounts[item.Date]++
		lineCounts[item.Line]++
		timeOfDayCounts[entry.TimeOfDay]++
	}

	activeFilterCount := ActiveFilterCount(filter)
	return View{
		Filtered:          filtered,
		DailyStats:        toDailyStats(dateCounts),
		LineStats:         toLineStats(lineCounts),
		TimeOfDayStats:    toTimeOfDayStats(timeOfDayCounts),
		HasActiveFilters:  activeFilterCount > 0,
		ActiveFilterCount: activeFilterCount,
	}
}

func toDailyStats(counts map[string]int) []DailyStats {
	stats := make([]DailyStats, 0, len(counts))
	for date, count := range counts {
		stats = append(stats, DailyStats{Date: date, Count: count})
	}
	slices.SortFunc(stats, func(a, b DailyStats) int {
		return strings.Compare(a.Date, b.Date)
	})
	return stats
}

// Equal counts are ordered by line name.
func toLineStats(counts map[string]int) []LineStats {
	stats := make([]LineStats, 0, len(counts))
	for line, count := range counts {
		stats = append(stats, LineStats{Line: line, Count: count})
	}
	slices.SortFunc(stats, func(a, b LineStats) int {
		if byCount := cmp.Compare(b.Count, a.Count); byCount != 0 {
			return byCount
		}
		return strings.Compare(a.Line, b.Line)
	})
	return stats
}

func toTimeOfDayStats(counts map[TimeOfDay]int) []TimeOfDayStats {
	stats := make([]TimeOfDayStats, 0, len(TimeOfDayOrder))
	for _, category := range TimeOfDayOrder {
		if count := counts[category]; count > 0 {
			stats = append(stats, TimeOfDayStats{Category: category, Period: category.Label(), Count: count})
		}
	}
	return stats
}

// SortNewestFirst orders records by date, then departure time, both
// descending. A missing time sorts last within its date. The sort is stable.
func SortNewestFirst(records []feed.Cancellation) {
	slices.SortStableFunc(records, func(a, b feed.Cancellation) int {
		if a.Date == b.Date {
			return strings.Compare(b.FromTime, a.FromTime)
		}
		return strings.Compare(b.Date, a.Date)
	})
}
