package cancellations

import (
	"fmt"
	"time"
)

// DateLayout is the lexically sortable date format used throughout the data set.
const DateLayout = "2006-01-02"

// DateRange bounds are inclusive; an empty bound means unconstrained.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type DatePresets struct {
	Last7     DateRange
	Last30    DateRange
	ThisMonth DateRange
	LastMonth DateRange
	ThisYear  DateRange
	All       DateRange
}

// Preset keys accepted by Preset.
const (
	PresetLast7     = "last7"
	PresetLast30    = "last30"
	PresetThisMonth = "thisMonth"
	PresetLastMonth = "lastMonth"
	PresetThisYear  = "thisYear"
	PresetAll       = "all"
)

var PresetNames = []string{PresetLast7, PresetLast30, PresetThisMonth, PresetLastMonth, PresetThisYear, PresetAll}

// FormatDate formats t on its own calendar. Callers pass local time so the
// date never shifts around midnight the way a UTC conversion would.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DatePresetsAt computes the quick-select ranges relative to now, in now's location.
func DatePresetsAt(now time.Time) DatePresets {
	year, month, _ := now.Date()
	location := now.Location()

	thisMonthStart := time.Date(year, month, 1, 0, 0, 0, 0, location)
	lastMonthStart := time.Date(year, month-1, 1, 0, 0, 0, 0, location)
	lastMonthEnd := time.Date(year, month, 0, 0, 0, 0, 0, location)
	thisYearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, location)

	today := FormatDate(now)
	return DatePresets{
		Last7:     DateRange{From: FormatDate(now.AddDate(0, 0, -7)), To: today},
		Last30:    DateRange{From: FormatDate(now.AddDate(0, 0, -30)), To: today},
		ThisMonth: DateRange{From: FormatDate(thisMonthStart), To: today},
		LastMonth: DateRange{From: FormatDate(lastMonthStart), To: FormatDate(lastMonthEnd)},
		ThisYear:  DateRange{From: FormatDate(thisYearStart), To: today},
		All:       DateRange{},
	}
}

func (presets DatePresets) Preset(name string) (DateRange, error) {
	switch name {
	case PresetLast7:
		return presets.Last7, nil
	case PresetLast30:
		return presets.Last30, nil
	case PresetThisMonth:
		return presets.ThisMonth, nil
	case PresetLastMonth:
		return presets.LastMonth, nil
	case PresetThisYear:
		return presets.ThisYear, nil
	case PresetAll:
		return presets.All, nil
	}
	return DateRange{}, fmt.Errorf("unknown date preset %q (want one of %v)", name, PresetNames)
}
