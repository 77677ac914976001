package cancellations

import (
	"fmt"
	"strconv"
	"strings"
)

type TimeOfDay string

const (
	Morning     TimeOfDay = "morning"
	LateMorning TimeOfDay = "late-morning"
	Afternoon   TimeOfDay = "afternoon"
	Evening     TimeOfDay = "evening"
	Night       TimeOfDay = "night"
	Unknown     TimeOfDay = "unknown"

	// AllTimes is only valid as a filter value.
	AllTimes TimeOfDay = "all"
)

// TimeOfDayOrder is the canonical chart order.
var TimeOfDayOrder = []TimeOfDay{Morning, LateMorning, Afternoon, Evening, Night, Unknown}

var timeOfDayLabels = map[TimeOfDay]string{
	Morning:     "Morning",
	LateMorning: "Late morning",
	Afternoon:   "Afternoon",
	Evening:     "Evening",
	Night:       "Night",
	Unknown:     "Unknown",
	AllTimes:    "All times",
}

func (category TimeOfDay) Label() string {
	if label, ok := timeOfDayLabels[category]; ok {
		return label
	}
	return string(category)
}

// TimeSpan renders a departure/arrival pair for display. Missing ends show
// as a dash.
func TimeSpan(from, to string) string {
	switch {
	case from == "" && to == "":
		return "–"
	case to == "":
		return from
	case from == "":
		return "– " + to
	}
	return from + " – " + to
}

// ClassifyTimeOfDay buckets an "HH:MM" string by its hour. Minutes are ignored.
//
//	05-08 morning, 09-11 late-morning, 12-16 afternoon, 17-19 evening, 20-04 night
func ClassifyTimeOfDay(hhmm string) TimeOfDay {
	hour, ok := parseHour(hhmm)
	if !ok {
		return Unknown
	}

	switch {
	case hour >= 5 && hour < 9:
		return Morning
	case hour >= 9 && hour < 12:
		return LateMorning
	case hour >= 12 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 20:
		return Evening
	case hour >= 20 && hour < 24, hour >= 0 && hour < 5:
		return Night
	default:
		return Unknown
	}
}

// parseHour reads an optionally signed run of leading digits from the
// segment before the first colon, after skipping leading whitespace.
func parseHour(hhmm string) (int, bool) {
	head, _, _ := strings.Cut(hhmm, ":")
	head = strings.TrimLeft(head, " \t\r\n")

	end := 0
	if end < len(head) && (head[end] == '+' || head[end] == '-') {
		end++
	}
	digits := end
	for end < len(head) && head[end] >= '0' && head[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}

	hour, err := strconv.Atoi(head[:end])
	if err != nil {
		return 0, false
	}
	return hour, true
}

// ParseTimeOfDayFilter accepts "all" or any category; empty means "all".
func ParseTimeOfDayFilter(value string) (TimeOfDay, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" || value == string(AllTimes) {
		return AllTimes, nil
	}
	for _, category := range TimeOfDayOrder {
		if value == string(category) {
			return category, nil
		}
	}
	return "", fmt.Errorf("unknown time of day %q", value)
}

// TimeOfDayOptions lists the filter choices, "all" first.
func TimeOfDayOptions() []TimeOfDay {
	options := make([]TimeOfDay, 0, len(TimeOfDayOrder)+1)
	options = append(options, AllTimes)
	return append(options, TimeOfDayOrder...)
}
