package dashboard

import (
	"net/url"
	"strings"

	"tarediiran-industries.com/transit-cancellations/internal/cancellations"
)

// DashboardQuery is the decoded query string shared by the page and the API.
type DashboardQuery struct {
	Year string

	// LinesSet distinguishes "no line parameter" (keep the selection) from an
	// explicitly empty selection. Forms send an empty line= marker for that.
	Lines    []string
	LinesSet bool

	Text      string
	From      string
	To        string
	TimeOfDay string
	Preset    string
}

func ParseDashboardQuery(values url.Values) DashboardQuery {
	query := DashboardQuery{
		Year:      strings.TrimSpace(values.Get("year")),
		Text:      values.Get("q"),
		From:      strings.TrimSpace(values.Get("from")),
		To:        strings.TrimSpace(values.Get("to")),
		TimeOfDay: strings.TrimSpace(values.Get("tod")),
		Preset:    strings.TrimSpace(values.Get("preset")),
	}

	rawLines, linesSet := values["line"]
	query.LinesSet = linesSet
	for _, line := range rawLines {
		if line = strings.TrimSpace(line); line != "" {
			query.Lines = append(query.Lines, line)
		}
	}
	return query
}

// Filter resolves the query into an engine filter. A preset fills both date
// bounds; explicit from/to override it.
func (query DashboardQuery) Filter(presets cancellations.DatePresets) (cancellations.Filter, error) {
	filter := cancellations.DefaultFilter()

	if query.Preset != "" {
		dateRange, err := presets.Preset(query.Preset)
		if err != nil {
			return filter, err
		}
		filter = filter.WithRange(dateRange)
	}
	if query.From != "" {
		filter.DateFrom = query.From
	}
	if query.To != "" {
		filter.DateTo = query.To
	}

	timeOfDay, err := cancellations.ParseTimeOfDayFilter(query.TimeOfDay)
	if err != nil {
		return filter, err
	}
	filter.TimeOfDay = timeOfDay
	filter.Text = query.Text
	return filter, nil
}

// FilterValues encodes a filter back into query parameters, omitting
// unconstrained fields.
func FilterValues(filter cancellations.Filter) url.Values {
	values := url.Values{}
	if filter.Text != "" {
		values.Set("q", filter.Text)
	}
	if filter.DateFrom != "" {
		values.Set("from", filter.DateFrom)
	}
	if filter.DateTo != "" {
		values.Set("to", filter.DateTo)
	}
	if filter.TimeOfDay != "" && filter.TimeOfDay != cancellations.AllTimes {
		values.Set("tod", string(filter.TimeOfDay))
	}
	return values
}
