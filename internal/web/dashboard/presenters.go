package dashboard

import (
	"net/url"
	"slices"
	"time"

	"tarediiran-industries.com/transit-cancellations/internal/cancellations"
	"tarediiran-industries.com/transit-cancellations/internal/charts"
	"tarediiran-industries.com/transit-cancellations/internal/loader"
)

var presetLabels = []struct {
	name  string
	label string
}{
	{cancellations.PresetLast7, "Last 7 days"},
	{cancellations.PresetLast30, "Last 30 days"},
	{cancellations.PresetThisMonth, "This month"},
	{cancellations.PresetLastMonth, "Last month"},
	{cancellations.PresetThisYear, "This year"},
	{cancellations.PresetAll, "Clear dates"},
}

func BuildDashboardPageVM(state loader.State, query DashboardQuery, filter cancellations.Filter, view cancellations.View, now time.Time) DashboardPageVM {
	years := make([]OptionVM, 0, len(state.Years))
	// Newest year first in the picker.
	for _, year := range slices.Backward(state.Years) {
		years = append(years, OptionVM{Value: year, Label: year, Selected: year == state.SelectedYear})
	}

	timeOfDay := make([]OptionVM, 0, len(cancellations.TimeOfDayOrder)+1)
	for _, option := range cancellations.TimeOfDayOptions() {
		timeOfDay = append(timeOfDay, OptionVM{
			Value:    string(option),
			Label:    option.Label(),
			Selected: option == filter.TimeOfDay,
		})
	}

	return DashboardPageVM{
		Years:        years,
		SelectedYear: state.SelectedYear,
		Lines:        buildLinePicker(state, filter),
		Filter:       FilterVM{Text: filter.Text, From: filter.DateFrom, To: filter.DateTo},
		TimeOfDay:    timeOfDay,
		Presets:      buildPresetLinks(filter, cancellations.DatePresetsAt(now)),

		ActiveFilterCount: view.ActiveFilterCount,
		HasActiveFilters:  view.HasActiveFilters,
		ResetHref:         "/cancellations",
		ExportHref:        pageHref("/api/export/gtfs-rt", FilterValues(filter)),

		Loading: state.Loading(),
		Error:   state.ErrorMessage(),

		Loaded:   len(state.Records),
		Matching: len(view.Filtered),

		Charts: buildCharts(filter, view),
		Rows:   view.Filtered,

		UpdatedAt: now.Format("15:04:05"),
	}
}

// buildPresetLinks keeps the text and time-of-day filters and swaps only the
// date range.
func buildPresetLinks(filter cancellations.Filter, presets cancellations.DatePresets) []PresetLinkVM {
	links := make([]PresetLinkVM, 0, len(presetLabels))
	for _, preset := range presetLabels {
		dateRange, err := presets.Preset(preset.name)
		if err != nil {
			continue
		}
		values := FilterValues(filter.WithRange(dateRange))
		links = append(links, PresetLinkVM{
			Label:  preset.label,
			Href:   pageHref("/cancellations", values),
			Active: preset.name != cancellations.PresetAll && dateRange.From == filter.DateFrom && dateRange.To == filter.DateTo,
		})
	}
	return links
}

func pageHref(path string, values url.Values) string {
	if len(values) == 0 {
		return path
	}
	return path + "?" + values.Encode()
}

// buildLinePicker links "All" and "None" to the current year and filters with
// every file or the empty line= marker.
func buildLinePicker(state loader.State, filter cancellations.Filter) LinePickerVM {
	options := make([]LineOptionVM, 0, len(state.LineFiles))
	for _, lineFile := range state.LineFiles {
		options = append(options, LineOptionVM{
			File:    lineFile.File,
			Label:   lineFile.Label,
			Checked: slices.Contains(state.SelectedFiles, lineFile.File),
		})
	}

	selectionHref := func(files []string) string {
		values := FilterValues(filter)
		if state.SelectedYear != "" {
			values.Set("year", state.SelectedYear)
		}
		if len(files) > 0 {
			values["line"] = files
		}
		return pageHref("/cancellations", values)
	}

	return LinePickerVM{
		Options:  options,
		AllHref:  selectionHref(cancellations.FileNames(state.LineFiles)),
		NoneHref: selectionHref([]string{""}),
	}
}

func buildCharts(filter cancellations.Filter, view cancellations.View) []ChartVM {
	values := FilterValues(filter)
	chartVMs := make([]ChartVM, 0, len(charts.Kinds))
	for _, kind := range charts.Kinds {
		chartVMs = append(chartVMs, ChartVM{
			Title:  kind.Title(),
			Href:   pageHref("/api/charts/"+charts.FileName(kind, charts.SVG), values),
			Counts: charts.Counts(view, kind),
		})
	}
	return chartVMs
}
