package cmd

import (
	"tarediiran-industries.com/transit-cancellations/internal/cancellations"
	"tarediiran-industries.com/transit-cancellations/internal/feed"
	"tarediiran-industries.com/transit-cancellations/internal/loader"
)

// Output shapes for json and yaml. They mirror the domain types with yaml tags
// so both encodings use the same field names.

type LineFileOutput struct {
	File  string `json:"file" yaml:"file"`
	Label string `json:"label" yaml:"label"`
}

type LinesOutput struct {
	Year  string           `json:"year" yaml:"year"`
	Lines []LineFileOutput `json:"lines" yaml:"lines"`
}

type CancellationOutput struct {
	Date        string `json:"date" yaml:"date"`
	Line        string `json:"line" yaml:"line"`
	TrainNumber string `json:"trainNumber" yaml:"trainNumber"`
	FromStop    string `json:"fromStop" yaml:"fromStop"`
	ToStop      string `json:"toStop" yaml:"toStop"`
	FromTime    string `json:"fromTime,omitempty" yaml:"fromTime,omitempty"`
	ToTime      string `json:"toTime,omitempty" yaml:"toTime,omitempty"`
	TimeOfDay   string `json:"timeOfDay" yaml:"timeOfDay"`
	SourceUrl   string `json:"sourceUrl" yaml:"sourceUrl"`
}

type FilterOutput struct {
	Text      string `json:"text,omitempty" yaml:"text,omitempty"`
	DateFrom  string `json:"dateFrom,omitempty" yaml:"dateFrom,omitempty"`
	DateTo    string `json:"dateTo,omitempty" yaml:"dateTo,omitempty"`
	TimeOfDay string `json:"timeOfDay" yaml:"timeOfDay"`
}

type CancellationsOutput struct {
	Year          string               `json:"year" yaml:"year"`
	Files         []string             `json:"files" yaml:"files"`
	Filter        FilterOutput         `json:"filter" yaml:"filter"`
	Total         int                  `json:"total" yaml:"total"`
	Cancellations []CancellationOutput `json:"cancellations" yaml:"cancellations"`
}

type CountOutput struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	Count int    `json:"count" yaml:"count"`
}

type StatsOutput struct {
	Year              string        `json:"year" yaml:"year"`
	Files             []string      `json:"files" yaml:"files"`
	Filter            FilterOutput  `json:"filter" yaml:"filter"`
	ActiveFilterCount int           `json:"activeFilterCount" yaml:"activeFilterCount"`
	Loaded            int           `json:"loaded" yaml:"loaded"`
	Matching          int           `json:"matching" yaml:"matching"`
	Daily             []CountOutput `json:"daily" yaml:"daily"`
	Lines             []CountOutput `json:"lines" yaml:"lines"`
	TimeOfDay         []CountOutput `json:"timeOfDay" yaml:"timeOfDay"`
}

func toLinesOutput(year string, lineFiles []cancellations.LineFile) LinesOutput {
	output := LinesOutput{Year: year, Lines: make([]LineFileOutput, 0, len(lineFiles))}
	for _, lineFile := range lineFiles {
		output.Lines = append(output.Lines, LineFileOutput{File: lineFile.File, Label: lineFile.Label})
	}
	return output
}

func toFilterOutput(filter cancellations.Filter) FilterOutput {
	return FilterOutput{
		Text:      filter.Text,
		DateFrom:  filter.DateFrom,
		DateTo:    filter.DateTo,
		TimeOfDay: string(filter.TimeOfDay),
	}
}

func toCancellationOutput(item feed.Cancellation) CancellationOutput {
	return CancellationOutput{
		Date:        item.Date,
		Line:        item.Line,
		TrainNumber: item.TrainNumber,
		FromStop:    item.FromStop,
		ToStop:      item.ToStop,
		FromTime:    item.FromTime,
		ToTime:      item.ToTime,
		TimeOfDay:   string(cancellations.ClassifyTimeOfDay(item.FromTime)),
		SourceUrl:   item.SourceUrl,
	}
}

func toCancellationsOutput(state loader.State, filter cancellations.Filter, view cancellations.View, limit int) CancellationsOutput {
	rows := view.Filtered
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	output := CancellationsOutput{
		Year:          state.SelectedYear,
		Files:         state.SelectedFiles,
		Filter:        toFilterOutput(filter),
		Total:         len(view.Filtered),
		Cancellations: make([]CancellationOutput, 0, len(rows)),
	}
	for _, item := range rows {
		output.Cancellations = append(output.Cancellations, toCancellationOutput(item))
	}
	return output
}

func toStatsOutput(state loader.State, filter cancellations.Filter, view cancellations.View) StatsOutput {
	output := StatsOutput{
		Year:              state.SelectedYear,
		Files:             state.SelectedFiles,
		Filter:            toFilterOutput(filter),
		ActiveFilterCount: view.ActiveFilterCount,
		Loaded:            len(state.Records),
		Matching:          len(view.Filtered),
		Daily:             make([]CountOutput, 0, len(view.DailyStats)),
		Lines:             make([]CountOutput, 0, len(view.LineStats)),
		TimeOfDay:         make([]CountOutput, 0, len(view.TimeOfDayStats)),
	}
	for _, day := range view.DailyStats {
		output.Daily = append(output.Daily, CountOutput{Key: day.Date, Count: day.Count})
	}
	for _, line := range view.LineStats {
		output.Lines = append(output.Lines, CountOutput{Key: line.Line, Count: line.Count})
	}
	for _, period := range view.TimeOfDayStats {
		output.TimeOfDay = append(output.TimeOfDay, CountOutput{Key: string(period.Category), Label: period.Period, Count: period.Count})
	}
	return output
}
