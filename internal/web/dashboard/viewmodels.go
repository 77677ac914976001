package dashboard

import (
	"tarediiran-industries.com/transit-cancellations/internal/charts"
	"tarediiran-industries.com/transit-cancellations/internal/feed"
)

type DashboardPageVM struct {
	Years        []OptionVM
	SelectedYear string
	Lines        LinePickerVM
	Filter       FilterVM
	TimeOfDay    []OptionVM
	Presets      []PresetLinkVM

	ActiveFilterCount int
	HasActiveFilters  bool
	ResetHref         string
	ExportHref        string

	Loading bool
	Error   string

	Loaded   int
	Matching int

	Charts []ChartVM
	Rows   []feed.Cancellation

	UpdatedAt string
}

type OptionVM struct {
	Value    string
	Label    string
	Selected bool
}

type LineOptionVM struct {
	File    string
	Label   string
	Checked bool
}

type LinePickerVM struct {
	Options  []LineOptionVM
	AllHref  string
	NoneHref string
}

type FilterVM struct {
	Text string
	From string
	To   string
}

type PresetLinkVM struct {
	Label  string
	Href   string
	Active bool
}

// ChartVM is one rendered chart plus its counts as a text fallback.
type ChartVM struct {
	Title  string
	Href   string
	Counts []charts.Count
}
