package loader

import (
	"slices"

	"tarediiran-industries.com/transit-cancellations/internal/cancellations"
	"tarediiran-industries.com/transit-cancellations/internal/feed"
)

type Status int

const (
	Idle Status = iota
	Loading
	Ready
	Failed
	Cancelled
)

var statusNames = [...]string{"idle", "loading", "ready", "failed", "cancelled"}

func (status Status) String() string {
	if int(status) < len(statusNames) {
		return statusNames[status]
	}
	return "invalid"
}

func (status Status) MarshalText() ([]byte, error) {
	return []byte(status.String()), nil
}

// Stage names, also used as metric labels.
const (
	StageRoot    = "root"
	StageYear    = "year"
	StageRecords = "records"
)

// State is the consolidated loader state. Slices are replaced, never mutated
// in place, so a shallow copy is a safe snapshot.
type State struct {
	Years         []string                 `json:"years"`
	SelectedYear  string                   `json:"selectedYear"`
	LineFiles     []cancellations.LineFile `json:"lineFiles"`
	SelectedFiles []string                 `json:"selectedFiles"`
	Records       []feed.Cancellation      `json:"-"`

	// RecordsVersion changes whenever Records is replaced.
	RecordsVersion uint64 `json:"recordsVersion"`

	Root Status `json:"root"`
	Year Status `json:"year"`
	Data Status `json:"data"`

	Err error `json:"-"`
}

func initialState() State {
	return State{
		Years:         []string{},
		LineFiles:     []cancellations.LineFile{},
		SelectedFiles: []string{},
		Records:       []feed.Cancellation{},
	}
}

func (state State) Loading() bool {
	return state.Root == Loading || state.Year == Loading || state.Data == Loading
}

func (state State) ErrorMessage() string {
	if state.Err == nil {
		return ""
	}
	return state.Err.Error()
}

func (state *State) beginRoot() {
	state.Root = Loading
	state.Err = nil
}

func (state *State) rootLoaded(years []string) {
	state.Years = cancellations.SortYears(years)
	state.Root = Ready
}

// beginYear drops everything that belongs to the previous year. An empty
// year leaves the year stage idle.
func (state *State) beginYear(year string) {
	state.SelectedYear = year
	state.LineFiles = []cancellations.LineFile{}
	state.SelectedFiles = []string{}
	state.replaceRecords(nil)
	state.Data = Idle

	if year == "" {
		state.Year = Idle
		return
	}
	state.Year = Loading
	state.Err = nil
}

func (state *State) yearLoaded(files []string) {
	state.LineFiles = cancellations.ToLineFiles(files)
	state.Year = Ready
}

// selectFiles stores a normalised selection and reports whether it changed.
func (state *State) selectFiles(files []string) bool {
	normalized := cancellations.NormalizeSelection(files)
	if slices.Equal(normalized, state.SelectedFiles) {
		return false
	}
	state.SelectedFiles = normalized
	return true
}

// beginRecords reports whether a fetch is needed. Without a year or a
// selection the record set is simply emptied.
func (state *State) beginRecords() bool {
	if state.SelectedYear == "" || len(state.SelectedFiles) == 0 {
		state.replaceRecords(nil)
		state.Data = Ready
		return false
	}
	state.Data = Loading
	state.Err = nil
	return true
}

func (state *State) recordsLoaded(records []feed.Cancellation) {
	state.replaceRecords(records)
	state.Data = Ready
}

func (state *State) fail(stage string, err error) {
	switch stage {
	case StageRoot:
		state.Root = Failed
	case StageYear:
		state.Year = Failed
	case StageRecords:
		state.replaceRecords(nil)
		state.Data = Failed
	}
	state.Err = err
}

func (state *State) replaceRecords(records []feed.Cancellation) {
	if len(records) == 0 && len(state.Records) == 0 {
		if state.Records == nil {
			state.Records = []feed.Cancellation{}
		}
		return
	}
	if records == nil {
		records = []feed.Cancellation{}
	}
	state.Records = records
	state.RecordsVersion++
}

func (state *State) cancel(stage string) {
	status := map[string]*Status{StageRoot: &state.Root, StageYear: &state.Year, StageRecords: &state.Data}[stage]
	if status != nil && *status == Loading {
		*status = Cancelled
	}
}

func (state *State) cancelInFlight() {
	for _, status := range []*Status{&state.Root, &state.Year, &state.Data} {
		if *status == Loading {
			*status = Cancelled
		}
	}
}
