package feed

// Cancellation is one reported trip cancellation as published by the scraper.
type Cancellation struct {
	Date        string `json:"date"`
	Line        string `json:"line"`
	TrainNumber string `json:"trainNumber"`
	FromStop    string `json:"fromStop"`
	ToStop      string `json:"toStop"`
	FromTime    string `json:"fromTime,omitempty"`
	ToTime      string `json:"toTime,omitempty"`
	SourceUrl   string `json:"sourceUrl"`
}

type RootIndex struct {
	Years []string `json:"years"`
}

type YearIndex struct {
	Files []string `json:"files"`
}
