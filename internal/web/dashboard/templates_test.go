package dashboard

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tarediiran-industries.com/transit-cancellations/internal/charts"
	"tarediiran-industries.com/transit-cancellations/internal/feed"
)

func TestRenderTableFormatsRecords(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, renderer.Render(&out, "table.html", DashboardPageVM{
		Rows: []feed.Cancellation{
			{Date: "2025-01-03", Line: "S1", TrainNumber: "103", FromTime: "18:20", ToTime: "19:02"},
			{Date: "2025-01-02", Line: "S1", TrainNumber: "101"},
		},
	}))

	body := out.String()
	assert.Contains(t, body, "<td>18:20 – 19:02</td>")
	assert.Contains(t, body, "<td>Evening</td>")
	assert.Contains(t, body, "<td>–</td>")
	assert.Contains(t, body, "<td>Unknown</td>")
}

func TestRenderStatsShowsChartsWithData(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, renderer.Render(&out, "stats.html", DashboardPageVM{
		Loaded:   1,
		Matching: 1,
		Charts: []ChartVM{
			{Title: "Cancellations by line", Href: "/api/charts/lines.svg?q=S1&tod=night", Counts: []charts.Count{{Label: "S1", Count: 1}}},
			{Title: "Cancellations per day", Href: "/api/charts/daily.svg"},
		},
	}))

	body := out.String()
	assert.Contains(t, body, "1 of 1 cancellation ")
	assert.Contains(t, body, `<img src="/api/charts/lines.svg?q=S1&amp;tod=night" alt="Cancellations by line"`)
	assert.Contains(t, body, "<td>S1</td><td>1</td>")
	assert.Contains(t, body, "Cancellations per day: no data")
	assert.NotContains(t, body, "/api/charts/daily.svg")
}
