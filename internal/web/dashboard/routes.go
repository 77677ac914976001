package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tarediiran-industries.com/transit-cancellations/internal/cancellations"
	"tarediiran-industries.com/transit-cancellations/internal/charts"
	"tarediiran-industries.com/transit-cancellations/internal/export/gtfsrt"
	"tarediiran-industries.com/transit-cancellations/internal/loader"
)

type StateResponse struct {
	loader.State
	IsLoading bool   `json:"loading"`
	Error     string `json:"error,omitempty"`
}

type ViewResponse struct {
	Year      string               `json:"year"`
	Files     []string             `json:"files"`
	Filter    cancellations.Filter `json:"filter"`
	Loaded    int                  `json:"loaded"`
	IsLoading bool                 `json:"loading"`
	Error     string               `json:"error,omitempty"`
	cancellations.View
}

func newStateResponse(state loader.State) StateResponse {
	return StateResponse{State: state, IsLoading: state.Loading(), Error: state.ErrorMessage()}
}

// resolve runs the shared request flow: decode the query, apply its selection
// and build the view. It writes the error response itself and reports whether
// the caller should continue.
func (server *DashboardServer) resolve(writer http.ResponseWriter, request *http.Request) (DashboardQuery, loader.State, cancellations.Filter, cancellations.View, bool) {
	query := ParseDashboardQuery(request.URL.Query())

	filter, err := query.Filter(cancellations.DatePresetsAt(server.now()))
	if err != nil {
		http.Error(writer, err.Error(), http.StatusBadRequest)
		return query, loader.State{}, filter, cancellations.View{}, false
	}

	state, err := server.load(request.Context(), query)
	if errors.Is(err, errUnknownYear) {
		http.Error(writer, "unknown year "+query.Year, http.StatusNotFound)
		return query, state, filter, cancellations.View{}, false
	}

	view := cancellations.BuildView(server.index(state), filter)
	return query, state, filter, view, true
}

func (server *DashboardServer) handleDashboardPage(writer http.ResponseWriter, request *http.Request) {
	query, state, filter, view, ok := server.resolve(writer, request)
	if !ok {
		return
	}

	viewmodel := BuildDashboardPageVM(state, query, filter, view, server.now())

	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := server.renderer.RenderPage(writer, viewmodel); err != nil {
		server.logger.Error().Err(err).Msg("failed to render dashboard")
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (server *DashboardServer) handleState(writer http.ResponseWriter, request *http.Request) {
	writeJSON(writer, http.StatusOK, newStateResponse(server.session.Snapshot()))
}

// handleReload re-reads the year list. The current year stays selected.
func (server *DashboardServer) handleReload(writer http.ResponseWriter, request *http.Request) {
	server.session.Start()
	writeJSON(writer, http.StatusAccepted, newStateResponse(server.session.Snapshot()))
}

func (server *DashboardServer) handleView(writer http.ResponseWriter, request *http.Request) {
	_, state, filter, view, ok := server.resolve(writer, request)
	if !ok {
		return
	}

	writeJSON(writer, http.StatusOK, ViewResponse{
		Year:      state.SelectedYear,
		Files:     state.SelectedFiles,
		Filter:    filter,
		Loaded:    len(state.Records),
		IsLoading: state.Loading(),
		Error:     state.ErrorMessage(),
		View:      view,
	})
}

func (server *DashboardServer) handleExport(writer http.ResponseWriter, request *http.Request) {
	format, err := gtfsrt.ParseFormat(request.URL.Query().Get("format"))
	if err != nil {
		http.Error(writer, err.Error(), http.StatusBadRequest)
		return
	}

	_, _, _, view, ok := server.resolve(writer, request)
	if !ok {
		return
	}

	payload, err := gtfsrt.Marshal(gtfsrt.BuildFeed(view.Filtered, server.now()), format)
	if err != nil {
		server.logger.Error().Err(err).Msg("failed to encode feed")
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", format.ContentType())
	writer.Write(payload)
}

// handleChart renders one aggregate of the filtered view, e.g.
// /api/charts/lines.svg. An empty aggregate answers 204.
func (server *DashboardServer) handleChart(writer http.ResponseWriter, request *http.Request) {
	kind, format, err := charts.ParseFileName(chi.URLParam(request, "chart"))
	if err != nil {
		http.Error(writer, err.Error(), http.StatusNotFound)
		return
	}

	_, _, _, view, ok := server.resolve(writer, request)
	if !ok {
		return
	}

	var image bytes.Buffer
	err = charts.Render(&image, view, kind, format)
	if errors.Is(err, charts.ErrNoData) {
		writer.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		server.logger.Error().Err(err).Str("chart", string(kind)).Msg("failed to render chart")
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", format.ContentType())
	writer.Header().Set("Cache-Control", "no-store")
	writer.Write(image.Bytes())
}

func (server *DashboardServer) handleHealth(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	writer.Write([]byte("ok\n"))
}

func writeJSON(writer http.ResponseWriter, status int, value any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	json.NewEncoder(writer).Encode(value)
}
