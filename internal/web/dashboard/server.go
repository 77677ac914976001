package dashboard

import (
	"context"
	"errors"
	"log"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"tarediiran-industries.com/transit-cancellations/internal/cancellations"
	"tarediiran-industries.com/transit-cancellations/internal/loader"
)

var errUnknownYear = errors.New("unknown year")

// Session is the loading pipeline the dashboard drives. The server holds a
// single session, so every client sees and changes the same selection.
type Session interface {
	Start()
	SelectYear(year string)
	SelectFiles(files []string)
	Snapshot() loader.State
	WaitIdle(ctx context.Context) (loader.State, error)
	WaitLineFiles(ctx context.Context) (loader.State, error)
}

type DashboardServer struct {
	session     Session
	server      *http.Server
	router      chi.Router
	renderer    *Renderer
	logger      zerolog.Logger
	now         func() time.Time
	loadTimeout time.Duration

	indexMu      sync.Mutex
	indexValid   bool
	indexVersion uint64
	indexed      []cancellations.IndexedCancellation
}

type ServerOption func(*DashboardServer)

func WithServerLogger(logger zerolog.Logger) ServerOption {
	return func(server *DashboardServer) { server.logger = logger }
}

func WithLoadTimeout(timeout time.Duration) ServerOption {
	return func(server *DashboardServer) { server.loadTimeout = timeout }
}

// WithClock overrides time.Now for date presets and feed timestamps.
func WithClock(now func() time.Time) ServerOption {
	return func(server *DashboardServer) { server.now = now }
}

func NewDashboardServer(listenAddr string, session Session, options ...ServerOption) (*DashboardServer, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	server := &DashboardServer{
		session:     session,
		renderer:    renderer,
		logger:      zerolog.Nop(),
		now:         time.Now,
		loadTimeout: DefaultLoadTimeout,
	}
	for _, option := range options {
		option(server)
	}

	requestLog := log.New(server.logger.With().Str("component", "http").Logger(), "", 0)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: requestLog, NoColor: true}))
	router.Use(middleware.Recoverer)

	router.Get("/", func(writer http.ResponseWriter, request *http.Request) {
		http.Redirect(writer, request, "/cancellations", http.StatusFound)
	})
	router.Get("/cancellations", server.handleDashboardPage)
	router.Get("/healthz", server.handleHealth)
	router.Route("/api", func(api chi.Router) {
		api.Get("/state", server.handleState)
		api.Post("/reload", server.handleReload)
		api.Get("/view", server.handleView)
		api.Get("/export/gtfs-rt", server.handleExport)
		api.Get("/charts/{chart}", server.handleChart)
	})

	server.router = router
	server.server = &http.Server{
		Addr:              listenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server, nil
}

func (server *DashboardServer) Handler() http.Handler {
	return server.router
}

// Serve blocks until ctx is done, then shuts the listener down gracefully.
func (server *DashboardServer) Serve(ctx context.Context) error {
	server.logger.Info().Msgf("listening on http://localhost%s", server.server.Addr)

	hostErr := make(chan error, 1)
	go func() {
		err := server.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			hostErr <- err
		}
		close(hostErr)
	}()

	select {
	case err := <-hostErr:
		return err
	case <-ctx.Done():
	}

	server.logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.server.Shutdown(shutdownCtx)
}

// load applies the year and line selection carried by the query and waits,
// bounded by the load timeout, for the pipeline to settle. On timeout the
// current, still loading, state is returned.
func (server *DashboardServer) load(ctx context.Context, query DashboardQuery) (loader.State, error) {
	ctx, cancel := context.WithTimeout(ctx, server.loadTimeout)
	defer cancel()

	state, _ := server.session.WaitLineFiles(ctx)

	yearChanged := false
	if query.Year != "" && query.Year != state.SelectedYear && state.Root == loader.Ready {
		if !slices.Contains(state.Years, query.Year) {
			return state, errUnknownYear
		}
		server.session.SelectYear(query.Year)
		yearChanged = true
	}

	// Line files in the query belong to the year the form was rendered for.
	if query.LinesSet && !yearChanged && state.Year == loader.Ready {
		server.session.SelectFiles(knownFiles(state.LineFiles, query.Lines))
	}

	state, err := server.session.WaitIdle(ctx)
	if err != nil {
		server.logger.Debug().Err(err).Msg("responding before loading settled")
	}
	return state, nil
}

// index returns the search index for the snapshot's records, rebuilding it
// only when the record set has changed.
func (server *DashboardServer) index(state loader.State) []cancellations.IndexedCancellation {
	server.indexMu.Lock()
	defer server.indexMu.Unlock()

	if server.indexValid && server.indexVersion == state.RecordsVersion {
		return server.indexed
	}

	indexed := cancellations.Index(state.Records)
	if !server.indexValid || state.RecordsVersion > server.indexVersion {
		server.indexed = indexed
		server.indexVersion = state.RecordsVersion
		server.indexValid = true
	}
	return indexed
}

func knownFiles(lineFiles []cancellations.LineFile, requested []string) []string {
	available := cancellations.FileNames(lineFiles)
	files := make([]string, 0, len(requested))
	for _, file := range requested {
		if slices.Contains(available, file) {
			files = append(files, file)
		}
	}
	return files
}
