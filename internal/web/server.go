// Package web serves the upload form and the merge endpoints.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/matsen/refmerge/internal/merge"
	"github.com/matsen/refmerge/internal/storage"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultMaxUploadBytes bounds a request body when Options leaves it unset.
const DefaultMaxUploadBytes = 200 << 20

// multipartMemory is how much of an upload is held in memory before
// mime/multipart spills to temporary files.
const multipartMemory = 32 << 20

// Options configures a Server.
type Options struct {
	Merger         *merge.Merger
	Store          storage.RunStore // optional
	Logger         logrus.FieldLogger
	MaxUploadBytes int64
	RateLimit      float64 // merges per second, 0 disables limiting
	RateBurst      int
	SupportURL     string
}

// Server handles the merge form and API.
type Server struct {
	merger     *merge.Merger
	store      storage.RunStore
	log        logrus.FieldLogger
	maxUpload  int64
	limiter    *rate.Limiter
	supportURL string
}

// New creates a Server. A nil Merger uses merge.DefaultOptions.
func New(opts Options) *Server {
	s := &Server{
		merger:     opts.Merger,
		store:      opts.Store,
		log:        opts.Logger,
		maxUpload:  opts.MaxUploadBytes,
		supportURL: opts.SupportURL,
	}
	if s.merger == nil {
		s.merger = merge.New(merge.DefaultOptions())
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.maxUpload <= 0 {
		s.maxUpload = DefaultMaxUploadBytes
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return s
}

// Handler returns the routed, logged and compressed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("POST /merge", s.limit(http.HandlerFunc(s.handleMerge)))
	mux.Handle("POST /merge/{format}", s.limit(http.HandlerFunc(s.handleDownload)))
	mux.Handle("POST /api/merge", s.limit(http.HandlerFunc(s.handleAPIMerge)))

	return s.logRequests(gzhttp.GzipHandler(mux))
}

// HTTPServer returns an http.Server for addr serving Handler.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// record stores a run summary when a store is configured. Failures are
// logged and never reach the client.
func (s *Server) record(ctx context.Context, source string, files int, res merge.Result) {
	if s.store == nil {
		return
	}
	run := storage.NewRun(source, s.merger.Options().Mode, files, res)
	if err := s.store.RecordRun(ctx, run); err != nil {
		s.log.WithError(err).WithField("run_id", run.ID).Warn("recording merge run failed")
	}
}

// logMerge writes one structured line per merge.
func (s *Server) logMerge(source string, files int, res merge.Result) {
	s.log.WithFields(logrus.Fields{
		"source":     source,
		"files":      files,
		"ris_unique": res.Stats.RIS.Unique,
		"enw_unique": res.Stats.ENW.Unique,
		"duplicates": res.Stats.Duplicates(),
		"skipped":    res.Stats.Skipped,
		"failed":     res.Stats.Failed,
	}).Info("merged upload")
}
