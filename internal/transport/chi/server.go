// Package chi exposes the report ingest and search API over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pawdex/pawdex/internal/domain"
	"github.com/pawdex/pawdex/internal/domain/geo"
	domrep "github.com/pawdex/pawdex/internal/domain/report"
	"github.com/pawdex/pawdex/internal/domain/search/query"
	healthuc "github.com/pawdex/pawdex/internal/usecase/health"
	reportuc "github.com/pawdex/pawdex/internal/usecase/report"
	searchuc "github.com/pawdex/pawdex/internal/usecase/search"
)

// maxUploadBytes caps the whole multipart request body. Dimension bounds
// are enforced later by the image pipeline; this only stops oversized uploads
// from being buffered.
const maxUploadBytes = 10 << 20

// Error envelope codes.
const (
	codeBadRequest            = "bad_request"
	codeValidationFailed      = "validation_failed"
	codeConflict              = "conflict"
	codeNotFound              = "not_found"
	codeFileError             = "file_error"
	codeDatabaseError         = "database_error"
	codeSimilarityUnavailable = "similarity_unavailable"
	codeInternalError         = "internal_error"
)

// ErrorResponse is the JSON error envelope. Stack carries the wrapped error
// chain and is populated only outside production.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, resp ErrorResponse) bool

// Server handles the HTTP API.
type Server struct {
	reports       ReportService
	searches      SearchService
	health        HealthService
	logger        *zap.Logger
	exposeStack   bool
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(reports ReportService, searches SearchService, health HealthService, logger *zap.Logger) *Server {
	s := &Server{
		reports:  reports,
		searches: searches,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrConflict, http.StatusConflict, codeConflict),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrFile, http.StatusInternalServerError, codeFileError),
		sentinelHandler(domain.ErrDatabase, http.StatusInternalServerError, codeDatabaseError),
		sentinelHandler(domain.ErrExternalService, http.StatusBadGateway, codeSimilarityUnavailable),
	}
	return s
}

// WithStackTraces enables the stack field in error envelopes (non-prod only).
func (s *Server) WithStackTraces(expose bool) *Server {
	s.exposeStack = expose
	return s
}

// Routes mounts the API endpoints on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/search", s.CreateReport)
	r.Get("/api/search", s.ListReports)
	r.Post("/api/search/reverse-search", s.ReverseSearch)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type createResponse struct {
	Search             searchuc.ReportView   `json:"search"`
	PossibleDuplicates []searchuc.ReportView `json:"possibleDuplicates"`
}

// CreateReport handles POST /api/search. The body is multipart form data:
// city, description, phone, type, gpsLocation (JSON) and an image file.
func (s *Server) CreateReport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid multipart body: "+err.Error())
		return
	}

	kind, err := domrep.ParseKind(r.FormValue("type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	location, err := parseGPSLocation(r.FormValue("gpsLocation"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "gpsLocation: "+err.Error())
		return
	}

	image, err := readImageFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	result, err := s.reports.Create(r.Context(), reportuc.CreateInput{
		Kind:        kind,
		City:        r.FormValue("city"),
		Description: r.FormValue("description"),
		Phone:       r.FormValue("phone"),
		Location:    location,
		Image:       image,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	duplicates := make([]searchuc.ReportView, 0, len(result.Duplicates))
	for _, d := range result.Duplicates {
		duplicates = append(duplicates, searchuc.NewReportView(d))
	}

	writeJSON(w, http.StatusCreated, createResponse{
		Search:             searchuc.NewReportView(result.Report),
		PossibleDuplicates: duplicates,
	})
}

// ListReports handles GET /api/search.
func (s *Server) ListReports(w http.ResponseWriter, r *http.Request) {
	q, err := listQueryFromParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	result, err := s.searches.List(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ReverseSearch handles POST /api/search/reverse-search. The body is
// multipart form data: city and an image file.
func (s *Server) ReverseSearch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid multipart body: "+err.Error())
		return
	}

	city := strings.TrimSpace(r.FormValue("city"))
	if city == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "city is required")
		return
	}

	image, err := readImageFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	result, err := s.searches.Reverse(r.Context(), city, image)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type healthResponse struct {
	Status healthuc.Status                 `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: report.Status,
		Checks: report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// listQueryFromParams maps GET /api/search query parameters onto a listing
// query. Range and sort validation beyond syntax is left to Normalize.
func listQueryFromParams(r *http.Request) (query.Query, error) {
	params := r.URL.Query()
	q := query.Query{
		City:      params.Get("city"),
		SortOrder: params.Get("sortOrder"),
	}

	if typ := params.Get("type"); typ != "" {
		kind, err := domrep.ParseKind(typ)
		if err != nil {
			return query.Query{}, err
		}
		q.Kind = kind
	}

	if from := params.Get("dateFrom"); from != "" {
		t, err := parseDate(from)
		if err != nil {
			return query.Query{}, fmt.Errorf("dateFrom: %w", err)
		}
		q.CreatedFrom = t
	}
	if to := params.Get("dateTo"); to != "" {
		t, err := parseDate(to)
		if err != nil {
			return query.Query{}, fmt.Errorf("dateTo: %w", err)
		}
		q.CreatedTo = t
	}

	var err error
	if q.Page, err = parseIntParam(params.Get("page"), "page"); err != nil {
		return query.Query{}, err
	}
	if q.Limit, err = parseIntParam(params.Get("limit"), "limit"); err != nil {
		return query.Query{}, err
	}

	if sortBy := params.Get("sortBy"); sortBy != "" && sortBy != query.SortByCreatedAt {
		return query.Query{}, fmt.Errorf("sortBy must be %q, got %q", query.SortByCreatedAt, sortBy)
	}

	return q, nil
}

func parseIntParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return n, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, errors.New("must be RFC3339 or YYYY-MM-DD")
	}
	return t, nil
}

func parseGPSLocation(raw string) (geo.Point, error) {
	if raw == "" {
		return geo.Point{}, errors.New("required")
	}
	var p geo.Point
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return geo.Point{}, errors.New("must be JSON {latitude, longitude}")
	}
	return geo.NewPoint(p.Latitude, p.Longitude)
}

func readImageFile(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, errors.New("image file is required")
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("image file is empty")
	}
	return data, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrConflict,
		domain.ErrNotFound,
		domain.ErrFile,
		domain.ErrDatabase,
		domain.ErrExternalService,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, resp ErrorResponse) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		resp.Code = code
		writeJSON(w, status, resp)
		return true
	}
}

// validationHandler exposes the full validation message. Validation errors
// are composed for clients; the generic safe message would drop the reason.
func validationHandler(w http.ResponseWriter, err error, resp ErrorResponse) bool {
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}
	resp.Code = codeValidationFailed
	resp.Message = err.Error()
	writeJSON(w, http.StatusBadRequest, resp)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	resp := ErrorResponse{Message: safeDomainMessage(err)}
	if s.exposeStack {
		resp.Stack = err.Error()
	}
	for _, h := range s.errorHandlers {
		if h(w, err, resp) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	resp.Code = codeInternalError
	resp.Message = "internal error"
	writeJSON(w, http.StatusInternalServerError, resp)
}
