package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/iwvelando/relocation-forecast/internal/catalog"
	"github.com/iwvelando/relocation-forecast/internal/config"
	"github.com/iwvelando/relocation-forecast/internal/projector"
	"github.com/iwvelando/relocation-forecast/internal/report"
	"github.com/iwvelando/relocation-forecast/internal/vtc"
	"github.com/iwvelando/relocation-forecast/pkg/constants"
	"github.com/iwvelando/relocation-forecast/pkg/output"
	"github.com/iwvelando/relocation-forecast/pkg/validation"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	conf          *config.Configuration
	profiles      *vtc.Profiles
	catalog       *catalog.Catalog
	reports       *report.Builder
}

// NewHandler constructs the HTTP handler that serves the classifier,
// projection, report and catalog API.
func NewHandler(logger *zap.Logger, conf *config.Configuration, maxUploadSize int64, version string) (http.Handler, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	profiles, err := conf.RuleProfiles()
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load country catalog: %w", err)
	}
	reports, err := report.NewBuilder(logger, profiles, cat)
	if err != nil {
		return nil, err
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		conf:          conf,
		profiles:      profiles,
		catalog:       cat,
		reports:       reports,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(h.instrument)

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", h.handleVersion)
		r.Get("/profiles", h.handleProfiles)
		r.Get("/countries", h.handleCountries)
		r.Get("/countries/{country}", h.handleCountry)
		r.Post("/classify", h.handleClassify)
		r.Post("/project", h.handleProject)
		r.Post("/report", h.handleReport)
	})
	r.Handle("/metrics", promhttp.Handler())

	return r, nil
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleProfiles(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.profiles.All())
}

func (h *handler) handleCountries(w http.ResponseWriter, r *http.Request) {
	rows, err := h.catalog.CompareCountries(h.catalog.Countries())
	if err != nil {
		h.respondErrorWithOp(w, r, err, "server.handleCountries")
		return
	}
	h.writeJSON(w, http.StatusOK, rows)
}

type countryResponse struct {
	Country  catalog.Country         `json:"country"`
	Expenses catalog.MonthlyExpenses `json:"expenses"`
}

func (h *handler) handleCountry(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCountry"
	name := chi.URLParam(r, "country")

	country, err := h.catalog.Country(name)
	if err != nil {
		h.respondStatus(w, r, http.StatusNotFound, err.Error(), op)
		return
	}
	expenses, err := h.catalog.MonthlyExpenses(country.Name, r.URL.Query().Get("city"))
	if err != nil {
		h.respondStatus(w, r, http.StatusNotFound, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, countryResponse{Country: country, Expenses: expenses})
}

type classifyRequest struct {
	Profile      string            `json:"profile"`
	AlreadySpent float64           `json:"alreadySpent"`
	Transactions []vtc.Transaction `json:"transactions"`
	// Currency is an ISO code used only for amounts in recommendations.
	Currency string `json:"currency,omitempty"`
}

func (h *handler) handleClassify(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleClassify"

	var req classifyRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	profileName := req.Profile
	if strings.TrimSpace(profileName) == "" {
		profileName = h.conf.Report.Profile
	}
	profile, err := h.profiles.Lookup(profileName)
	if err != nil {
		h.respondErrorWithOp(w, r, err, op)
		return
	}

	results, err := vtc.ClassifyFrom(req.Transactions, profile, req.AlreadySpent)
	if err != nil {
		h.respondErrorWithOp(w, r, err, op)
		return
	}
	for _, res := range results {
		classifiedTransactions.WithLabelValues(profile.Name, string(res.Status)).Inc()
	}

	h.writeJSON(w, http.StatusOK, output.Classification{
		Profile:         profile,
		Results:         results,
		Summary:         vtc.Summarize(results),
		Recommendations: vtc.Recommendations(results, profile, req.Currency),
	})
}

type projectRequest struct {
	projector.Request
	// Draws switches to seeded random sampling when positive.
	Draws int    `json:"draws,omitempty"`
	Seed  uint64 `json:"seed,omitempty"`
}

func (h *handler) handleProject(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleProject"

	var req projectRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	h.applyProjectionDefaults(&req.Request)

	if req.Draws > 0 {
		if req.Draws > h.conf.Projection.MaxScenarios {
			h.respondErrorWithOp(w, r, validation.NewValidationError("draws",
				"%d draws exceeds the limit of %d", req.Draws, h.conf.Projection.MaxScenarios), op)
			return
		}
		result, err := projector.Sample(r.Context(), req.Request, req.Draws, req.Seed)
		if err != nil {
			h.respondErrorWithOp(w, r, err, op)
			return
		}
		projectedScenarios.WithLabelValues("sample").Add(float64(result.Statistics.TotalScenarios))
		h.writeJSON(w, http.StatusOK, result)
		return
	}

	if err := h.checkScenarioLimit(req.Levers); err != nil {
		h.respondErrorWithOp(w, r, err, op)
		return
	}
	result, err := projector.Project(r.Context(), req.Request)
	if err != nil {
		h.respondErrorWithOp(w, r, err, op)
		return
	}
	projectedScenarios.WithLabelValues("enumerate").Add(float64(result.Statistics.TotalScenarios))
	h.writeJSON(w, http.StatusOK, result)
}

func (h *handler) applyProjectionDefaults(req *projector.Request) {
	if req.Levers.Empty() {
		req.Levers = h.conf.Levers
	}
	if req.Months == 0 {
		req.Months = h.conf.Projection.Months
	}
	if req.TargetFundMonths == 0 {
		req.TargetFundMonths = h.conf.Projection.TargetFundMonths
	}
	if req.TopN == 0 {
		req.TopN = h.conf.Projection.TopN
	}
}

func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleReport"

	var req report.Request
	if !h.decode(w, r, &req, op) {
		return
	}
	if strings.TrimSpace(req.Country) == "" {
		req.Country = h.conf.Report.Country
		if req.City == "" {
			req.City = h.conf.Report.City
		}
	}
	if req.Profile == "" {
		req.Profile = h.conf.Report.Profile
	}
	if req.Levers.Empty() {
		req.Levers = h.conf.Levers
	}
	if req.Months == 0 {
		req.Months = h.conf.Projection.Months
	}
	if req.TargetFundMonths == 0 {
		req.TargetFundMonths = h.conf.Projection.TargetFundMonths
	}
	if req.TopN == 0 {
		req.TopN = h.conf.Projection.TopN
	}

	if err := h.checkScenarioLimit(req.Levers); err != nil {
		h.respondErrorWithOp(w, r, err, op)
		return
	}

	rep, err := h.reports.Build(r.Context(), req)
	if err != nil {
		h.respondErrorWithOp(w, r, err, op)
		return
	}
	for _, res := range rep.Classification {
		classifiedTransactions.WithLabelValues(rep.Profile.Name, string(res.Status)).Inc()
	}
	projectedScenarios.WithLabelValues("enumerate").Add(float64(rep.Projection.Statistics.TotalScenarios))

	h.writeJSON(w, http.StatusOK, rep)
}

// checkScenarioLimit rejects lever sets whose cross product exceeds
// projection.maxScenarios.
func (h *handler) checkScenarioLimit(levers projector.LeverSet) error {
	if n := levers.Size(); n > h.conf.Projection.MaxScenarios {
		return validation.NewValidationError("levers",
			"%d combinations exceeds the limit of %d", n, h.conf.Projection.MaxScenarios)
	}
	return nil
}

// decode reads a size-limited JSON body into dst. It writes the error
// response itself and reports whether decoding succeeded.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondStatus(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.maxUploadSize), op)
			return false
		}
		h.respondStatus(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func statusFor(err error) int {
	switch {
	case validation.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, r *http.Request, err error, op string) {
	h.respondStatus(w, r, statusFor(err), err.Error(), op)
}

func (h *handler) respondStatus(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	level := h.logger.Warn
	if status >= http.StatusInternalServerError {
		level = h.logger.Error
	}
	level("request failed",
		zap.String("op", op),
		zap.String("requestId", r.Header.Get(RequestIDHeader)),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.String("op", "server.writeJSON"), zap.Error(err))
	}
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, logger *zap.Logger, cfg *Config, h http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           h,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("op", "server.Serve"),
			zap.String("address", cfg.Address),
			zap.Int64("maxUploadSize", cfg.UploadSizeBytes()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	logger.Info("server shutting down", zap.String("op", "server.Serve"))
	return srv.Shutdown(shutdownCtx)
}
