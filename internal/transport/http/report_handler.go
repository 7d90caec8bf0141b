package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/almk-dev/nadac/internal/config"
	apierrors "github.com/almk-dev/nadac/internal/errors"
	"github.com/almk-dev/nadac/internal/exporter"
	customMiddleware "github.com/almk-dev/nadac/internal/middleware"
	"github.com/almk-dev/nadac/internal/services"
	"github.com/almk-dev/nadac/pkg/contracts/domain"
)

// Query formats accepted by GET /price-changes
var reportFormats = map[string]domain.ReportFormat{
	"text": domain.ReportFormatText,
	"json": domain.ReportFormatJSON,
	"csv":  domain.ReportFormatCSV,
	"xlsx": domain.ReportFormatExcel,
}

var formatNames = []string{"text", "json", "csv", "xlsx"}

var contentTypes = map[domain.ReportFormat]string{
	domain.ReportFormatText:  "text/plain; charset=utf-8",
	domain.ReportFormatCSV:   "text/csv; charset=utf-8",
	domain.ReportFormatExcel: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

var fileExtensions = map[domain.ReportFormat]string{
	domain.ReportFormatCSV:   "csv",
	domain.ReportFormatExcel: "xlsx",
}

// ReportHandler serves price change reports
type ReportHandler struct {
	service      ReportServiceInterface
	defaults     config.ReportConfig
	maxCount     int
	validator    *customMiddleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReportHandler creates a report handler. Omitted query parameters fall
// back to defaults; count may not exceed maxCount.
func NewReportHandler(service ReportServiceInterface, defaults config.ReportConfig, maxCount int, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		service:      service,
		defaults:     defaults,
		maxCount:     maxCount,
		validator:    customMiddleware.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "report_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the report routes
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/price-changes", h.GetPriceChanges)
	return r
}

// GetPriceChanges handles GET /api/reports/price-changes?year=&count=&format=
func (h *ReportHandler) GetPriceChanges(w http.ResponseWriter, r *http.Request) {
	year, ok := h.validator.ValidateInt(w, r, "year", 1, 9999, h.defaults.Year)
	if !ok {
		return
	}
	count, ok := h.validator.ValidateInt(w, r, "count", 0, h.maxCount, h.defaults.Count)
	if !ok {
		return
	}
	name, ok := h.validator.ValidateEnum(w, r, "format", formatNames, "text")
	if !ok {
		return
	}
	format := reportFormats[name]

	req := services.ReportRequest{Year: year, Count: count, Trigger: services.TriggerHTTP}
	if !h.validator.ValidateStruct(w, r, req) {
		return
	}

	doc, err := h.service.Generate(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "serving report",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("report_id", doc.ID),
		slog.String("format", string(format)),
	)

	if format == domain.ReportFormatJSON {
		render.JSON(w, r, doc)
		return
	}
	h.writeExport(w, r, format, doc)
}

// writeExport renders doc through its exporter. The body is buffered so an
// encoding failure can still be reported as a problem response.
func (h *ReportHandler) writeExport(w http.ResponseWriter, r *http.Request, format domain.ReportFormat, doc *domain.PriceChangeReport) {
	exp, err := exporter.ForFormat(format)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := exp.Write(&buf, doc); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewAppError(apierrors.ErrTypeExport, "encode report", err))
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if ext, ok := fileExtensions[format]; ok {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=\"nadac_top_%d_%d.%s\"", doc.Count, doc.Year, ext))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write report body", slog.String("error", err.Error()))
	}
}
