package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/almk-dev/nadac/internal/config"
	apierrors "github.com/almk-dev/nadac/internal/errors"
	"github.com/almk-dev/nadac/internal/services"
	"github.com/almk-dev/nadac/internal/shared/testutil"
	"github.com/almk-dev/nadac/pkg/contracts/domain"
)

// MockReportService is a mock implementation of ReportServiceInterface
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Generate(ctx context.Context, req services.ReportRequest) (*domain.PriceChangeReport, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PriceChangeReport), args.Error(1)
}

var reportDefaults = config.ReportConfig{Year: 2023, Count: 10}

func sampleDoc(year, count int) *domain.PriceChangeReport {
	return &domain.PriceChangeReport{
		ID:    "4f1c2a9e-8d7b-4c1e-9a55-0b6f2d3e1a77",
		Year:  year,
		Count: count,
		Increases: []domain.PriceChangeLine{
			{Rank: 1, Direction: domain.DirectionIncrease, Amount: "2.50", Description: "DRUG A 10 MG TABLET"},
		},
		Decreases: []domain.PriceChangeLine{
			{Rank: 1, Direction: domain.DirectionDecrease, Amount: "2.75", Description: "DRUG B 20 MG TABLET"},
		},
		Text: fmt.Sprintf("Top %d NADAC per unit price increases of %d:\n$2.50: DRUG A 10 MG TABLET\n\n"+
			"Top %d NADAC per unit price decreases of %d:\n-$2.75: DRUG B 20 MG TABLET\n", count, year, count, year),
	}
}

func newReportRouter(t *testing.T, svc ReportServiceInterface) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	handler := NewReportHandler(svc, reportDefaults, 100, logger, apierrors.NewErrorHandler(logger, false))

	r := chi.NewRouter()
	r.Mount("/api/reports", handler.Routes())
	return r
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestReportHandler_Text(t *testing.T) {
	tests := []struct {
		name  string
		query string
		year  int
		count int
	}{
		{"defaults", "", 2023, 10},
		{"explicit", "?year=2020&count=5&format=text", 2020, 5},
		{"zero count", "?year=2021&count=0", 2021, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := sampleDoc(tt.year, tt.count)
			svc := new(MockReportService)
			svc.On("Generate", services.ReportRequest{Year: tt.year, Count: tt.count, Trigger: services.TriggerHTTP}).
				Return(doc, nil)

			rec := get(newReportRouter(t, svc), "/api/reports/price-changes"+tt.query)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Equal(t, doc.Text, rec.Body.String())
			assert.Empty(t, rec.Header().Get("Content-Disposition"))
			svc.AssertExpectations(t)
		})
	}
}

func TestReportHandler_JSON(t *testing.T) {
	doc := sampleDoc(2020, 3)
	svc := new(MockReportService)
	svc.On("Generate", services.ReportRequest{Year: 2020, Count: 3, Trigger: services.TriggerHTTP}).Return(doc, nil)

	rec := get(newReportRouter(t, svc), "/api/reports/price-changes?year=2020&count=3&format=json")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var got domain.PriceChangeReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, doc.Increases, got.Increases)
	assert.Equal(t, doc.Decreases, got.Decreases)
	assert.Equal(t, doc.Text, got.Text)
}

func TestReportHandler_CSV(t *testing.T) {
	doc := sampleDoc(2020, 3)
	svc := new(MockReportService)
	svc.On("Generate", mock.Anything).Return(doc, nil)

	rec := get(newReportRouter(t, svc), "/api/reports/price-changes?year=2020&count=3&format=CSV")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="nadac_top_3_2020.csv"`, rec.Header().Get("Content-Disposition"))

	body := strings.TrimPrefix(rec.Body.String(), "\ufeff")
	assert.Equal(t,
		"direction,rank,change,description\n"+
			"increases,1,2.50,DRUG A 10 MG TABLET\n"+
			"decreases,1,-2.75,DRUG B 20 MG TABLET\n",
		body)
}

func TestReportHandler_XLSX(t *testing.T) {
	doc := sampleDoc(2020, 3)
	svc := new(MockReportService)
	svc.On("Generate", mock.Anything).Return(doc, nil)

	rec := get(newReportRouter(t, svc), "/api/reports/price-changes?year=2020&count=3&format=xlsx")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypes[domain.ReportFormatExcel], rec.Header().Get("Content-Type"))
	assert.Equal(t, fmt.Sprint(rec.Body.Len()), rec.Header().Get("Content-Length"))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Increases", "Decreases", "Summary"}, f.GetSheetList())

	desc, err := f.GetCellValue("Decreases", "C2")
	require.NoError(t, err)
	assert.Equal(t, "DRUG B 20 MG TABLET", desc)
}

func TestReportHandler_InvalidQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		field string
	}{
		{"year not a number", "?year=twenty", "year"},
		{"year zero", "?year=0", "year"},
		{"negative count", "?count=-1", "count"},
		{"count above max", "?count=101", "count"},
		{"unknown format", "?format=pdf", "format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockReportService)
			rec := get(newReportRouter(t, svc), "/api/reports/price-changes"+tt.query)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var problem map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, apierrors.TypeValidation, problem["type"])
			details, ok := problem["details"].(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, tt.field, details["field"])

			svc.AssertNotCalled(t, "Generate", mock.Anything)
		})
	}
}

func TestReportHandler_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "malformed record",
			err:        apierrors.NewMalformedRecordError(12, domain.FieldNewPrice, "N/A", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   apierrors.TypeDataCorrupted,
		},
		{
			name:       "dataset unavailable",
			err:        apierrors.NewSourceUnavailableError("data/nadac.csv", nil),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   apierrors.TypeServiceDown,
		},
		{
			name:       "invalid parameter",
			err:        apierrors.NewInvalidParameterError("count", -1, "must not be negative"),
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "deadline",
			err:        fmt.Errorf("generate: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   apierrors.TypeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockReportService)
			svc.On("Generate", mock.Anything).Return(nil, tt.err)

			rec := get(newReportRouter(t, svc), "/api/reports/price-changes?year=2020")

			assert.Equal(t, tt.wantStatus, rec.Code)
			var problem map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, tt.wantType, problem["type"])
			assert.Equal(t, "/api/reports/price-changes", problem["instance"])
		})
	}
}
