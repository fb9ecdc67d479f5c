package handler_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transsync/schedule-api/internal/domain"
	"github.com/transsync/schedule-api/internal/handler"
)

func exportFixture(f domain.ScheduleFilter) domain.ScheduleExport {
	long := rowFixture()
	long.Trip.ID = 6
	long.RouteLabel = strings.Repeat("Bogotá - Villavicencio por la vía al Llano ", 3)
	return domain.ScheduleExport{
		GeneratedAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		Filter:      f,
		Rows:        []domain.ScheduleRow{rowFixture(), long},
	}
}

func exportMock(got *domain.ScheduleFilter) *mockExport {
	return &mockExport{export: func(_ context.Context, f domain.ScheduleFilter) (domain.ScheduleExport, error) {
		if got != nil {
			*got = f
		}
		return exportFixture(f), nil
	}}
}

func TestGetExport_JSONDefault(t *testing.T) {
	var got domain.ScheduleFilter
	rec := serve(newHTTPHandler(deps{export: exportMock(&got)}), authed(http.MethodGet, "/schedule/export?q=ana", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ana", got.Query)
	var resp handler.ExportResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, "ana", resp.Query)
}

func TestGetExport_CSV(t *testing.T) {
	rec := serve(newHTTPHandler(deps{export: exportMock(nil)}), authed(http.MethodGet, "/schedule/export?format=csv", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="schedule-20240501-0930.csv"`, rec.Header().Get("Content-Disposition"))

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "trip_id", records[0][0])
	assert.Equal(t, []string{"5", "TSX-123 (Mercedes Sprinter)", "Ana Gómez", "Ruta 7", "01/05/2024, 08:00", "", "PROGRAMADO", ""}, records[1])
}

func TestGetExport_PDF(t *testing.T) {
	rec := serve(newHTTPHandler(deps{export: exportMock(nil)}), authed(http.MethodGet, "/schedule/export?format=pdf&status=PROGRAMADO", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"), "body is not a PDF")
}

func TestGetExport_422_UnknownFormat(t *testing.T) {
	rec := serve(newHTTPHandler(deps{export: exportMock(nil)}), authed(http.MethodGet, "/schedule/export?format=xlsx", nil))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "format must be one of json, csv, pdf", decodeError(t, rec).Message)
}
