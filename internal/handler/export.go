package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/transsync/schedule-api/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"trip_id", "vehicle", "driver", "route",
	"departure", "arrival", "status", "note",
}

// ExportResponse is the JSON body of GET /schedule/export.
type ExportResponse struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Query       string               `json:"q,omitempty"`
	Status      string               `json:"status,omitempty"`
	Data        []domain.ScheduleRow `json:"data"`
	Errors      map[string]string    `json:"errors,omitempty"`
}

// GetExport handles GET /schedule/export.
// It returns every row matching ?q= and ?status=, unpaginated.
// Use ?format=csv for CSV or ?format=pdf for a printable trip sheet;
// default is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	f, err := bindFilter(r)
	var format *string
	if err == nil {
		err = runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format)
	}
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}
	kind := "json"
	if format != nil && *format != "" {
		kind = *format
	}
	if kind != "json" && kind != "csv" && kind != "pdf" {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("format must be one of json, csv, pdf"))
		return
	}

	exp, err := s.export.Export(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	switch kind {
	case "csv":
		writeDownload(w, "text/csv; charset=utf-8", exportFilename(exp, "csv"), buildCSV(exp.Rows))
	case "pdf":
		body, err := renderTripSheet(exp)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("handler.GetExport: %w", err), "")
			return
		}
		writeDownload(w, "application/pdf", exportFilename(exp, "pdf"), body)
	default:
		writeJSON(w, http.StatusOK, ExportResponse{
			GeneratedAt: exp.GeneratedAt,
			Query:       exp.Filter.Query,
			Status:      exp.Filter.Status,
			Data:        nonNilRows(exp.Rows),
			Errors:      exp.Errors,
		})
	}
}

// buildCSV encodes rows as CSV with the display labels and timestamps.
func buildCSV(rows []domain.ScheduleRow) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	w.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		w.Write(rowToCSVRecord(r))
	}
	w.Flush()
	return buf.Bytes()
}

func rowToCSVRecord(r domain.ScheduleRow) []string {
	return []string{
		strconv.FormatInt(r.Trip.ID, 10),
		r.VehicleLabel,
		r.DriverLabel,
		r.RouteLabel,
		r.DepartureDisplay,
		r.ArrivalDisplay,
		string(r.Trip.Status),
		r.Trip.Note,
	}
}

func writeDownload(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func exportFilename(exp domain.ScheduleExport, ext string) string {
	return "schedule-" + exp.GeneratedAt.Format("20060102-1504") + "." + ext
}

func nonNilRows(rows []domain.ScheduleRow) []domain.ScheduleRow {
	if rows == nil {
		return []domain.ScheduleRow{}
	}
	return rows
}
