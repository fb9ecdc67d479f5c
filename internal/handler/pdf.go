package handler

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/phpdave11/gofpdf"

	"github.com/transsync/schedule-api/internal/domain"
)

// tripSheetColumns are the PDF table columns and their widths in mm.
// The widths add up to the printable width of landscape A4.
var tripSheetColumns = []struct {
	title string
	width float64
	value func(domain.ScheduleRow) string
}{
	{"#", 14, func(r domain.ScheduleRow) string { return strconv.FormatInt(r.Trip.ID, 10) }},
	{"Vehicle", 52, func(r domain.ScheduleRow) string { return r.VehicleLabel }},
	{"Driver", 45, func(r domain.ScheduleRow) string { return r.DriverLabel }},
	{"Route", 60, func(r domain.ScheduleRow) string { return r.RouteLabel }},
	{"Departure", 34, func(r domain.ScheduleRow) string { return r.DepartureDisplay }},
	{"Arrival", 34, func(r domain.ScheduleRow) string { return r.ArrivalDisplay }},
	{"Status", 38, func(r domain.ScheduleRow) string { return string(r.Trip.Status) }},
}

// renderTripSheet renders the export as a printable landscape table.
func renderTripSheet(exp domain.ScheduleExport) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("TransSync trip sheet", true)
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		for _, c := range tripSheetColumns {
			pdf.CellFormat(c.width, 8, tr(c.title), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "TransSync - Trip sheet")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, "Generated: "+exp.GeneratedAt.Format("02/01/2006 15:04"))
	pdf.Ln(6)
	if filter := describeFilter(exp.Filter); filter != "" {
		pdf.Cell(0, 6, tr("Filter: "+filter))
		pdf.Ln(6)
	}
	for _, collection := range slices.Sorted(maps.Keys(exp.Errors)) {
		pdf.SetTextColor(180, 0, 0)
		pdf.Cell(0, 6, tr(fmt.Sprintf("Warning: %s could not be loaded (%s)", collection, exp.Errors[collection])))
		pdf.Ln(6)
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(2)

	header()
	if len(exp.Rows) == 0 {
		pdf.CellFormat(0, 8, "No trips match the filter.", "1", 1, "C", false, 0, "")
	}
	for _, row := range exp.Rows {
		for _, c := range tripSheetColumns {
			text := fitText(pdf, tr(c.value(row)), c.width-2)
			pdf.CellFormat(c.width, 7, text, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render trip sheet: %w", err)
	}
	return buf.Bytes(), nil
}

// fitText shortens s with a trailing "..." until it fits width at the
// current font. s is already translated to the single-byte font encoding,
// so trimming bytes never splits a character.
func fitText(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}

func describeFilter(f domain.ScheduleFilter) string {
	switch {
	case f.Query != "" && f.Status != "" && f.Status != domain.StatusAll:
		return fmt.Sprintf("%q, status %s", f.Query, f.Status)
	case f.Query != "":
		return strconv.Quote(f.Query)
	case f.Status != "" && f.Status != domain.StatusAll:
		return "status " + f.Status
	}
	return ""
}
