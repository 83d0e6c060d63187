package cli

import (
	"strings"

	"grantdesk/internal/services"
)

// RenderSummary renders a fiscal year summary as a title bar and a
// per-category table with a totals row.
func RenderSummary(s *services.FiscalYearSummary) string {
	var b strings.Builder
	b.WriteString(RenderTitle("BUDGET SUMMARY  FY " + s.FiscalYear))
	b.WriteString("\n\n")

	if len(s.Categories) == 0 {
		b.WriteString("  No budget entries in this fiscal year.\n")
		return b.String()
	}

	rows := make([][]string, 0, len(s.Categories)+2)
	for _, c := range s.Categories {
		rows = append(rows, []string{
			string(c.Category),
			FormatAmount(c.Allocated),
			FormatAmount(c.Utilized),
			FormatAmount(c.Remaining),
			FormatUtilization(c.UtilizationPercent),
		})
	}
	rows = append(rows, []string{"---"}, []string{
		"TOTAL",
		FormatAmount(s.TotalAllocated),
		FormatAmount(s.TotalUtilized),
		FormatAmount(s.TotalRemaining),
		FormatUtilization(s.UtilizationPercent),
	})

	b.WriteString(RenderTable(Table{
		Headers: []string{"Category", "Allocated", "Utilized", "Remaining", "Used"},
		Rows:    rows,
	}))
	return b.String()
}

// RenderArchive renders the outcome of a year-end close.
func RenderArchive(r *services.ArchiveResult) string {
	var b strings.Builder
	b.WriteString(RenderTitle("YEAR-END CLOSE  FY " + r.FiscalYear))
	b.WriteString("\n\n")

	rows := make([][]string, 0, len(r.Archives)+2)
	for _, a := range r.Archives {
		rows = append(rows, []string{
			shortID(a.ProjectID) + " " + string(a.Category),
			FormatAmount(a.AllocatedAmount),
			FormatAmount(a.UtilizedAmount),
			FormatAmount(a.CarriedForward),
			FormatAmount(a.ReturnedAmount),
		})
	}
	rows = append(rows, []string{"---"}, []string{
		"TOTAL", "", "",
		FormatAmount(r.TotalCarried),
		FormatAmount(r.TotalReturned),
	})

	b.WriteString(RenderTable(Table{
		Title:   "Carry forward " + r.CarryForwardPercent.String() + "%",
		Headers: []string{"Line", "Allocated", "Utilized", "Carried", "Returned"},
		Rows:    rows,
	}))
	if r.RolledForwardTo != "" {
		b.WriteString("\n  Carried amounts allocated in FY " + r.RolledForwardTo + "\n")
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
