package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"grantdesk/internal/models"
	"grantdesk/internal/services"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"12.5", "12.50"},
		{"999", "999.00"},
		{"1000", "1,000.00"},
		{"1234567.891", "1,234,567.89"},
		{"-45000", "-45,000.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Category", "Amount"},
		Rows:    [][]string{{"TRAVEL", "1.00"}, {"---"}, {"TOTAL", "10.00"}},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 7)
	width := lipgloss.Width(lines[0])
	for _, line := range lines {
		assert.Equal(t, width, lipgloss.Width(line), "every line has the same width: %q", line)
	}
	assert.Contains(t, out, "TRAVEL")
	assert.Contains(t, out, "10.00")
	assert.Empty(t, RenderTable(Table{}))
}

func TestRenderSummary(t *testing.T) {
	t.Run("with categories", func(t *testing.T) {
		out := RenderSummary(&services.FiscalYearSummary{
			FiscalYear:         "2024-25",
			TotalAllocated:     decimal.NewFromInt(150000),
			TotalUtilized:      decimal.NewFromInt(30000),
			TotalRemaining:     decimal.NewFromInt(120000),
			UtilizationPercent: 20,
			Categories: []services.CategorySummary{{
				Category:           models.BudgetCategoryEquipment,
				Allocated:          decimal.NewFromInt(150000),
				Utilized:           decimal.NewFromInt(30000),
				Remaining:          decimal.NewFromInt(120000),
				UtilizationPercent: 20,
			}},
		})

		assert.Contains(t, out, "FY 2024-25")
		assert.Contains(t, out, "EQUIPMENT")
		assert.Contains(t, out, "150,000.00")
		assert.Contains(t, out, "TOTAL")
	})

	t.Run("empty year", func(t *testing.T) {
		out := RenderSummary(&services.FiscalYearSummary{FiscalYear: "2030-31"})

		assert.Contains(t, out, "No budget entries")
	})
}

func TestRenderArchive(t *testing.T) {
	out := RenderArchive(&services.ArchiveResult{
		FiscalYear:          "2024-25",
		CarryForwardPercent: decimal.NewFromInt(50),
		RolledForwardTo:     "2025-26",
		TotalCarried:        decimal.NewFromInt(300),
		TotalReturned:       decimal.NewFromInt(300),
		Archives: []models.BudgetArchive{{
			ProjectID:       "0190d7d4-2222-7000-8000-000000000002",
			Category:        models.BudgetCategoryTravel,
			AllocatedAmount: decimal.NewFromInt(1000),
			UtilizedAmount:  decimal.NewFromInt(400),
			CarriedForward:  decimal.NewFromInt(300),
			ReturnedAmount:  decimal.NewFromInt(300),
		}},
	})

	assert.Contains(t, out, "0190d7d4 TRAVEL")
	assert.Contains(t, out, "Carry forward 50%")
	assert.Contains(t, out, "FY 2025-26")
}
