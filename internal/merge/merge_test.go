package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vipul43/jobtrail/internal/models"
)

func pos(title string, submitted models.Date) models.PositionRecord {
	return models.PositionRecord{Position: title, SubmittedDate: submitted, Outcome: models.OutcomePending}
}

func manualPos(title string) models.PositionRecord {
	p := pos(title, "")
	p.Manual = true
	return p
}

func TestCompanies_AppendsNewPositionsAndKeepsManualLast(t *testing.T) {
	existing := []models.CompanyRecord{{
		Name:       "Acme",
		EmailCount: 3,
		Positions:  []models.PositionRecord{manualPos("Referral"), pos("Analyst", "2025-01-02")},
	}}
	incoming := []models.CompanyRecord{{
		Name:       "ACME",
		EmailCount: 2,
		Positions:  []models.PositionRecord{pos("analyst ", "2025-01-02"), pos("Quant", "2025-02-01")},
	}}

	merged, totals := Companies(existing, incoming)

	require.Len(t, merged, 1)
	assert.Equal(t, "Acme", merged[0].Name, "display casing of the stored record wins")
	assert.Equal(t, 3, merged[0].EmailCount)

	titles := make([]string, len(merged[0].Positions))
	for i, p := range merged[0].Positions {
		titles[i] = p.Position
	}
	assert.Equal(t, []string{"Analyst", "Quant", "Referral"}, titles)
	assert.Equal(t, models.Totals{Companies: 1, Applications: 3}, totals)
}

func TestCompanies_Idempotent(t *testing.T) {
	existing := []models.CompanyRecord{{Name: "Globex", Positions: []models.PositionRecord{pos("Dev", "2025-01-01")}}}
	batch := []models.CompanyRecord{
		{Name: "globex", EmailCount: 4, Positions: []models.PositionRecord{pos("Dev", "2025-01-01"), pos("Ops", "")}},
		{Name: "Initech", EmailCount: 1, Positions: []models.PositionRecord{pos("", "2025-03-01")}},
	}

	once, onceTotals := Companies(existing, batch)
	twice, twiceTotals := Companies(once, batch)

	assert.Equal(t, once, twice)
	assert.Equal(t, onceTotals, twiceTotals)
	assert.Equal(t, models.Totals{Companies: 2, Applications: 3}, twiceTotals)
}

func TestCompanies_ManualPreservedAcrossMerges(t *testing.T) {
	manualCompany := models.CompanyRecord{
		Name:      "Hooli",
		Manual:    true,
		Positions: []models.PositionRecord{manualPos("Product Manager")},
	}
	mixed := models.CompanyRecord{
		Name:      "Acme",
		Positions: []models.PositionRecord{manualPos("Coffee chat")},
	}
	state := []models.CompanyRecord{manualCompany, mixed}

	batches := [][]models.CompanyRecord{
		{{Name: "Acme", Positions: []models.PositionRecord{pos("Analyst", "2025-01-01")}}},
		{{Name: "Other", Positions: []models.PositionRecord{pos("X", "2025-01-05")}}},
		{{Name: "hooli", Positions: []models.PositionRecord{pos("SWE", "2025-02-01")}}},
	}
	for _, b := range batches {
		state, _ = Companies(state, b)
	}

	byName := make(map[string]models.CompanyRecord)
	for _, c := range state {
		byName[c.NameKey()] = c
	}

	hooli := byName["hooli"]
	assert.True(t, hooli.Manual, "manual flag never resets")
	assert.Contains(t, hooli.Positions, manualPos("Product Manager"))
	assert.Contains(t, byName["acme"].Positions, manualPos("Coffee chat"))
	assert.Len(t, state, 3)
}

func TestCompanies_IgnoresIncomingManualPositions(t *testing.T) {
	incoming := []models.CompanyRecord{{
		Name:      "Acme",
		Positions: []models.PositionRecord{manualPos("Injected"), pos("Real", "2025-01-01")},
	}}

	merged, _ := Companies(nil, incoming)
	require.Len(t, merged, 1)
	require.Len(t, merged[0].Positions, 1)
	assert.Equal(t, "Real", merged[0].Positions[0].Position)

	merged, _ = Companies(merged, incoming)
	assert.Len(t, merged[0].Positions, 1)
}

func TestCompanies_DoesNotMutateInputs(t *testing.T) {
	existing := []models.CompanyRecord{{Name: "Acme", Positions: []models.PositionRecord{pos("A", "")}}}
	incoming := []models.CompanyRecord{{Name: "Acme", Positions: []models.PositionRecord{pos("B", "")}}}

	_, _ = Companies(existing, incoming)

	assert.Len(t, existing[0].Positions, 1)
	assert.Len(t, incoming[0].Positions, 1)
}

func TestCompanies_EmptyInputs(t *testing.T) {
	merged, totals := Companies(nil, nil)
	assert.NotNil(t, merged)
	assert.Empty(t, merged)
	assert.Equal(t, models.Totals{}, totals)
}
