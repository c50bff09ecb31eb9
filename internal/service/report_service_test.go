package service

import (
	"testing"

	"go-envoi-inventory/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyReportEmptyYear(t *testing.T) {
	// A year with zero activity and no exchange rate: 12 zero rows, no error.
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")

	report, err := s.reports.MonthlyReport(envoi.ID, 2024)
	require.NoError(t, err)
	require.Len(t, report.Mois, 12)
	for i, row := range report.Mois {
		assert.Equal(t, i+1, row.Mois)
		assert.Equal(t, 0, row.AchatsQuantite)
		assert.Equal(t, 0, row.VentesQuantite)
		assert.Equal(t, 0, row.PretsQuantite)
		assert.Equal(t, 0, row.RetoursQuantite)
		assert.True(t, row.AchatsTotalCfa.IsZero())
		assert.True(t, row.VentesTotalCfa.IsZero())
		assert.Nil(t, row.MargeBruteCfa, "margin needs a rate")
	}
	assert.Equal(t, 0, report.Totaux.AchatsQuantite)
}

func TestMonthlyReportBuckets(t *testing.T) {
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	produit := s.newProduit(t, envoi.ID, "Montre", dec("10.00"), dec("15000"))

	// Purchases in January, a sale in February.
	_, err := s.stocks.CreateTransaction(&model.Transaction{
		ProduitID:        produit.ID,
		Type:             model.TxAchat,
		Quantite:         10,
		PrixUnitaireEuro: dec("10.00"),
		DateTransaction:  date(2025, 1, 15),
	}, "tester")
	require.NoError(t, err)
	_, err = s.stocks.CreateTransaction(&model.Transaction{
		ProduitID:       produit.ID,
		Type:            model.TxVente,
		Quantite:        4,
		PrixUnitaireCfa: dec("15000"),
		DateTransaction: date(2025, 2, 10),
	}, "tester")
	require.NoError(t, err)

	// A debt created in March, settled in April.
	dette, err := s.stocks.CreateDette(&model.Dette{
		ProduitID:      produit.ID,
		Client:         "X",
		QuantitePretee: 2,
		DatePret:       date(2025, 3, 5),
	}, "tester")
	require.NoError(t, err)
	_, err = s.stocks.SettleDette(dette.ID, date(2025, 4, 20), "tester")
	require.NoError(t, err)

	report, err := s.reports.MonthlyReport(envoi.ID, 2025)
	require.NoError(t, err)

	jan, feb, mar, apr := report.Mois[0], report.Mois[1], report.Mois[2], report.Mois[3]
	assert.Equal(t, 10, jan.AchatsQuantite)
	assert.True(t, jan.AchatsTotalEur.Equal(*dec("100.00")))

	assert.Equal(t, 4, feb.VentesQuantite)
	assert.True(t, feb.VentesTotalCfa.Equal(*dec("60000")))

	assert.Equal(t, 2, mar.PretsQuantite)
	assert.Equal(t, 0, mar.RetoursQuantite)

	// Settlement month counts the debt as a realized sale.
	assert.Equal(t, 2, apr.RetoursQuantite)
	assert.Equal(t, 2, apr.VentesQuantite)
	assert.True(t, apr.VentesTotalCfa.Equal(*dec("30000")))

	totals := report.Totaux
	assert.Equal(t, 10, totals.AchatsQuantite)
	assert.Equal(t, 6, totals.VentesQuantite)
	assert.True(t, totals.VentesTotalCfa.Equal(*dec("90000")))
}

func TestMonthlyReportMargin(t *testing.T) {
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	_, err := s.taux.Create(&model.TauxChange{
		EnvoiID:         envoi.ID,
		TauxEuroCfa:     *dec("500"),
		DateApplication: date(2025, 1, 1),
	}, "tester")
	require.NoError(t, err)

	// PAU 10 EUR -> 5000 CFA at the current rate.
	produit := s.newProduit(t, envoi.ID, "Montre", dec("10.00"), dec("15000"))
	s.achat(t, produit.ID, 10)
	_, err = s.stocks.CreateTransaction(&model.Transaction{
		ProduitID:       produit.ID,
		Type:            model.TxVente,
		Quantite:        3,
		PrixUnitaireCfa: dec("15000"),
		DateTransaction: date(2025, 5, 1),
	}, "tester")
	require.NoError(t, err)

	report, err := s.reports.MonthlyReport(envoi.ID, 2025)
	require.NoError(t, err)

	// Margin for May: 3x15000 sold minus cost basis 3x5000.
	may := report.Mois[4]
	require.NotNil(t, may.MargeBruteCfa)
	assert.True(t, may.MargeBruteCfa.Equal(*dec("30000")), "got %s", may.MargeBruteCfa)
}

func TestStockReportValues(t *testing.T) {
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	_, err := s.taux.Create(&model.TauxChange{
		EnvoiID:         envoi.ID,
		TauxEuroCfa:     *dec("500"),
		DateApplication: date(2025, 1, 1),
	}, "tester")
	require.NoError(t, err)

	produit := s.newProduit(t, envoi.ID, "Montre", dec("10.00"), dec("15000"))
	s.achat(t, produit.ID, 10)
	s.vente(t, produit.ID, 4)
	dette, err := s.stocks.CreateDette(&model.Dette{
		ProduitID:      produit.ID,
		Client:         "X",
		QuantitePretee: 3,
	}, "tester")
	require.NoError(t, err)

	report, err := s.reports.StockReport(envoi.ID, 5)
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	row := report.Rows[0]

	assert.True(t, row.PauEuro.Equal(*dec("10.00")))
	assert.True(t, row.PauCfa.Equal(*dec("5000.00")), "got %s", row.PauCfa)
	assert.True(t, row.PvuCfa.Equal(*dec("15000")))
	assert.True(t, row.PvuEuro.Equal(*dec("30")), "got %s", row.PvuEuro)

	assert.Equal(t, 10, row.QuantiteAchetee)
	assert.True(t, row.ValeurAcheteeEur.Equal(*dec("100.00")))
	assert.True(t, row.ValeurAcheteeCfa.Equal(*dec("50000.00")))

	assert.Equal(t, 4, row.QuantiteVendue)
	assert.True(t, row.ValeurVendueCfa.Equal(*dec("60000")))

	assert.Equal(t, 3, row.StockRestant)
	assert.True(t, row.ValeurStockCfa.Equal(*dec("15000.00")))

	assert.Equal(t, 3, row.QuantitePretee)
	assert.True(t, row.ValeurDettesCfa.Equal(*dec("45000")))
	assert.True(t, row.IsLowStock)

	// Totals mirror the single row.
	assert.Equal(t, 10, report.Totals.QuantiteAchetee)
	assert.True(t, report.Totals.ValeurVendueCfa.Equal(*dec("60000")))

	// Settling the debt moves its quantity and value from dettes to vendu.
	_, err = s.stocks.SettleDette(dette.ID, date(2025, 6, 1), "tester")
	require.NoError(t, err)
	report, err = s.reports.StockReport(envoi.ID, 5)
	require.NoError(t, err)
	row = report.Rows[0]
	assert.Equal(t, 7, row.QuantiteVendue)
	assert.Equal(t, 0, row.QuantitePretee)
	assert.True(t, row.ValeurVendueCfa.Equal(*dec("105000")))
	assert.Nil(t, row.ValeurDettesCfa)
}

func TestStockReportNoRatePropagatesNull(t *testing.T) {
	// Without a rate, cross-currency fields are null but same-currency sums compute.
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	produit := s.newProduit(t, envoi.ID, "Montre", dec("10.00"), dec("15000"))
	s.achat(t, produit.ID, 10)
	s.vente(t, produit.ID, 2)

	report, err := s.reports.StockReport(envoi.ID, 5)
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	row := report.Rows[0]

	assert.Nil(t, report.TauxEuroCfa)
	assert.Nil(t, row.PauCfa)
	assert.Nil(t, row.PvuEuro)
	assert.Nil(t, row.ValeurAcheteeCfa)
	assert.Nil(t, row.ValeurStockCfa)
	assert.True(t, row.ValeurAcheteeEur.Equal(*dec("100.00")))
	assert.True(t, row.ValeurVendueCfa.Equal(*dec("30000")))
}

func TestHistoricalPricesSurviveRateChange(t *testing.T) {
	// GIVEN a sale recorded under an old rate
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	_, err := s.taux.Create(&model.TauxChange{
		EnvoiID:         envoi.ID,
		TauxEuroCfa:     *dec("500"),
		DateApplication: date(2025, 1, 1),
	}, "tester")
	require.NoError(t, err)

	produit := s.newProduit(t, envoi.ID, "Montre", dec("10.00"), nil)
	s.achat(t, produit.ID, 10)
	tx, err := s.stocks.CreateTransaction(&model.Transaction{
		ProduitID:        produit.ID,
		Type:             model.TxVente,
		Quantite:         2,
		PrixUnitaireEuro: dec("20.00"),
	}, "tester")
	require.NoError(t, err)
	require.True(t, tx.PrixUnitaireCfa.Equal(*dec("10000.00")))

	// WHEN the rate changes
	_, err = s.taux.Create(&model.TauxChange{
		EnvoiID:         envoi.ID,
		TauxEuroCfa:     *dec("700"),
		DateApplication: date(2025, 6, 1),
	}, "tester")
	require.NoError(t, err)

	// THEN sold value still uses the recorded price, while stock on hand
	// is valued at the new rate.
	report, err := s.reports.StockReport(envoi.ID, 5)
	require.NoError(t, err)
	row := report.Rows[0]
	assert.True(t, row.ValeurVendueCfa.Equal(*dec("20000.00")), "got %s", row.ValeurVendueCfa)
	assert.True(t, row.PauCfa.Equal(*dec("7000.00")))
	assert.True(t, row.ValeurStockCfa.Equal(*dec("56000.00")))
}

func TestCurrentRatePolicy(t *testing.T) {
	// The current rate is the latest by application date, ties broken by
	// creation order; future-dated rates count.
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")

	current, err := s.taux.Current(envoi.ID)
	require.NoError(t, err)
	assert.Nil(t, current)

	_, err = s.taux.Create(&model.TauxChange{EnvoiID: envoi.ID, TauxEuroCfa: *dec("500"), DateApplication: date(2025, 1, 1)}, "tester")
	require.NoError(t, err)
	_, err = s.taux.Create(&model.TauxChange{EnvoiID: envoi.ID, TauxEuroCfa: *dec("650"), DateApplication: date(2030, 1, 1)}, "tester")
	require.NoError(t, err)
	_, err = s.taux.Create(&model.TauxChange{EnvoiID: envoi.ID, TauxEuroCfa: *dec("600"), DateApplication: date(2025, 6, 1)}, "tester")
	require.NoError(t, err)

	current, err = s.taux.Current(envoi.ID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.True(t, current.TauxEuroCfa.Equal(*dec("650")))

	rejected := decimal.Zero
	_, err = s.taux.Create(&model.TauxChange{EnvoiID: envoi.ID, TauxEuroCfa: rejected, DateApplication: date(2025, 7, 1)}, "tester")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}
