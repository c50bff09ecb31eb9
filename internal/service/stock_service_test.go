package service

import (
	"sync"
	"testing"
	"time"

	"go-envoi-inventory/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAchatIncreasesStock(t *testing.T) {
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	produit := s.newProduit(t, envoi.ID, "Montre", dec("20.00"), dec("15000"))

	s.achat(t, produit.ID, 10)

	stock := s.stockOf(t, produit.ID)
	assert.Equal(t, 10, stock.QuantiteInitial)
	assert.Equal(t, 10, stock.QuantiteRestante)
	assert.Equal(t, 0, stock.QuantiteVendue)
	assert.Equal(t, 0, stock.QuantitePretee)
}

func TestAchatDeleteRoundTrip(t *testing.T) {
	// GIVEN a product with an opening purchase
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	produit := s.newProduit(t, envoi.ID, "Montre", nil, dec("15000"))
	before := s.stockOf(t, produit.ID)

	// WHEN an achat is created then deleted
	tx := s.achat(t, produit.ID, 10)
	require.NoError(t, s.stocks.DeleteTransaction(tx.ID, "tester"))

	// THEN the stock state is identical to before the achat existed
	after := s.stockOf(t, produit.ID)
	assert.Equal(t, before.QuantiteInitial, after.QuantiteInitial)
	assert.Equal(t, before.QuantiteRestante, after.QuantiteRestante)
	assert.Equal(t, before.QuantiteVendue, after.QuantiteVendue)
}

func TestVenteBoundary(t *testing.T) {
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	produit := s.newProduit(t, envoi.ID, "Montre", nil, dec("15000"))
	s.achat(t, produit.ID, 5)

	// Selling more than available fails and leaves the state untouched.
	_, err := s.stocks.CreateTransaction(&model.Transaction{
		ProduitID: produit.ID,
		Type:      model.TxVente,
		Quantite:  6,
	}, "tester")
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 6, stockErr.Requested)
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, 5, s.stockOf(t, produit.ID).QuantiteRestante)

	// Selling exactly the remaining quantity succeeds and empties the stock.
	s.vente(t, produit.ID, 5)
	assert.Equal(t, 0, s.stockOf(t, produit.ID).QuantiteRestante)
}

func TestVenteRequiresPrice(t *testing.T) {
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	produit := s.newProduit(t, envoi.ID, "SansPrix", nil, nil)
	s.achat(t, produit.ID, 5)

	_, err := s.stocks.CreateTransaction(&model.Transaction{
		ProduitID: produit.ID,
		Type:      model.TxVente,
		Quantite:  1,
	}, "tester")
	require.ErrorIs(t, err, ErrMissingPrice)
}

func TestVentePriceFilledFromRate(t *testing.T) {
	// GIVEN a product priced only in EUR and a current rate
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	produit := s.newProduit(t, envoi.ID, "Montre", dec("10.00"), nil)
	s.achat(t, produit.ID, 5)
	_, err := s.taux.Create(&model.TauxChange{
		EnvoiID:         envoi.ID,
		TauxEuroCfa:     *dec("655.96"),
		DateApplication: date(2025, 1, 1),
	}, "tester")
	require.NoError(t, err)

	// WHEN a vente is recorded with only an EUR price
	tx, err := s.stocks.CreateTransaction(&model.Transaction{
		ProduitID:        produit.ID,
		Type:             model.TxVente,
		Quantite:         2,
		PrixUnitaireEuro: dec("12.00"),
	}, "tester")
	require.NoError(t, err)

	// THEN the CFA side is filled at the current rate and the rate snapshot kept
	require.NotNil(t, tx.PrixUnitaireCfa)
	assert.True(t, tx.PrixUnitaireCfa.Equal(*dec("7871.52")), "got %s", tx.PrixUnitaireCfa)
	require.NotNil(t, tx.TauxChange)
	assert.True(t, tx.TauxChange.Equal(*dec("655.96")))
}

func TestDeleteAchatConsumedDownstream(t *testing.T) {
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	produit := s.newProduit(t, envoi.ID, "Montre", nil, dec("15000"))
	tx := s.achat(t, produit.ID, 10)
	s.vente(t, produit.ID, 8)

	// Removing the achat would drive restante to -8; the delete must abort.
	err := s.stocks.DeleteTransaction(tx.ID, "tester")
	var invErr *InvariantViolationError
	require.ErrorAs(t, err, &invErr)

	stock := s.stockOf(t, produit.ID)
	assert.Equal(t, 10, stock.QuantiteInitial)
	assert.Equal(t, 2, stock.QuantiteRestante)
}

func TestScenarioLifecycle(t *testing.T) {
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	produit := s.newProduit(t, envoi.ID, "Montre", nil, dec("15000"))

	s.achat(t, produit.ID, 10)
	stock := s.stockOf(t, produit.ID)
	require.Equal(t, 10, stock.QuantiteInitial)
	require.Equal(t, 10, stock.QuantiteRestante)

	s.vente(t, produit.ID, 4)
	require.Equal(t, 6, s.stockOf(t, produit.ID).QuantiteRestante)

	dette, err := s.stocks.CreateDette(&model.Dette{
		ProduitID:      produit.ID,
		Client:         "X",
		QuantitePretee: 3,
	}, "tester")
	require.NoError(t, err)
	stock = s.stockOf(t, produit.ID)
	require.Equal(t, 3, stock.QuantiteRestante)
	require.Equal(t, 3, stock.QuantitePretee)

	_, err = s.stocks.SettleDette(dette.ID, date(2025, 3, 1), "tester")
	require.NoError(t, err)
	stock = s.stockOf(t, produit.ID)
	assert.Equal(t, 3, stock.QuantiteRestante)
	assert.Equal(t, 0, stock.QuantitePretee)
	assert.Equal(t, 7, stock.QuantiteVendue)
}

func TestSettleIdempotent(t *testing.T) {
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	produit := s.newProduit(t, envoi.ID, "Montre", nil, dec("15000"))
	s.achat(t, produit.ID, 10)

	dette, err := s.stocks.CreateDette(&model.Dette{
		ProduitID:      produit.ID,
		Client:         "X",
		QuantitePretee: 3,
	}, "tester")
	require.NoError(t, err)

	_, err = s.stocks.SettleDette(dette.ID, date(2025, 3, 1), "tester")
	require.NoError(t, err)
	_, err = s.stocks.SettleDette(dette.ID, date(2025, 3, 1), "tester")
	require.NoError(t, err)

	// Settling twice must not double-count the quantity as sold.
	stock := s.stockOf(t, produit.ID)
	assert.Equal(t, 3, stock.QuantiteVendue)
	assert.Equal(t, 7, stock.QuantiteRestante)
}

func TestSettleRequiresResolvablePrice(t *testing.T) {
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	produit := s.newProduit(t, envoi.ID, "SansPrix", nil, nil)
	s.achat(t, produit.ID, 10)

	dette, err := s.stocks.CreateDette(&model.Dette{
		ProduitID:       produit.ID,
		Client:          "X",
		QuantitePretee:  3,
		PrixUnitaireCfa: dec("5000"),
	}, "tester")
	require.NoError(t, err)

	// With its own price the debt settles fine.
	_, err = s.stocks.SettleDette(dette.ID, date(2025, 3, 1), "tester")
	require.NoError(t, err)
}

func TestDetteCreationRequiresPrice(t *testing.T) {
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	produit := s.newProduit(t, envoi.ID, "SansPrix", nil, nil)
	s.achat(t, produit.ID, 10)

	_, err := s.stocks.CreateDette(&model.Dette{
		ProduitID:      produit.ID,
		Client:         "X",
		QuantitePretee: 3,
	}, "tester")
	require.ErrorIs(t, err, ErrMissingPrice)
	assert.Equal(t, 10, s.stockOf(t, produit.ID).QuantiteRestante)
}

func TestDetteInsufficientStock(t *testing.T) {
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	produit := s.newProduit(t, envoi.ID, "Montre", nil, dec("15000"))
	s.achat(t, produit.ID, 2)

	_, err := s.stocks.CreateDette(&model.Dette{
		ProduitID:      produit.ID,
		Client:         "X",
		QuantitePretee: 3,
	}, "tester")
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Available)
}

func TestDeleteSettledDetteRestoresState(t *testing.T) {
	// GIVEN a settled debt
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	produit := s.newProduit(t, envoi.ID, "Montre", nil, dec("15000"))
	s.achat(t, produit.ID, 10)
	s.vente(t, produit.ID, 2)
	before := s.stockOf(t, produit.ID)

	dette, err := s.stocks.CreateDette(&model.Dette{
		ProduitID:      produit.ID,
		Client:         "X",
		QuantitePretee: 3,
	}, "tester")
	require.NoError(t, err)
	_, err = s.stocks.SettleDette(dette.ID, date(2025, 3, 1), "tester")
	require.NoError(t, err)

	// WHEN the settled debt is deleted
	require.NoError(t, s.stocks.DeleteDette(dette.ID, "tester"))

	// THEN both the stock decrement and the sold accounting are reversed
	after := s.stockOf(t, produit.ID)
	assert.Equal(t, before.QuantiteRestante, after.QuantiteRestante)
	assert.Equal(t, before.QuantiteVendue, after.QuantiteVendue)
	assert.Equal(t, before.QuantitePretee, after.QuantitePretee)
}

func TestReopenDette(t *testing.T) {
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	produit := s.newProduit(t, envoi.ID, "Montre", nil, dec("15000"))
	s.achat(t, produit.ID, 10)

	dette, err := s.stocks.CreateDette(&model.Dette{
		ProduitID:      produit.ID,
		Client:         "X",
		QuantitePretee: 4,
	}, "tester")
	require.NoError(t, err)
	_, err = s.stocks.SettleDette(dette.ID, date(2025, 3, 1), "tester")
	require.NoError(t, err)

	reopened, err := s.stocks.ReopenDette(dette.ID, "tester")
	require.NoError(t, err)
	assert.Nil(t, reopened.DateRetourEffective)

	stock := s.stockOf(t, produit.ID)
	assert.Equal(t, 0, stock.QuantiteVendue)
	assert.Equal(t, 4, stock.QuantitePretee)
	assert.Equal(t, 6, stock.QuantiteRestante)
}

func TestConcurrentVentesSerialize(t *testing.T) {
	// Two concurrent sales of 6 against a stock of 10: exactly one wins.
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	produit := s.newProduit(t, envoi.ID, "Montre", nil, dec("15000"))
	s.achat(t, produit.ID, 10)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.stocks.CreateTransaction(&model.Transaction{
				ProduitID: produit.ID,
				Type:      model.TxVente,
				Quantite:  6,
			}, "tester")
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			var stockErr *InsufficientStockError
			require.ErrorAs(t, err, &stockErr)
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactly one of the two sales must be rejected")
	assert.Equal(t, 4, s.stockOf(t, produit.ID).QuantiteRestante)
}

func TestUpdateDetteFieldsOnly(t *testing.T) {
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	produit := s.newProduit(t, envoi.ID, "Montre", nil, dec("15000"))
	s.achat(t, produit.ID, 10)

	dette, err := s.stocks.CreateDette(&model.Dette{
		ProduitID:      produit.ID,
		Client:         "X",
		QuantitePretee: 3,
	}, "tester")
	require.NoError(t, err)

	client := "Y"
	prevue := date(2025, 6, 1)
	updated, err := s.stocks.UpdateDette(dette.ID, &DetteUpdate{
		Client:           &client,
		PrixUnitaireCfa:  dec("12000"),
		DateRetourPrevue: &prevue,
	}, "tester")
	require.NoError(t, err)
	assert.Equal(t, "Y", updated.Client)
	assert.True(t, updated.PrixUnitaireCfa.Equal(*dec("12000")))

	// Price edits are rejected once the debt is settled.
	_, err = s.stocks.SettleDette(dette.ID, date(2025, 7, 1), "tester")
	require.NoError(t, err)
	_, err = s.stocks.UpdateDette(dette.ID, &DetteUpdate{PrixUnitaireCfa: dec("9000")}, "tester")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestDetteStatutDerivation(t *testing.T) {
	today := date(2025, 6, 15)

	open := model.Dette{DatePret: date(2025, 6, 1)}
	assert.Equal(t, model.DetteEnCours, open.Statut(today))

	prevue := date(2025, 6, 10)
	late := model.Dette{DatePret: date(2025, 6, 1), DateRetourPrevue: &prevue}
	assert.Equal(t, model.DetteRetard, late.Statut(today))

	effective := date(2025, 6, 12)
	settled := model.Dette{DatePret: date(2025, 6, 1), DateRetourPrevue: &prevue, DateRetourEffective: &effective}
	assert.Equal(t, model.DetteSoldee, settled.Statut(today))
}

func TestTransactionValidation(t *testing.T) {
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	produit := s.newProduit(t, envoi.ID, "Montre", nil, dec("15000"))

	_, err := s.stocks.CreateTransaction(&model.Transaction{
		ProduitID: produit.ID,
		Type:      "troc",
		Quantite:  1,
	}, "tester")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	_, err = s.stocks.CreateTransaction(&model.Transaction{
		ProduitID: produit.ID,
		Type:      model.TxAchat,
		Quantite:  0,
	}, "tester")
	require.ErrorAs(t, err, &validationErr)
}

func TestDatePretDefaultsToNow(t *testing.T) {
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	produit := s.newProduit(t, envoi.ID, "Montre", nil, dec("15000"))
	s.achat(t, produit.ID, 5)

	dette, err := s.stocks.CreateDette(&model.Dette{
		ProduitID:      produit.ID,
		Client:         "X",
		QuantitePretee: 1,
	}, "tester")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), dette.DatePret, time.Minute)
}
