package service

import (
	"testing"

	"go-envoi-inventory/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countRows(t *testing.T, s *testStack, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Model(m).Count(&n).Error)
	return n
}

func TestEnvoiUniqueName(t *testing.T) {
	s := newTestStack(t)
	s.newEnvoi(t, "envoi-2025")

	_, err := s.envois.Create(&model.Envoi{Nom: "envoi-2025", DateDebut: date(2025, 1, 1)}, "tester")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestEnvoiDateOrdering(t *testing.T) {
	s := newTestStack(t)
	fin := date(2024, 1, 1)
	_, err := s.envois.Create(&model.Envoi{Nom: "bad", DateDebut: date(2025, 1, 1), DateFin: &fin}, "tester")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestProduitOpeningQuantity(t *testing.T) {
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")

	produit, err := s.produits.Create(&model.Produit{
		EnvoiID:               envoi.ID,
		Nom:                   "Montre",
		PrixAchatUnitaireEuro: dec("10.00"),
	}, 25, "tester")
	require.NoError(t, err)

	// The opening quantity lands as a regular achat in the log.
	stock := s.stockOf(t, produit.ID)
	assert.Equal(t, 25, stock.QuantiteInitial)
	assert.Equal(t, 25, stock.QuantiteRestante)
	assert.EqualValues(t, 1, countRows(t, s, &model.Transaction{}))
}

func TestProduitDeleteCascades(t *testing.T) {
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	produit := s.newProduit(t, envoi.ID, "Montre", nil, dec("15000"))
	s.achat(t, produit.ID, 10)
	s.vente(t, produit.ID, 2)
	_, err := s.stocks.CreateDette(&model.Dette{ProduitID: produit.ID, Client: "X", QuantitePretee: 1}, "tester")
	require.NoError(t, err)

	require.NoError(t, s.produits.Delete(produit.ID, "tester"))

	assert.EqualValues(t, 0, countRows(t, s, &model.Produit{}))
	assert.EqualValues(t, 0, countRows(t, s, &model.Stock{}))
	assert.EqualValues(t, 0, countRows(t, s, &model.Transaction{}))
	assert.EqualValues(t, 0, countRows(t, s, &model.Dette{}))
}

func TestEnvoiDeleteCascades(t *testing.T) {
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	produit := s.newProduit(t, envoi.ID, "Montre", nil, dec("15000"))
	s.achat(t, produit.ID, 10)
	_, err := s.taux.Create(&model.TauxChange{
		EnvoiID:         envoi.ID,
		TauxEuroCfa:     *dec("500"),
		DateApplication: date(2025, 1, 1),
	}, "tester")
	require.NoError(t, err)

	// An unrelated envoi must survive untouched.
	other := s.newEnvoi(t, "envoi-other")
	s.newProduit(t, other.ID, "Bague", nil, dec("9000"))

	require.NoError(t, s.envois.Delete(envoi.ID, "tester"))

	assert.EqualValues(t, 1, countRows(t, s, &model.Envoi{}))
	assert.EqualValues(t, 1, countRows(t, s, &model.Produit{}))
	assert.EqualValues(t, 0, countRows(t, s, &model.Transaction{}))
	assert.EqualValues(t, 0, countRows(t, s, &model.TauxChange{}))
}

func TestEnvoiPurgeKeepsEnvoiAndRates(t *testing.T) {
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	produit := s.newProduit(t, envoi.ID, "Montre", nil, dec("15000"))
	s.achat(t, produit.ID, 10)
	_, err := s.taux.Create(&model.TauxChange{
		EnvoiID:         envoi.ID,
		TauxEuroCfa:     *dec("500"),
		DateApplication: date(2025, 1, 1),
	}, "tester")
	require.NoError(t, err)

	require.NoError(t, s.envois.Purge(envoi.ID, "tester"))

	assert.EqualValues(t, 1, countRows(t, s, &model.Envoi{}))
	assert.EqualValues(t, 1, countRows(t, s, &model.TauxChange{}))
	assert.EqualValues(t, 0, countRows(t, s, &model.Produit{}))
	assert.EqualValues(t, 0, countRows(t, s, &model.Transaction{}))
}

func TestAuditTrailRecordsMutations(t *testing.T) {
	s := newTestStack(t)
	envoi := s.newEnvoi(t, "envoi-2025")
	produit := s.newProduit(t, envoi.ID, "Montre", nil, dec("15000"))
	s.achat(t, produit.ID, 10)

	events, err := s.audits.List(&envoi.ID, 0, 50)
	require.NoError(t, err)
	require.NotEmpty(t, events)

	var actions []model.AuditAction
	for _, e := range events {
		assert.Equal(t, "tester", e.Username)
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, model.AuditCreate)

	// Cursor pagination: everything after the last seen id is new only.
	last := events[len(events)-1].ID
	more, err := s.audits.List(&envoi.ID, last, 50)
	require.NoError(t, err)
	assert.Empty(t, more)
}
