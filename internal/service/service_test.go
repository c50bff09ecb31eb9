package service

import (
	"fmt"
	"testing"
	"time"

	"go-envoi-inventory/internal/model"
	"go-envoi-inventory/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testStack wires the full service graph over an isolated in-memory DB.
type testStack struct {
	db       *gorm.DB
	envois   EnvoiService
	produits ProduitService
	stocks   StockService
	taux     TauxService
	reports  ReportService
	audits   AuditService
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.User{},
		&model.Envoi{},
		&model.Produit{},
		&model.Stock{},
		&model.Transaction{},
		&model.TauxChange{},
		&model.Dette{},
		&model.AuditEvent{},
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	db := setupTestDB(t)

	envoiRepo := repository.NewEnvoiRepo(db)
	produitRepo := repository.NewProduitRepo(db)
	stockRepo := repository.NewStockRepo(db)
	transactionRepo := repository.NewTransactionRepo(db)
	detteRepo := repository.NewDetteRepo(db)
	tauxRepo := repository.NewTauxRepo(db)
	auditRepo := repository.NewAuditRepo(db)

	audits := NewAuditService(auditRepo, nil)
	stocks := NewStockService(produitRepo, stockRepo, transactionRepo, detteRepo, tauxRepo, audits, db)
	produits := NewProduitService(produitRepo, envoiRepo, stocks, audits, db)
	envois := NewEnvoiService(envoiRepo, audits, db)
	taux := NewTauxService(tauxRepo, audits)
	reports := NewReportService(produitRepo, transactionRepo, detteRepo, taux, envoiRepo)

	return &testStack{
		db:       db,
		envois:   envois,
		produits: produits,
		stocks:   stocks,
		taux:     taux,
		reports:  reports,
		audits:   audits,
	}
}

func (s *testStack) newEnvoi(t *testing.T, nom string) *model.Envoi {
	t.Helper()
	envoi, err := s.envois.Create(&model.Envoi{
		Nom:       nom,
		DateDebut: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}, "tester")
	require.NoError(t, err)
	return envoi
}

// newProduit creates a product with no opening stock.
func (s *testStack) newProduit(t *testing.T, envoiID uuid.UUID, nom string, pauEuro, pvuCfa *decimal.Decimal) *model.Produit {
	t.Helper()
	produit, err := s.produits.Create(&model.Produit{
		EnvoiID:               envoiID,
		Nom:                   nom,
		PrixAchatUnitaireEuro: pauEuro,
		PrixVenteUnitaireCfa:  pvuCfa,
	}, 0, "tester")
	require.NoError(t, err)
	return produit
}

func (s *testStack) achat(t *testing.T, produitID uuid.UUID, qty int) *model.Transaction {
	t.Helper()
	tx, err := s.stocks.CreateTransaction(&model.Transaction{
		ProduitID: produitID,
		Type:      model.TxAchat,
		Quantite:  qty,
	}, "tester")
	require.NoError(t, err)
	return tx
}

func (s *testStack) vente(t *testing.T, produitID uuid.UUID, qty int) *model.Transaction {
	t.Helper()
	tx, err := s.stocks.CreateTransaction(&model.Transaction{
		ProduitID: produitID,
		Type:      model.TxVente,
		Quantite:  qty,
	}, "tester")
	require.NoError(t, err)
	return tx
}

func (s *testStack) stockOf(t *testing.T, produitID uuid.UUID) *model.Stock {
	t.Helper()
	stock, err := s.stocks.GetStock(produitID)
	require.NoError(t, err)
	return stock
}

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
