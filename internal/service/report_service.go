package service

import (
	"errors"
	"os"
	"strconv"
	"time"

	"go-envoi-inventory/internal/model"
	"go-envoi-inventory/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReportService computes the stock and monthly reports fresh from one
// envoi's snapshot. Money in each currency is summed from its own recorded
// unit prices; the current rate is used only to value stock on hand and to
// fill display-side conversions. No historical row is ever re-valued.
type ReportService interface {
	StockReport(envoiID uuid.UUID, lowStockThreshold int) (*StockReport, error)
	MonthlyReport(envoiID uuid.UUID, year int) (*MonthlyReport, error)
}

// StockReportRow is one product line. Cross-currency fields are nil when
// the conversion is impossible (no rate, or no price on the source side).
type StockReportRow struct {
	ProduitID        uuid.UUID        `json:"produit_id"`
	Nom              string           `json:"nom"`
	Caracteristiques string           `json:"caracteristiques"`
	Categorie        string           `json:"categorie"`
	PauEuro          *decimal.Decimal `json:"pau_euro"`
	PauCfa           *decimal.Decimal `json:"pau_cfa"`
	PvuCfa           *decimal.Decimal `json:"pvu_cfa"`
	PvuEuro          *decimal.Decimal `json:"pvu_euro"`
	QuantiteAchetee  int              `json:"quantite_achetee"`
	ValeurAcheteeEur *decimal.Decimal `json:"valeur_achetee_euro"`
	ValeurAcheteeCfa *decimal.Decimal `json:"valeur_achetee_cfa"`
	QuantiteVendue   int              `json:"quantite_vendue"`
	ValeurVendueEur  *decimal.Decimal `json:"valeur_vendue_euro"`
	ValeurVendueCfa  *decimal.Decimal `json:"valeur_vendue_cfa"`
	StockRestant     int              `json:"stock_restant"`
	ValeurStockEur   *decimal.Decimal `json:"valeur_stock_euro"`
	ValeurStockCfa   *decimal.Decimal `json:"valeur_stock_cfa"`
	QuantitePretee   int              `json:"quantite_pretee"`
	ValeurDettesCfa  *decimal.Decimal `json:"valeur_dettes_cfa"`
	ValeurDettesEur  *decimal.Decimal `json:"valeur_dettes_euro"`
	IsLowStock       bool             `json:"is_low_stock"`
}

type StockReport struct {
	EnvoiID           uuid.UUID        `json:"envoi_id"`
	TauxEuroCfa       *decimal.Decimal `json:"taux_euro_cfa"`
	LowStockThreshold int              `json:"low_stock_threshold"`
	Rows              []StockReportRow `json:"rows"`
	Totals            StockReportRow   `json:"totals"`
}

type MonthlyReportRow struct {
	Mois            int              `json:"mois"`
	AchatsQuantite  int              `json:"achats_quantite"`
	AchatsTotalEur  decimal.Decimal  `json:"achats_total_euro"`
	AchatsTotalCfa  decimal.Decimal  `json:"achats_total_cfa"`
	VentesQuantite  int              `json:"ventes_quantite"`
	VentesTotalEur  decimal.Decimal  `json:"ventes_total_euro"`
	VentesTotalCfa  decimal.Decimal  `json:"ventes_total_cfa"`
	PretsQuantite   int              `json:"prets_quantite"`
	RetoursQuantite int              `json:"retours_quantite"`
	MargeBruteCfa   *decimal.Decimal `json:"marge_brute_cfa"`
}

type MonthlyReport struct {
	EnvoiID uuid.UUID          `json:"envoi_id"`
	Annee   int                `json:"annee"`
	Mois    []MonthlyReportRow `json:"mois"`
	Totaux  MonthlyReportRow   `json:"totaux"`
}

type reportService struct {
	produitRepo     repository.ProduitRepository
	transactionRepo repository.TransactionRepository
	detteRepo       repository.DetteRepository
	tauxSvc         TauxService
	envoiRepo       repository.EnvoiRepository
}

func NewReportService(
	produitRepo repository.ProduitRepository,
	transactionRepo repository.TransactionRepository,
	detteRepo repository.DetteRepository,
	tauxSvc TauxService,
	envoiRepo repository.EnvoiRepository,
) ReportService {
	return &reportService{
		produitRepo:     produitRepo,
		transactionRepo: transactionRepo,
		detteRepo:       detteRepo,
		tauxSvc:         tauxSvc,
		envoiRepo:       envoiRepo,
	}
}

// DefaultLowStockThreshold reads LOW_STOCK_THRESHOLD, falling back to 5.
func DefaultLowStockThreshold() int {
	if raw := os.Getenv("LOW_STOCK_THRESHOLD"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			return n
		}
	}
	return 5
}

func mulQty(price *decimal.Decimal, qty int) *decimal.Decimal {
	if price == nil {
		return nil
	}
	v := price.Mul(decimal.NewFromInt(int64(qty)))
	return &v
}

func eurToCfa(eur *decimal.Decimal, rate *decimal.Decimal) *decimal.Decimal {
	if eur == nil || rate == nil {
		return nil
	}
	v := eur.Mul(*rate).Round(2)
	return &v
}

func cfaToEur(cfa *decimal.Decimal, rate *decimal.Decimal) *decimal.Decimal {
	if cfa == nil || rate == nil || rate.IsZero() {
		return nil
	}
	v := cfa.DivRound(*rate, 2)
	return &v
}

// addNullable accumulates nullable amounts: nil contributions are skipped,
// so a column total is nil only when every row was nil.
func addNullable(acc, v *decimal.Decimal) *decimal.Decimal {
	if v == nil {
		return acc
	}
	if acc == nil {
		sum := *v
		return &sum
	}
	sum := acc.Add(*v)
	return &sum
}

func (s *reportService) StockReport(envoiID uuid.UUID, lowStockThreshold int) (*StockReport, error) {
	if _, err := s.envoiRepo.FindByID(envoiID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if lowStockThreshold < 0 {
		lowStockThreshold = DefaultLowStockThreshold()
	}

	produits, err := s.produitRepo.FindByEnvoi(envoiID, "", "")
	if err != nil {
		return nil, err
	}
	transactions, err := s.transactionRepo.FindByEnvoi(envoiID, "", nil, nil)
	if err != nil {
		return nil, err
	}
	dettes, err := s.detteRepo.FindByEnvoi(envoiID, "")
	if err != nil {
		return nil, err
	}
	taux, err := s.tauxSvc.Current(envoiID)
	if err != nil {
		return nil, err
	}
	var rate *decimal.Decimal
	if taux != nil {
		rate = &taux.TauxEuroCfa
	}

	txByProduit := make(map[uuid.UUID][]model.Transaction)
	for _, t := range transactions {
		txByProduit[t.ProduitID] = append(txByProduit[t.ProduitID], t)
	}
	detteByProduit := make(map[uuid.UUID][]model.Dette)
	for _, d := range dettes {
		detteByProduit[d.ProduitID] = append(detteByProduit[d.ProduitID], d)
	}

	report := &StockReport{
		EnvoiID:           envoiID,
		TauxEuroCfa:       rate,
		LowStockThreshold: lowStockThreshold,
		Rows:              make([]StockReportRow, 0, len(produits)),
		Totals:            StockReportRow{Nom: "TOTAL"},
	}

	for i := range produits {
		p := &produits[i]
		row := s.produitRow(p, txByProduit[p.ID], detteByProduit[p.ID], rate, lowStockThreshold)
		report.Rows = append(report.Rows, row)

		t := &report.Totals
		t.QuantiteAchetee += row.QuantiteAchetee
		t.QuantiteVendue += row.QuantiteVendue
		t.StockRestant += row.StockRestant
		t.QuantitePretee += row.QuantitePretee
		t.ValeurAcheteeEur = addNullable(t.ValeurAcheteeEur, row.ValeurAcheteeEur)
		t.ValeurAcheteeCfa = addNullable(t.ValeurAcheteeCfa, row.ValeurAcheteeCfa)
		t.ValeurVendueEur = addNullable(t.ValeurVendueEur, row.ValeurVendueEur)
		t.ValeurVendueCfa = addNullable(t.ValeurVendueCfa, row.ValeurVendueCfa)
		t.ValeurStockEur = addNullable(t.ValeurStockEur, row.ValeurStockEur)
		t.ValeurStockCfa = addNullable(t.ValeurStockCfa, row.ValeurStockCfa)
		t.ValeurDettesCfa = addNullable(t.ValeurDettesCfa, row.ValeurDettesCfa)
		t.ValeurDettesEur = addNullable(t.ValeurDettesEur, row.ValeurDettesEur)
	}

	return report, nil
}

func (s *reportService) produitRow(p *model.Produit, transactions []model.Transaction, dettes []model.Dette, rate *decimal.Decimal, threshold int) StockReportRow {
	row := StockReportRow{
		ProduitID:        p.ID,
		Nom:              p.Nom,
		Caracteristiques: p.Caracteristiques,
		Categorie:        p.Categorie,
		PauEuro:          p.PrixAchatUnitaireEuro,
		PauCfa:           eurToCfa(p.PrixAchatUnitaireEuro, rate),
		PvuCfa:           p.PrixVenteUnitaireCfa,
		PvuEuro:          cfaToEur(p.PrixVenteUnitaireCfa, rate),
	}

	for _, t := range transactions {
		switch t.Type {
		case model.TxAchat:
			row.QuantiteAchetee += t.Quantite
		case model.TxVente:
			row.QuantiteVendue += t.Quantite
			// Each sale is valued at its own recorded prices; missing
			// sides simply do not contribute to that currency's total.
			row.ValeurVendueEur = addNullable(row.ValeurVendueEur, t.TotalEuro())
			row.ValeurVendueCfa = addNullable(row.ValeurVendueCfa, t.TotalCfa())
		}
	}

	for _, d := range dettes {
		if d.Settled() {
			row.QuantiteVendue += d.QuantitePretee
			row.ValeurVendueCfa = addNullable(row.ValeurVendueCfa, mulQty(d.PrixUnitaireCfa, d.QuantitePretee))
		} else {
			row.QuantitePretee += d.QuantitePretee
			row.ValeurDettesCfa = addNullable(row.ValeurDettesCfa, mulQty(d.PrixUnitaireCfa, d.QuantitePretee))
		}
	}
	row.ValeurDettesEur = cfaToEur(row.ValeurDettesCfa, rate)

	// Each currency's purchase value comes from its own unit price, never
	// cross-converted from the other currency's total.
	row.ValeurAcheteeEur = mulQty(row.PauEuro, row.QuantiteAchetee)
	row.ValeurAcheteeCfa = mulQty(row.PauCfa, row.QuantiteAchetee)

	row.StockRestant = row.QuantiteAchetee - row.QuantiteVendue - row.QuantitePretee
	row.ValeurStockEur = mulQty(row.PauEuro, row.StockRestant)
	row.ValeurStockCfa = mulQty(row.PauCfa, row.StockRestant)
	row.IsLowStock = row.StockRestant <= threshold

	return row
}

func (s *reportService) MonthlyReport(envoiID uuid.UUID, year int) (*MonthlyReport, error) {
	if _, err := s.envoiRepo.FindByID(envoiID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if year < 1 {
		return nil, validationErrorf("invalid year %d", year)
	}

	transactions, err := s.transactionRepo.FindByEnvoi(envoiID, "", nil, nil)
	if err != nil {
		return nil, err
	}
	dettes, err := s.detteRepo.FindByEnvoi(envoiID, "")
	if err != nil {
		return nil, err
	}
	taux, err := s.tauxSvc.Current(envoiID)
	if err != nil {
		return nil, err
	}
	var rate *decimal.Decimal
	if taux != nil {
		rate = &taux.TauxEuroCfa
	}

	// Current purchase price per product in CFA, for the gross-margin cost
	// basis (no lot costing exists).
	pauCfaByProduit := make(map[uuid.UUID]*decimal.Decimal)
	produits, err := s.produitRepo.FindByEnvoi(envoiID, "", "")
	if err != nil {
		return nil, err
	}
	for i := range produits {
		pauCfaByProduit[produits[i].ID] = eurToCfa(produits[i].PrixAchatUnitaireEuro, rate)
	}

	report := &MonthlyReport{EnvoiID: envoiID, Annee: year, Mois: make([]MonthlyReportRow, 12)}
	for m := 0; m < 12; m++ {
		report.Mois[m].Mois = m + 1
	}
	costBasis := make([]*decimal.Decimal, 12)

	monthOf := func(t time.Time) (int, bool) {
		if t.Year() != year {
			return 0, false
		}
		return int(t.Month()) - 1, true
	}

	for _, t := range transactions {
		m, ok := monthOf(t.DateTransaction)
		if !ok {
			continue
		}
		row := &report.Mois[m]
		switch t.Type {
		case model.TxAchat:
			row.AchatsQuantite += t.Quantite
			if v := t.TotalEuro(); v != nil {
				row.AchatsTotalEur = row.AchatsTotalEur.Add(*v)
			}
			if v := t.TotalCfa(); v != nil {
				row.AchatsTotalCfa = row.AchatsTotalCfa.Add(*v)
			}
		case model.TxVente:
			row.VentesQuantite += t.Quantite
			if v := t.TotalEuro(); v != nil {
				row.VentesTotalEur = row.VentesTotalEur.Add(*v)
			}
			if v := t.TotalCfa(); v != nil {
				row.VentesTotalCfa = row.VentesTotalCfa.Add(*v)
			}
			costBasis[m] = addNullable(costBasis[m], mulQty(pauCfaByProduit[t.ProduitID], t.Quantite))
		}
	}

	for _, d := range dettes {
		if m, ok := monthOf(d.DatePret); ok {
			report.Mois[m].PretsQuantite += d.QuantitePretee
		}
		if d.DateRetourEffective == nil {
			continue
		}
		m, ok := monthOf(*d.DateRetourEffective)
		if !ok {
			continue
		}
		row := &report.Mois[m]
		row.RetoursQuantite += d.QuantitePretee
		// A settled debt is a realized sale in its settlement month, valued
		// at its own recorded CFA price.
		row.VentesQuantite += d.QuantitePretee
		if v := mulQty(d.PrixUnitaireCfa, d.QuantitePretee); v != nil {
			row.VentesTotalCfa = row.VentesTotalCfa.Add(*v)
		}
		costBasis[m] = addNullable(costBasis[m], mulQty(pauCfaByProduit[d.ProduitID], d.QuantitePretee))
	}

	totals := &report.Totaux
	for m := range report.Mois {
		row := &report.Mois[m]
		// Margin needs a conversion for the cost basis; without a rate it
		// stays null rather than pretending a zero cost.
		if rate != nil {
			cost := decimal.Zero
			if costBasis[m] != nil {
				cost = *costBasis[m]
			}
			marge := row.VentesTotalCfa.Sub(cost)
			row.MargeBruteCfa = &marge
		}

		totals.AchatsQuantite += row.AchatsQuantite
		totals.AchatsTotalEur = totals.AchatsTotalEur.Add(row.AchatsTotalEur)
		totals.AchatsTotalCfa = totals.AchatsTotalCfa.Add(row.AchatsTotalCfa)
		totals.VentesQuantite += row.VentesQuantite
		totals.VentesTotalEur = totals.VentesTotalEur.Add(row.VentesTotalEur)
		totals.VentesTotalCfa = totals.VentesTotalCfa.Add(row.VentesTotalCfa)
		totals.PretsQuantite += row.PretsQuantite
		totals.RetoursQuantite += row.RetoursQuantite
		totals.MargeBruteCfa = addNullable(totals.MargeBruteCfa, row.MargeBruteCfa)
	}

	return report, nil
}
