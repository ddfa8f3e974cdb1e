package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/souenergy/cotacao-backend/internal/domain/models"
	"github.com/souenergy/cotacao-backend/internal/repository/mongodb"
)

// ErrNoQuotations is returned when there is nothing to export.
var ErrNoQuotations = errors.New("no quotations to export")

const sheetName = "Cotações"

// Service renders every stored quotation into a downloadable xlsx
// workbook. The whole table is materialized in memory, which is fine for
// the expected volume of manual B2B submissions.
type Service struct {
	repo   mongodb.Repository
	logger *zap.Logger
}

// NewService wires a new export service instance.
func NewService(repo mongodb.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

type column struct {
	header string
	width  float64
	value  func(q models.Quotation) any
}

var columns = []column{
	{"ID", 28, func(q models.Quotation) any { return q.ID.Hex() }},
	{"Data", 20, func(q models.Quotation) any { return q.CreatedAt.Format("2006-01-02 15:04") }},
	{"Empresa", 25, func(q models.Quotation) any { return q.CompanyName }},
	{"Contato", 20, func(q models.Quotation) any { return q.ContactPerson }},
	{"Email", 30, func(q models.Quotation) any { return q.Email }},
	{"Modelo Fornecedor", 20, func(q models.Quotation) any { return q.SupplierModel }},
	{"Potência (W)", 14, func(q models.Quotation) any { return q.Power }},
	{"Temp Mín (°C)", 14, func(q models.Quotation) any { return f64(q.MinTemp) }},
	{"Temp Máx (°C)", 14, func(q models.Quotation) any { return f64(q.MaxTemp) }},
	{"Qtd Cestos", 12, func(q models.Quotation) any { return i(q.QtyBaskets) }},
	{"Volume Cesto (L)", 16, func(q models.Quotation) any { return f64(q.BasketVolume) }},
	{"Cesto Removível", 16, func(q models.Quotation) any { return q.RemovableBasket }},
	{"Visor", 10, func(q models.Quotation) any { return q.ViewWindow }},
	{"Preço FOB", 15, func(q models.Quotation) any { return q.FobPrice }},
	{"Cidade FOB", 15, func(q models.Quotation) any { return q.FobCity }},
	{"Pagamento", 15, func(q models.Quotation) any { return q.PaymentTerms }},
	{"Prazo (dias)", 12, func(q models.Quotation) any { return q.DeliveryTime }},
	{"MOQ", 10, func(q models.Quotation) any { return q.MOQ }},
	{"Tamanho Caixa", 15, func(q models.Quotation) any { return q.CartonSize }},
	{"Qtd por Caixa", 14, func(q models.Quotation) any { return i(q.QtyPerCarton) }},
	{"CBM Unitário", 14, func(q models.Quotation) any { return f64(q.UnitCBM) }},
	{"Qtd 40HC", 12, func(q models.Quotation) any { return i(q.Qty40HC) }},
	{"Status", 12, func(q models.Quotation) any { return q.Status }},
	{"Imagem", 30, func(q models.Quotation) any { return str(q.ImageURL) }},
}

// ExportAll reads every quotation, newest first, and serializes the table
// to xlsx bytes.
func (s *Service) ExportAll(ctx context.Context) ([]byte, error) {
	quotations, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quotations: %w", err)
	}
	if len(quotations) == 0 {
		return nil, ErrNoQuotations
	}

	sort.Slice(quotations, func(a, b int) bool {
		return quotations[a].CreatedAt.After(quotations[b].CreatedAt)
	})

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("failed to close workbook", zap.Error(err))
		}
	}()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	priceFmt := `"$"#,##0.00`
	priceStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &priceFmt})
	if err != nil {
		return nil, fmt.Errorf("create price style: %w", err)
	}

	for idx, col := range columns {
		cell, err := excelize.CoordinatesToCellName(idx+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell name: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, col.header); err != nil {
			return nil, fmt.Errorf("write header %q: %w", col.header, err)
		}

		colName, err := excelize.ColumnNumberToName(idx + 1)
		if err != nil {
			return nil, fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(sheetName, colName, colName, col.width); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return nil, fmt.Errorf("last column name: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, fmt.Errorf("style header row: %w", err)
	}

	for rowIdx, q := range quotations {
		for colIdx, col := range columns {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, col.value(q)); err != nil {
				return nil, fmt.Errorf("write cell %s: %w", cell, err)
			}
			if col.header == "Preço FOB" {
				if err := f.SetCellStyle(sheetName, cell, cell, priceStyle); err != nil {
					return nil, fmt.Errorf("style price cell: %w", err)
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}

	s.logger.Info("generated quotation export", zap.Int("rows", len(quotations)))
	return buf.Bytes(), nil
}

func f64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func i(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func str(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
