// Package report renders the approval registry and the payout queue as an
// xlsx workbook.
package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/signage-ops/internal/domain/entity"
	"github.com/garyjia/signage-ops/internal/i18n"
)

const timeLayout = "2006-01-02 15:04"

// Exporter builds xlsx workbooks
type Exporter struct {
	translator *i18n.Translator
	logger     *zap.Logger
}

// NewExporter creates an exporter
func NewExporter(translator *i18n.Translator, logger *zap.Logger) *Exporter {
	return &Exporter{
		translator: translator,
		logger:     logger,
	}
}

// Workbook writes one sheet of approval requests and one of pending payouts.
// Labels follow the locale carried by ctx.
func (e *Exporter) Workbook(ctx context.Context, approvals []entity.ApprovalRequest, payouts []*entity.PayoutItem) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	approvalSheet := e.translator.T(ctx, "export.sheet.approvals", nil)
	if err := f.SetSheetName("Sheet1", approvalSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := e.writeApprovals(ctx, f, approvalSheet, header, approvals); err != nil {
		return nil, err
	}

	payoutSheet := e.translator.T(ctx, "export.sheet.payouts", nil)
	if _, err := f.NewSheet(payoutSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := e.writePayouts(ctx, f, payoutSheet, header, payouts); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Workbook exported",
		zap.Int("approvals", len(approvals)),
		zap.Int("payouts", len(payouts)),
		zap.Int("bytes", buf.Len()))
	return buf, nil
}

func (e *Exporter) writeApprovals(ctx context.Context, f *excelize.File, sheet string, header int, approvals []entity.ApprovalRequest) error {
	columns := []string{"id", "requester", "dept", "kind", "amount", "detail", "status", "created_at"}
	if err := e.writeHeader(ctx, f, sheet, header, columns); err != nil {
		return err
	}

	for i, req := range approvals {
		row := []interface{}{
			req.ID,
			req.RequesterID,
			req.RequesterDept,
			e.translator.KindLabel(ctx, req.Kind),
			req.AmountDisplay,
			req.Detail,
			e.translator.StatusLabel(ctx, req.Status),
			req.CreatedAt.Format(timeLayout),
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 44)
	_ = f.SetColWidth(sheet, "F", "F", 60)
	return nil
}

func (e *Exporter) writePayouts(ctx context.Context, f *excelize.File, sheet string, header int, payouts []*entity.PayoutItem) error {
	columns := []string{"id", "payee", "account", "amount", "purpose", "enqueued_at"}
	if err := e.writeHeader(ctx, f, sheet, header, columns); err != nil {
		return err
	}

	var total float64
	for i, p := range payouts {
		row := []interface{}{
			p.RequestID,
			p.PayeeName,
			p.PayeeAccount,
			p.Amount,
			p.Purpose,
			p.EnqueuedAt.Format(timeLayout),
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
		total += p.Amount
	}

	totalRow := []interface{}{
		e.translator.T(ctx, "export.total", nil),
		i18n.FormatCurrency(total),
		CapitalizeYuan(total),
	}
	if err := setRow(f, sheet, len(payouts)+2, totalRow); err != nil {
		return err
	}

	_ = f.SetColWidth(sheet, "A", "A", 44)
	_ = f.SetColWidth(sheet, "C", "C", 28)
	return nil
}

func (e *Exporter) writeHeader(ctx context.Context, f *excelize.File, sheet string, style int, columns []string) error {
	labels := make([]interface{}, len(columns))
	for i, c := range columns {
		labels[i] = e.translator.T(ctx, "export.col."+c, nil)
	}
	if err := setRow(f, sheet, 1, labels); err != nil {
		return err
	}

	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
	}
	return nil
}
