package receiving

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const stickerSheet = "Stickers"

var stickerHeadings = []string{
	"Item", "Seq", "Product", "Line No", "Ref No", "Pattern", "Variant", "Color", "Size",
	"Meters", "Cost", "Profit %", "Computed", "Price", "Sticker",
}

// WriteStickerSheet renders committed items, followed by the open batch, as
// an xlsx sticker sheet with one line per received unit.
func WriteStickerSheet(w Worksheet, dst io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", stickerSheet); err != nil {
		return fmt.Errorf("receiving: export: %w", err)
	}
	for i, h := range stickerHeadings {
		if err := setCell(f, i+1, 1, h); err != nil {
			return err
		}
	}

	printer := message.NewPrinter(language.English)
	line := 2
	write := func(label string, b BatchContext) error {
		for _, row := range b.Rows {
			meters := any("")
			if row.MeterQuantity != nil {
				meters = *row.MeterQuantity
			}
			values := []any{
				label,
				row.SequenceNumber,
				b.ProductName,
				row.LineNo,
				row.RefNo,
				w.Labels.Name(LabelPattern, b.Selections.PatternID),
				w.Labels.Name(LabelVariant, b.Selections.VariantID),
				w.Labels.Name(LabelColor, b.Selections.ColorID),
				w.Labels.Name(LabelSize, b.Selections.SizeID),
				meters,
				row.Cost,
				row.ProfitPercent,
				row.ComputedPrice,
				row.RoundedPrice,
				printer.Sprintf("Rs. %.2f", row.RoundedPrice),
			}
			for col, v := range values {
				if err := setCell(f, col+1, line, v); err != nil {
					return err
				}
			}
			line++
		}
		return nil
	}

	for i, item := range w.Items {
		if err := write(fmt.Sprint(i+1), item); err != nil {
			return err
		}
	}
	if err := write("draft", w.Batch); err != nil {
		return err
	}
	if err := f.Write(dst); err != nil {
		return fmt.Errorf("receiving: export: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("receiving: export: %w", err)
	}
	if err := f.SetCellValue(stickerSheet, cell, value); err != nil {
		return fmt.Errorf("receiving: export: %w", err)
	}
	return nil
}

// Name returns the label name for id, falling back to the id itself.
func (s LabelSet) Name(kind LabelKind, id string) string {
	if id == "" {
		return ""
	}
	for _, l := range s.List(kind) {
		if l.ID == id {
			return l.Name
		}
	}
	return id
}
