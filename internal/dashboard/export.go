package dashboard

import (
	"bytes"
	"fmt"
	"time"

	"site-defects/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	RegisterSheet = "缺失清單"
	SummarySheet  = "統計"
)

var registerHeader = []string{
	"編號", "缺失描述", "類別", "廠商", "狀態", "預計完成日", "剩餘天數", "緊急程度", "建立時間", "更新時間", "前次缺失",
}

var registerWidths = []float64{8, 40, 14, 18, 14, 14, 10, 14, 20, 20, 10}

// ExportXLSX writes the defect register and its summary as a workbook.
// Unique codes are left out: the file is shared beyond the vendors.
func ExportXLSX(defects []models.Defect, today time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(RegisterSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := writeRegister(f, defects, today, headerStyle); err != nil {
		return nil, err
	}
	if err := writeSummary(f, Summarize(defects, today), headerStyle); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRegister(f *excelize.File, defects []models.Defect, today time.Time, headerStyle int) error {
	sheet := RegisterSheet
	if err := writeRow(f, sheet, 1, toAny(registerHeader)); err != nil {
		return err
	}
	end, _ := excelize.CoordinatesToCellName(len(registerHeader), 1)
	if err := f.SetCellStyle(sheet, "A1", end, headerStyle); err != nil {
		return fmt.Errorf("set header style: %w", err)
	}
	for i, w := range registerWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	for i := range defects {
		d := &defects[i]
		row := []any{
			d.ID,
			d.Description,
			d.CategoryName,
			d.VendorName,
			d.Status.Display(),
			"",
			"",
			d.Urgency(today).Display(),
			formatTime(d.CreatedAt),
			formatTime(d.UpdatedAt),
			"",
		}
		if d.ExpectedCompletion != nil {
			row[5] = d.ExpectedCompletion.String()
		}
		if days := d.DaysRemaining(today); days != nil {
			row[6] = *days
		}
		if d.PreviousDefectID != nil {
			row[10] = *d.PreviousDefectID
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeSummary(f *excelize.File, s Summary, headerStyle int) error {
	sheet := SummarySheet
	rows := [][]any{
		{"項目", "數值"},
		{"總缺失數量", s.Total},
		{"已完成", s.Completed},
		{"改善中", s.InProgress},
		{"待確認", s.Pending},
		{"等待中", s.Waiting},
		{"已取消", s.Cancelled},
		{"逾期缺失", s.Overdue},
		{"完成率 (%)", round1(s.CompletionRate)},
		{"逾期率 (%)", round1(s.OverdueRate)},
		{"平均修復天數", optional(s.AvgRepairDays)},
		{"緊急缺失平均修復天數", optional(s.AvgUrgentRepairDays)},
		{},
		{"廠商", "缺失數量", "已完成", "逾期數", "完成率 (%)", "平均解決天數", "按時完成率 (%)"},
	}
	for _, v := range s.Vendors {
		rows = append(rows, []any{v.Name, v.Total, v.Completed, v.Overdue, round1(v.CompletionRate), optional(v.AvgRepairDays), round1(v.OnTimeRate)})
	}
	rows = append(rows, []any{}, []any{"類別", "缺失數量", "已完成", "解決率 (%)", "平均解決天數"})
	for _, c := range s.Categories {
		rows = append(rows, []any{c.Name, c.Total, c.Completed, round1(c.ResolutionRate), optional(c.AvgRepairDays)})
	}

	for i, row := range rows {
		if err := writeRow(f, sheet, i+1, row); err != nil {
			return err
		}
		if len(row) > 0 && (i == 0 || isHeader(row)) {
			end, _ := excelize.CoordinatesToCellName(len(row), i+1)
			start, _ := excelize.CoordinatesToCellName(1, i+1)
			if err := f.SetCellStyle(sheet, start, end, headerStyle); err != nil {
				return fmt.Errorf("set header style: %w", err)
			}
		}
	}
	return f.SetColWidth(sheet, "A", "A", 22)
}

func isHeader(row []any) bool {
	s, ok := row[0].(string)
	return ok && (s == "廠商" || s == "類別")
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d of %s: %w", row, sheet, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(time.Local).Format("2006-01-02 15:04")
}

func optional(v *float64) any {
	if v == nil {
		return "N/A"
	}
	return round1(*v)
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
