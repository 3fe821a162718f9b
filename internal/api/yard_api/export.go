package yard_api

import (
	"strconv"

	"github.com/BearBump/YardBox/internal/models"
	"github.com/BearBump/YardBox/internal/yarderr"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const (
	dailySheet     = "Daily Dwell"
	violatorsSheet = "Violators"
)

var (
	dailyHeader     = []any{"Date", "Avg Dwell (h)", "Max Dwell (h)", "Departures", "Violations", "Calculated At"}
	violatorsHeader = []any{"Date", "Trailer", "Carrier", "Door", "Dwell (h)"}
)

// DwellWorkbook renders daily aggregates as an xlsx file: one row per day and
// one row per recorded violator.
func DwellWorkbook(stats []*models.DailyStat) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", dailySheet); err != nil {
		return nil, yarderr.Internal(errors.Wrap(err, "rename sheet"), "build workbook")
	}
	if _, err := f.NewSheet(violatorsSheet); err != nil {
		return nil, yarderr.Internal(errors.Wrap(err, "create sheet"), "build workbook")
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, yarderr.Internal(errors.Wrap(err, "create header style"), "build workbook")
	}

	daily := [][]any{dailyHeader}
	violators := [][]any{violatorsHeader}
	for _, s := range stats {
		daily = append(daily, []any{s.Date, s.AvgDwell, s.MaxDwell, s.Count, s.Violations, s.CalculatedAt.UTC().Format("2006-01-02 15:04:05")})
		for _, v := range s.Violators {
			door := ""
			if v.DoorNumber != nil {
				door = strconv.Itoa(*v.DoorNumber)
			}
			number := v.TrailerNumber
			if number == "" {
				number = v.TrailerID
			}
			violators = append(violators, []any{s.Date, number, v.Carrier, door, v.Dwell})
		}
	}

	if err := writeRows(f, dailySheet, daily, bold); err != nil {
		return nil, err
	}
	if err := writeRows(f, violatorsSheet, violators, bold); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(dailySheet, "A", "F", 16)
	_ = f.SetColWidth(violatorsSheet, "A", "E", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, yarderr.Internal(errors.Wrap(err, "write workbook"), "build workbook")
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return yarderr.Internal(errors.Wrap(err, "cell name"), "build workbook")
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return yarderr.Internal(errors.Wrapf(err, "write %s row %d", sheet, i+1), "build workbook")
		}
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return yarderr.Internal(errors.Wrap(err, "cell name"), "build workbook")
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return yarderr.Internal(errors.Wrap(err, "style header"), "build workbook")
	}
	return nil
}
