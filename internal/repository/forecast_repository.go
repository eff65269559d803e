// internal/repository/forecast_repository.go
package repository

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/storage"
	"github.com/xuri/excelize/v2"
)

var forecastDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/2006",
}

type fileForecastRepository struct {
	store      storage.ObjectStorage
	defaultKey string
}

// NewFileForecastRepository reads forecast files (CSV, or XLSX by extension)
// with ds, yhat, yhat_lower and yhat_upper columns.
func NewFileForecastRepository(store storage.ObjectStorage, defaultKey string) ForecastRepository {
	return &fileForecastRepository{store: store, defaultKey: defaultKey}
}

func (r *fileForecastRepository) GetForecast(ctx context.Context, ref string) ([]domain.ForecastPoint, error) {
	key := ref
	if key == "" {
		key = r.defaultKey
	}

	data, err := r.store.GetObject(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("forecast %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("error reading forecast file: %w", err)
	}

	var rows [][]string
	if strings.HasSuffix(strings.ToLower(key), ".xlsx") {
		rows, err = readXLSXRows(data)
	} else {
		rows, err = readCSVRows(data)
	}
	if err != nil {
		return nil, fmt.Errorf("forecast %s: %w: %v", key, ErrInvalidData, err)
	}

	points, err := ParseForecastRows(rows)
	if err != nil {
		return nil, fmt.Errorf("forecast %s: %w", key, err)
	}
	return points, nil
}

func readCSVRows(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

// readXLSXRows returns the rows of the first sheet.
func readXLSXRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("error iterating rows in %s: %w", sheet, err)
	}
	return out, nil
}

// ParseForecastRows maps a header row plus data rows onto forecast points.
// ds and yhat are required; missing bounds default to yhat. Blank rows are
// skipped.
func ParseForecastRows(rows [][]string) ([]domain.ForecastPoint, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no header row: %w", ErrInvalidData)
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"ds", "yhat"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing %q column: %w", required, ErrInvalidData)
		}
	}

	points := make([]domain.ForecastPoint, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		if isBlank(row) {
			continue
		}

		date, err := parseForecastDate(cell(row, col["ds"]))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w: %v", line, ErrInvalidData, err)
		}
		yhat, err := parseFloat(cell(row, col["yhat"]))
		if err != nil {
			return nil, fmt.Errorf("row %d yhat: %w: %v", line, ErrInvalidData, err)
		}

		point := domain.ForecastPoint{Date: date, Yhat: yhat, YhatLower: yhat, YhatUpper: yhat}
		if i, ok := col["yhat_lower"]; ok && cell(row, i) != "" {
			if point.YhatLower, err = parseFloat(cell(row, i)); err != nil {
				return nil, fmt.Errorf("row %d yhat_lower: %w: %v", line, ErrInvalidData, err)
			}
		}
		if i, ok := col["yhat_upper"]; ok && cell(row, i) != "" {
			if point.YhatUpper, err = parseFloat(cell(row, i)); err != nil {
				return nil, fmt.Errorf("row %d yhat_upper: %w: %v", line, ErrInvalidData, err)
			}
		}
		points = append(points, point)
	}
	return points, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

func parseForecastDate(s string) (time.Time, error) {
	for _, layout := range forecastDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
