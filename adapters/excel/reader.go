package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"gosurv/domain/core"
	"gosurv/domain/survival"
)

// ColumnMapping names the columns an observation table is read from.
// Event, Count and Amount are optional; when the event column is absent every
// row is treated as an observed event (the builder still forces terminal
// censoring per subject).
type ColumnMapping struct {
	Subject string `json:"subject"`
	Time    string `json:"time"`
	Event   string `json:"event"`
	Count   string `json:"count"`
	Amount  string `json:"amount"`
}

// DefaultColumnMapping matches the conventional header names.
func DefaultColumnMapping() ColumnMapping {
	return ColumnMapping{
		Subject: "subject",
		Time:    "time",
		Event:   "event",
		Count:   "count",
		Amount:  "amount",
	}
}

// ObservationReader reads observation tables from Excel and CSV files.
type ObservationReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	mapping  ColumnMapping
}

// NewObservationReader creates a reader for the given file, picking the
// format from the extension.
func NewObservationReader(filePath string, mapping ColumnMapping) *ObservationReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &ObservationReader{filePath: filePath, fileType: fileType, mapping: mapping}
}

// Read loads all observations from the file.
func (r *ObservationReader) Read() ([]survival.Observation, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("data file not found: %s", r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("data file must have a header row and at least one data row")
	}
	return r.parseRows(rows)
}

func (r *ObservationReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read first sheet: %w", err)
	}
	return rows, nil
}

func (r *ObservationReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// parseRows converts header + data rows into observations.
func (r *ObservationReader) parseRows(rows [][]string) ([]survival.Observation, error) {
	columns := make(map[string]int)
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	subjectCol, ok := columns[strings.ToLower(r.mapping.Subject)]
	if !ok {
		return nil, fmt.Errorf("%w: column %q", core.ErrMissingSubject, r.mapping.Subject)
	}
	timeCol, ok := columns[strings.ToLower(r.mapping.Time)]
	if !ok {
		return nil, core.NewInvalidInputError("time column", fmt.Sprintf("%q not found", r.mapping.Time))
	}
	eventCol, hasEvent := columns[strings.ToLower(r.mapping.Event)]
	countCol, hasCount := columns[strings.ToLower(r.mapping.Count)]
	amountCol, hasAmount := columns[strings.ToLower(r.mapping.Amount)]

	observations := make([]survival.Observation, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}

		obs := survival.Observation{Event: true}

		obs.Subject = core.SubjectID(strings.TrimSpace(cell(row, subjectCol)))
		if obs.Subject == "" {
			return nil, fmt.Errorf("row %d: %w", i+2, core.ErrMissingSubject)
		}

		t, err := strconv.ParseFloat(strings.TrimSpace(cell(row, timeCol)), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d (subject %s): %w: %q", i+2, obs.Subject, core.ErrNonNumericTime, cell(row, timeCol))
		}
		obs.Time = t

		if hasEvent {
			obs.Event = parseEvent(cell(row, eventCol))
		}
		if hasCount {
			obs.Count, err = parseOptionalFloat(cell(row, countCol))
			if err != nil {
				return nil, fmt.Errorf("row %d (subject %s): %w", i+2, obs.Subject,
					core.NewInvalidInputError("count value", fmt.Sprintf("%q is not numeric", strings.TrimSpace(cell(row, countCol)))))
			}
		}
		if hasAmount {
			obs.Amount, err = parseOptionalFloat(cell(row, amountCol))
			if err != nil {
				return nil, fmt.Errorf("row %d (subject %s): %w", i+2, obs.Subject,
					core.NewInvalidInputError("amount value", fmt.Sprintf("%q is not numeric", strings.TrimSpace(cell(row, amountCol)))))
			}
		}

		observations = append(observations, obs)
	}
	return observations, nil
}

// parseOptionalFloat parses an optional covariate cell. A blank cell means the
// covariate was not recorded and reads as zero.
func parseOptionalFloat(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseEvent(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "event":
		return true
	default:
		return false
	}
}
