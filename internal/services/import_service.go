package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/cbt-service/internal/events"
	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
	"github.com/SAP-F-2025/cbt-service/internal/validator"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	contentTypeCSV  = "text/csv"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ImportColumns is the header row of the import template.
var ImportColumns = []string{
	"text", "subject", "classLevel", "term", "topic", "difficulty",
	"optionA", "optionB", "optionC", "optionD", "optionE", "correct",
}

var requiredImportColumns = []string{"text", "subject", "optiona", "optionb", "optionc", "optiond", "correct"}

// headerAliases maps normalised header cells to canonical column keys.
var headerAliases = map[string]string{
	"question":      "text",
	"questiontext":  "text",
	"class":         "classlevel",
	"a":             "optiona",
	"b":             "optionb",
	"c":             "optionc",
	"d":             "optiond",
	"e":             "optione",
	"answer":        "correct",
	"correctoption": "correct",
	"correctanswer": "correct",
}

type importService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewImportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) ImportService {
	return &importService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

type importRow struct {
	index int
	req   *models.QuestionCreateRequest
}

func (s *importService) ImportQuestions(ctx context.Context, examID *uint, filename string, data []byte) (*models.ImportResult, error) {
	s.logger.InfoContext(ctx, "Importing questions", "filename", filename, "bytes", len(data), "exam_id", examID)

	records, err := readImportFile(filename, data)
	if err != nil {
		return nil, err
	}
	rows, err := parseImportRecords(records)
	if err != nil {
		return nil, err
	}

	result := &models.ImportResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exam *models.Exam
		if examID != nil {
			var err error
			exam, err = s.repo.Exam().GetByIDForUpdate(ctx, tx, *examID)
			if err != nil {
				return mapNotFound(err, ErrExamNotFound)
			}
		}

		questions := make([]*models.Question, 0, len(rows))
		for _, row := range rows {
			if exam != nil && trimmed(row.req.ClassLevel) == nil {
				row.req.ClassLevel = &exam.ClassLevel
			}
			if err := s.validator.ValidateQuestion(row.req); err != nil {
				result.Errors = append(result.Errors, models.ImportRowError{Row: row.index, Errors: errorMessages(err)})
				continue
			}
			questions = append(questions, questionFromRequest(row.req))
		}

		if len(questions) == 0 {
			return rowErrorsToValidation(result.Errors)
		}

		if err := s.repo.Question().CreateBatch(ctx, tx, questions); err != nil {
			return fmt.Errorf("failed to import questions: %w", err)
		}

		if exam != nil {
			maxOrder, err := s.repo.ExamQuestion().GetMaxOrder(ctx, tx, exam.ID)
			if err != nil {
				return err
			}
			entries := make([]*models.ExamQuestion, len(questions))
			for i, q := range questions {
				entries[i] = &models.ExamQuestion{ExamID: exam.ID, QuestionID: q.ID, Order: maxOrder + i + 1}
			}
			if err := s.repo.ExamQuestion().CreateBatch(ctx, tx, entries); err != nil {
				return fmt.Errorf("failed to attach imported questions: %w", err)
			}
		}

		result.Committed = len(questions)
		result.QuestionIDs = make([]uint, len(questions))
		for i, q := range questions {
			result.QuestionIDs[i] = q.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if examID != nil {
		s.repo.ExamQuestion().InvalidatePaper(ctx, *examID)
	}

	s.logger.InfoContext(ctx, "Questions imported",
		"committed", result.Committed,
		"rejected", len(result.Errors),
		"exam_id", examID)
	eventData := map[string]interface{}{"committed": result.Committed, "rejected": len(result.Errors), "filename": filename}
	if examID != nil {
		eventData["exam_id"] = *examID
	}
	publishEvent(ctx, s.publisher, s.logger, events.QuestionsImported, "question", "", eventData)

	if len(result.Errors) > 0 {
		return result, &ImportPartialFailure{Result: result}
	}
	return result, nil
}

func (s *importService) Template(format string) ([]byte, string, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "", FormatCSV:
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write(ImportColumns); err != nil {
			return nil, "", err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), contentTypeCSV, nil

	case FormatXLSX:
		f := excelize.NewFile()
		defer f.Close()
		sheet := f.GetSheetName(0)
		header := make([]interface{}, len(ImportColumns))
		for i, c := range ImportColumns {
			header[i] = c
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return nil, "", fmt.Errorf("failed to write template header: %w", err)
		}
		buf, err := f.WriteToBuffer()
		if err != nil {
			return nil, "", fmt.Errorf("failed to write template: %w", err)
		}
		return buf.Bytes(), contentTypeXLSX, nil

	default:
		return nil, "", NewValidationError("unsupported template format %q", format)
	}
}

// ===== PARSING =====

// readImportFile returns every row of the file, header included.
func readImportFile(filename string, data []byte) ([][]string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, NewValidationError("import file is empty")
	}

	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case FormatCSV:
		r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
		r.FieldsPerRecord = -1
		r.TrimLeadingSpace = true
		var records [][]string
		for {
			rec, err := r.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, NewValidationError("malformed csv: %v", err)
			}
			records = append(records, rec)
		}
		return records, nil

	case FormatXLSX:
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, NewValidationError("unreadable xlsx file: %v", err)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, NewValidationError("xlsx file has no sheets")
		}
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, NewValidationError("unreadable sheet %q: %v", sheets[0], err)
		}
		return rows, nil

	default:
		return nil, NewValidationError("unsupported file type %q, expected .csv or .xlsx", filepath.Ext(filename))
	}
}

func parseImportRecords(records [][]string) ([]importRow, error) {
	if len(records) == 0 {
		return nil, NewValidationError("import file has no header row")
	}

	columns := make(map[string]int)
	for i, cell := range records[0] {
		key := normalizeHeader(cell)
		if key == "" {
			continue
		}
		if _, dup := columns[key]; !dup {
			columns[key] = i
		}
	}
	var missing []string
	for _, c := range requiredImportColumns {
		if _, ok := columns[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, NewValidationError("import file is missing columns: %s", strings.Join(missing, ", "))
	}

	rows := make([]importRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		if blankRecord(rec) {
			continue
		}
		cell := func(key string) string {
			idx, ok := columns[key]
			if !ok || idx >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[idx])
		}
		optional := func(key string) *string {
			if v := cell(key); v != "" {
				return &v
			}
			return nil
		}

		req := &models.QuestionCreateRequest{
			Text:          cell("text"),
			Subject:       cell("subject"),
			ClassLevel:    optional("classlevel"),
			Topic:         optional("topic"),
			Difficulty:    optional("difficulty"),
			OptionA:       cell("optiona"),
			OptionB:       cell("optionb"),
			OptionC:       cell("optionc"),
			OptionD:       cell("optiond"),
			OptionE:       optional("optione"),
			CorrectOption: cell("correct"),
		}
		if t := cell("term"); t != "" {
			if n, err := strconv.Atoi(t); err == nil {
				req.Term = &n
			} else {
				// Out of range, so the term rule reports it.
				bad := 0
				req.Term = &bad
			}
		}
		rows = append(rows, importRow{index: i + 1, req: req})
	}

	if len(rows) == 0 {
		return nil, NewValidationError("import file has no data rows")
	}
	return rows, nil
}

// normalizeHeader lowercases a header cell and drops spaces, underscores
// and dashes, so "Option A", "option_a" and "optionA" all match.
func normalizeHeader(cell string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(cell)) {
		switch r {
		case ' ', '_', '-', '\ufeff':
			continue
		}
		b.WriteRune(r)
	}
	key := b.String()
	if alias, ok := headerAliases[key]; ok {
		return alias
	}
	return key
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func errorMessages(err error) []string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return ve.Messages()
	}
	return []string{err.Error()}
}

func rowErrorsToValidation(rowErrs []models.ImportRowError) error {
	out := make(validator.ValidationErrors, 0, len(rowErrs))
	for _, re := range rowErrs {
		out = append(out, validator.ValidationError{
			Field:   fmt.Sprintf("row %d", re.Row),
			Message: strings.Join(re.Errors, "; "),
			Rule:    "import_row",
		})
	}
	return out
}
