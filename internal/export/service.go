package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/NgigiN/expenso/internal/storage"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

var (
	ErrDestinationUnavailable = errors.New("export destination unavailable")
	ErrWriteFailed            = errors.New("export write failed")
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatXLSX:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown export format %q, use csv or xlsx", s)
}

// Header names the exported columns in Transaction field order.
var Header = []string{"id", "title", "amount", "transactionType", "tag", "date", "note", "createdAt"}

// Row is one exported transaction.
type Row struct {
	ID              int
	Title           string
	Amount          float64
	TransactionType string
	Tag             string
	Date            string
	Note            string
	CreatedAt       int64
}

func (r Row) record() []string {
	return []string{
		strconv.Itoa(r.ID),
		r.Title,
		strconv.FormatFloat(r.Amount, 'f', -1, 64),
		r.TransactionType,
		r.Tag,
		r.Date,
		r.Note,
		strconv.FormatInt(r.CreatedAt, 10),
	}
}

func RowsFromTransactions(list []storage.Transaction) []Row {
	rows := make([]Row, 0, len(list))
	for _, tx := range list {
		rows = append(rows, Row{
			ID:              tx.ID,
			Title:           tx.Title,
			Amount:          tx.Amount,
			TransactionType: tx.TransactionType,
			Tag:             tx.Tag,
			Date:            tx.Date,
			Note:            tx.Note,
			CreatedAt:       tx.CreatedAt,
		})
	}
	return rows
}

// FileName is the default destination name for an export started at now.
func FileName(now time.Time, format Format) string {
	return fmt.Sprintf("expenso_%d.%s", now.UnixMilli(), format)
}

type Service struct {
	dest Destinations
	log  zerolog.Logger
}

func NewService(dest Destinations, log zerolog.Logger) *Service {
	return &Service{dest: dest, log: log}
}

// Write serializes rows in format to handle. It blocks until the sink is
// closed, so callers run it off any latency-sensitive goroutine.
func (s *Service) Write(ctx context.Context, format Format, handle string, rows []Row) (string, error) {
	switch format {
	case FormatCSV:
		return s.WriteCSV(ctx, handle, rows)
	case FormatXLSX:
		return s.WriteXLSX(ctx, handle, rows)
	}
	return "", fmt.Errorf("unknown export format %q", format)
}

// WriteCSV writes a header and one line per row and returns handle.
func (s *Service) WriteCSV(ctx context.Context, handle string, rows []Row) (string, error) {
	return s.write(ctx, handle, len(rows), func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(Header); err != nil {
			return err
		}
		for _, row := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := cw.Write(row.record()); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// WriteXLSX writes the same table as WriteCSV into a single-sheet workbook.
func (s *Service) WriteXLSX(ctx context.Context, handle string, rows []Row) (string, error) {
	return s.write(ctx, handle, len(rows), func(w io.Writer) error {
		f := excelize.NewFile()
		defer f.Close()

		sheet := f.GetSheetName(0)
		if err := f.SetSheetRow(sheet, "A1", &Header); err != nil {
			return err
		}
		for i, row := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return err
			}
			values := []interface{}{row.ID, row.Title, row.Amount, row.TransactionType, row.Tag, row.Date, row.Note, row.CreatedAt}
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return err
			}
		}
		_, err := f.WriteTo(w)
		return err
	})
}

func (s *Service) write(ctx context.Context, handle string, count int, encode func(io.Writer) error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	sink, err := s.dest.Open(handle)
	if err != nil {
		s.log.Error().Err(err).Str("handle", handle).Msg("export destination unavailable")
		return "", fmt.Errorf("%w: %s: %v", ErrDestinationUnavailable, handle, err)
	}

	encErr := encode(sink)
	closeErr := sink.Close()
	if encErr != nil {
		if errors.Is(encErr, context.Canceled) || errors.Is(encErr, context.DeadlineExceeded) {
			return "", encErr
		}
		return "", fmt.Errorf("%w: %s: %v", ErrWriteFailed, handle, encErr)
	}
	if closeErr != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrWriteFailed, handle, closeErr)
	}

	s.log.Info().Str("handle", handle).Int("rows", count).Msg("export written")
	return handle, nil
}
