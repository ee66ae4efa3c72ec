package memory

import (
	"context"
	"fmt"
	"sync"
)

// Spreadsheet is an in-memory stand-in for the content spreadsheet. Single
// cells written with WriteCell are kept apart from the row data.
type Spreadsheet struct {
	mu     sync.RWMutex
	sheets map[string][][]string
	cells  map[string]string
}

func NewSpreadsheet() *Spreadsheet {
	return &Spreadsheet{
		sheets: make(map[string][][]string),
		cells:  make(map[string]string),
	}
}

// Seed replaces a sheet's rows.
func (s *Spreadsheet) Seed(sheet string, rows ...[]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[sheet] = copyRows(rows)
}

func (s *Spreadsheet) Rows(_ context.Context, sheet string) ([][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyRows(s.sheets[sheet]), nil
}

func (s *Spreadsheet) Append(_ context.Context, sheet string, header, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.sheets[sheet]
	if !ok {
		rows = [][]string{append([]string(nil), header...)}
	}
	s.sheets[sheet] = append(rows, append([]string(nil), row...))
	return nil
}

func (s *Spreadsheet) UpdateRow(_ context.Context, sheet string, index int, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.sheets[sheet]
	if index < 0 || index >= len(rows) {
		return fmt.Errorf("row %d out of range in %s", index, sheet)
	}
	rows[index] = append([]string(nil), row...)
	return nil
}

func (s *Spreadsheet) DeleteRow(_ context.Context, sheet string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.sheets[sheet]
	if index < 0 || index >= len(rows) {
		return fmt.Errorf("row %d out of range in %s", index, sheet)
	}
	s.sheets[sheet] = append(rows[:index:index], rows[index+1:]...)
	return nil
}

func (s *Spreadsheet) ReadCell(_ context.Context, sheet, cell string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cells[sheet+"!"+cell], nil
}

func (s *Spreadsheet) WriteCell(_ context.Context, sheet, cell, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells[sheet+"!"+cell] = value
	return nil
}

func copyRows(rows [][]string) [][]string {
	if rows == nil {
		return nil
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
