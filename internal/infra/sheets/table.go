package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

// Rows reads columns A to Z of a sheet. A sheet that does not exist yet
// reads as empty.
func (c *Client) Rows(ctx context.Context, sheet string) ([][]string, error) {
	resp, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, sheet+"!A:Z").Context(ctx).Do()
	if err != nil {
		if isMissingRange(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", sheet, err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, values := range resp.Values {
		row := make([]string, len(values))
		for i := range values {
			row[i] = get(values, i)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Append adds row after the last one. A missing sheet is created with
// header as its first row.
func (c *Client) Append(ctx context.Context, sheet string, header, row []string) error {
	created, err := c.ensureSheet(ctx, sheet)
	if err != nil {
		return err
	}
	values := [][]interface{}{toValues(row)}
	if created && len(header) > 0 {
		values = append([][]interface{}{toValues(header)}, values...)
	}
	vr := &sheetsv4.ValueRange{Values: values}
	_, err = c.srv.Spreadsheets.Values.Append(c.spreadsheetID, sheet+"!A:Z", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", sheet, err)
	}
	return nil
}

func (c *Client) UpdateRow(ctx context.Context, sheet string, index int, row []string) error {
	if index < 0 {
		return fmt.Errorf("row %d out of range in %s", index, sheet)
	}
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{toValues(row)}}
	// sheet rows are 1-indexed
	_, err := c.srv.Spreadsheets.Values.Update(c.spreadsheetID, fmt.Sprintf("%s!A%d", sheet, index+1), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update %s row %d: %w", sheet, index, err)
	}
	return nil
}

func (c *Client) DeleteRow(ctx context.Context, sheet string, index int) error {
	ids, err := c.sheetIDs(ctx)
	if err != nil {
		return err
	}
	id, ok := ids[sheet]
	if !ok {
		return fmt.Errorf("sheet %s not found", sheet)
	}
	req := &sheetsv4.BatchUpdateSpreadsheetRequest{Requests: []*sheetsv4.Request{{
		DeleteDimension: &sheetsv4.DeleteDimensionRequest{
			Range: &sheetsv4.DimensionRange{
				SheetId:    id,
				Dimension:  "ROWS",
				StartIndex: int64(index),
				EndIndex:   int64(index + 1),
				// zero values are dropped from the request body otherwise
				ForceSendFields: []string{"SheetId", "StartIndex"},
			},
		},
	}}}
	if _, err := c.srv.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete %s row %d: %w", sheet, index, err)
	}
	return nil
}

func (c *Client) ReadCell(ctx context.Context, sheet, a1 string) (string, error) {
	resp, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, sheet+"!"+a1).Context(ctx).Do()
	if err != nil {
		if isMissingRange(err) {
			return "", nil
		}
		return "", fmt.Errorf("read %s!%s: %w", sheet, a1, err)
	}
	if len(resp.Values) == 0 {
		return "", nil
	}
	return get(resp.Values[0], 0), nil
}

func (c *Client) WriteCell(ctx context.Context, sheet, a1, value string) error {
	if _, err := c.ensureSheet(ctx, sheet); err != nil {
		return err
	}
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{{value}}}
	_, err := c.srv.Spreadsheets.Values.Update(c.spreadsheetID, sheet+"!"+a1, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, a1, err)
	}
	return nil
}

func (c *Client) sheetIDs(ctx context.Context) (map[string]int64, error) {
	ss, err := c.srv.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties(sheetId,title)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read spreadsheet: %w", err)
	}
	ids := make(map[string]int64, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s == nil || s.Properties == nil {
			continue
		}
		ids[s.Properties.Title] = s.Properties.SheetId
	}
	return ids, nil
}

func (c *Client) ensureSheet(ctx context.Context, sheet string) (bool, error) {
	ids, err := c.sheetIDs(ctx)
	if err != nil {
		return false, err
	}
	if _, ok := ids[sheet]; ok {
		return false, nil
	}
	req := &sheetsv4.BatchUpdateSpreadsheetRequest{Requests: []*sheetsv4.Request{{
		AddSheet: &sheetsv4.AddSheetRequest{Properties: &sheetsv4.SheetProperties{Title: sheet}},
	}}}
	if _, err := c.srv.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return false, fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	return true, nil
}

// isMissingRange reports the API's answer for a range on a sheet that does
// not exist.
func isMissingRange(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range")
}

func toValues(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

func get(row []interface{}, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	return fmt.Sprint(row[i])
}
