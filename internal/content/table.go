package content

import "context"

// Table is a spreadsheet-like store of named sheets. Row indexes are 0-based
// positions in the slice returned by Rows, header row included.
type Table interface {
	// Rows returns every row of a sheet; a missing sheet reads as empty.
	Rows(ctx context.Context, sheet string) ([][]string, error)
	// Append adds a row, creating the sheet with header first if needed.
	Append(ctx context.Context, sheet string, header, row []string) error
	UpdateRow(ctx context.Context, sheet string, index int, row []string) error
	DeleteRow(ctx context.Context, sheet string, index int) error
	// ReadCell returns "" for a missing sheet or empty cell.
	ReadCell(ctx context.Context, sheet, cell string) (string, error)
	// WriteCell creates the sheet if needed.
	WriteCell(ctx context.Context, sheet, cell, value string) error
}

const (
	SheetTeam          = "Team"
	SheetBlogs         = "Blogs"
	SheetAnnouncements = "Announcements"
	SheetMathemania    = "Mathemania"
	SheetContact       = "Contact"

	announcementCell = "A1"
)

var (
	teamHeader = []string{"id", "name", "role", "bio", "image", "linkedin", "github"}
	blogHeader = []string{"ID", "Title", "Author", "Date", "Content"}
	formHeader = []string{
		"Timestamp", "Team Name", "Leader Name", "Leader Email", "Institute", "Contact Number",
		"Member 2 Name", "Member 2 Email", "Member 3 Name", "Member 3 Email", "Member 4 Name", "Member 4 Email",
	}
	contactHeader = []string{"Timestamp", "Name", "Email", "Message"}
)

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// columnIndex finds the first header matching one of names, or fallback.
func columnIndex(header []string, fallback int, names ...string) int {
	for _, name := range names {
		for i, h := range header {
			if h == name {
				return i
			}
		}
	}
	return fallback
}
