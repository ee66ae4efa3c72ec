package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

// Options configures access to one spreadsheet.
type Options struct {
	SpreadsheetID   string
	CredentialsFile string
	CredentialsJSON string
	// Endpoint overrides the API base URL; it must end with a slash.
	Endpoint string
	// HTTPClient replaces credential based transport when set.
	HTTPClient *http.Client
}

// Client talks to the Google Sheets API for a single spreadsheet.
type Client struct {
	srv           *sheetsv4.Service
	spreadsheetID string
}

func New(ctx context.Context, o Options) (*Client, error) {
	if o.SpreadsheetID == "" {
		return nil, errors.New("sheets: spreadsheet id is required")
	}
	opts := []option.ClientOption{option.WithScopes(sheetsv4.SpreadsheetsScope)}
	switch {
	case o.HTTPClient != nil:
		opts = append(opts, option.WithHTTPClient(o.HTTPClient))
	case o.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(o.CredentialsJSON)))
	case o.CredentialsFile != "":
		if _, err := os.Stat(o.CredentialsFile); err != nil {
			return nil, fmt.Errorf("service account json: %w", err)
		}
		opts = append(opts, option.WithCredentialsFile(o.CredentialsFile))
	default:
		return nil, errors.New("sheets: no service account credentials configured")
	}
	if o.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(o.Endpoint))
	}

	srv, err := sheetsv4.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{srv: srv, spreadsheetID: o.SpreadsheetID}, nil
}

func (c *Client) SpreadsheetID() string { return c.spreadsheetID }
