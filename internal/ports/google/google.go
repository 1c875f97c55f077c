// Package google appends exported reports to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finwise/internal/ports"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ ports.ReportWriter = (*Client)(nil)

// New creates a Sheets client for spreadsheetID. credentialsJSON holds a
// service account key; when empty, opts must supply authentication (or
// Application Default Credentials are used).
func New(ctx context.Context, spreadsheetID string, credentialsJSON []byte, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	var all []goption.ClientOption
	if len(credentialsJSON) > 0 {
		all = append(all,
			goption.WithCredentialsJSON(credentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	}
	all = append(all, opts...)

	svc, err := gsheet.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets report writer ready", "spreadsheet_id", spreadsheetID)
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// AppendRows adds rows after the last filled row of sheet and returns the
// updated range in A1 notation.
func (c *Client) AppendRows(ctx context.Context, sheet string, rows [][]string) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if len(rows) == 0 {
		return "", nil
	}

	rng := fmt.Sprintf("%s!A:A", sheet)
	vr := &gsheet.ValueRange{Values: toValues(rows)}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", sheet, err)
	}
	if resp.Updates == nil {
		return "", nil
	}
	return resp.Updates.UpdatedRange, nil
}

func toValues(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = v
		}
		out[i] = vals
	}
	return out
}
