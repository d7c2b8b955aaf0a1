package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mattfenwick/pickupscan/pkg/scanner"
	"github.com/mattfenwick/pickupscan/pkg/utils"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
)

const ScansPath = "api/scans"

// ScanRow is a scan as the listing endpoint reports it.  ScannedAt is kept
// as the server's string so unexpected formats are shown as-is.
type ScanRow struct {
	ID               string   `json:"id"`
	ScannedAt        string   `json:"scanned_at"`
	PharmacyPublicID string   `json:"pharmacy_public_id"`
	PharmacyName     string   `json:"pharmacy_name"`
	RegionName       string   `json:"region_name"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	IPAddress        string   `json:"ip_address"`
	Duplicate        bool     `json:"duplicate"`
}

func FetchScans(ctx context.Context, restyClient *resty.Client) ([]*ScanRow, error) {
	resp, err := scanner.IssueRequest(ctx, restyClient, "GET", ScansPath, nil, nil)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, errors.Errorf("bad status code for GET to path %s: %d, response %s",
			ScansPath, resp.StatusCode(), utils.StringPrefix(resp.String(), 200))
	}
	var rows []*ScanRow
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, errors.Wrapf(err, "unable to unmarshal scans from %s", ScansPath)
	}
	return rows, nil
}

func ScansTable(rows []*ScanRow, loc *time.Location) string {
	tableString := &strings.Builder{}
	table := tablewriter.NewWriter(tableString)
	table.SetAutoWrapText(false)
	table.SetRowLine(true)
	table.SetHeader([]string{"Scanned", "Pharmacy", "Region", "Position", "Client", "Duplicate"})
	for _, row := range rows {
		scannedAt, _ := FormatLocal(row.ScannedAt, loc)
		duplicate := "N"
		if row.Duplicate {
			duplicate = "Y"
		}
		region := row.RegionName
		if region == "" {
			region = "-"
		}
		table.Append([]string{
			scannedAt,
			fmt.Sprintf("%s\n%s", row.PharmacyName, row.PharmacyPublicID),
			region,
			position(row.Latitude, row.Longitude),
			row.IPAddress,
			duplicate,
		})
	}
	table.Render()
	return tableString.String()
}

func position(lat *float64, lon *float64) string {
	if lat == nil || lon == nil {
		return "-"
	}
	return fmt.Sprintf("%.5f, %.5f", *lat, *lon)
}
