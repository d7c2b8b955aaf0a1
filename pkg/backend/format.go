package backend

import (
	"fmt"
	"strings"

	"github.com/mattfenwick/collections/pkg/slice"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/exp/maps"
)

// QRLink is the payload printed into a pharmacy's QR code.
func QRLink(domain string, publicID string) string {
	return fmt.Sprintf("%s/?p=%s", strings.TrimRight(domain, "/"), publicID)
}

func yesNo(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}

func (r *Registry) RegionsTable() string {
	tableString := &strings.Builder{}
	table := tablewriter.NewWriter(tableString)
	table.SetAutoWrapText(false)
	table.SetRowLine(true)
	table.SetHeader([]string{"Code", "Name", "Public ID", "Active"})
	for _, region := range slice.SortOn(func(region *Region) string { return region.Code }, maps.Values(r.Regions)) {
		table.Append([]string{region.Code, region.Name, region.PublicID, yesNo(region.IsActive)})
	}
	table.Render()
	return tableString.String()
}

func (r *Registry) PharmaciesTable(domain string) string {
	tableString := &strings.Builder{}
	table := tablewriter.NewWriter(tableString)
	table.SetAutoWrapText(false)
	table.SetRowLine(true)
	table.SetHeader([]string{"Name", "Address", "Region", "Active", "QR Link"})
	for _, pharmacy := range r.SortedPharmacies() {
		region := "-"
		if found := r.Region(pharmacy.RegionID); found != nil {
			region = found.Code
		}
		table.Append([]string{pharmacy.Name, pharmacy.Address, region, yesNo(pharmacy.IsActive), QRLink(domain, pharmacy.PublicID)})
	}
	table.Render()
	return tableString.String()
}
