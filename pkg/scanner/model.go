package scanner

import "fmt"

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c *Coordinates) String() string {
	if c == nil {
		return "(none)"
	}
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// ScanRecord is the body of POST /api/scan.  Absent coordinates serialize as null.
type ScanRecord struct {
	PharmacyPublicID string   `json:"pharmacy_public_id"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	RawQR            string   `json:"raw_qr"`
}

func NewScanRecord(pharmacyPublicID string, coords *Coordinates, rawQR string) ScanRecord {
	record := ScanRecord{
		PharmacyPublicID: pharmacyPublicID,
		RawQR:            rawQR,
	}
	if coords != nil {
		lat, lon := coords.Latitude, coords.Longitude
		record.Latitude = &lat
		record.Longitude = &lon
	}
	return record
}

type ScanResult struct {
	Ok     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	ScanID string `json:"scan_id,omitempty"`
}
