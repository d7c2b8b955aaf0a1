package backend

import "time"

type Region struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	PublicID string `json:"public_id"`
	IsActive bool   `json:"is_active"`
}

type Pharmacy struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	PublicID string `json:"public_id"`
	RegionID *int   `json:"region_id,omitempty"`
	IsActive bool   `json:"is_active"`
}

type ScanEvent struct {
	ID               string    `json:"id"`
	ScannedAt        time.Time `json:"scanned_at"`
	PharmacyID       int       `json:"pharmacy_id"`
	PharmacyPublicID string    `json:"pharmacy_public_id"`
	PharmacyName     string    `json:"pharmacy_name"`
	RegionID         *int      `json:"region_id"`
	RegionName       string    `json:"region_name,omitempty"`
	Latitude         *float64  `json:"latitude"`
	Longitude        *float64  `json:"longitude"`
	RawQR            string    `json:"raw_qr"`
	UserAgent        string    `json:"user_agent"`
	IPAddress        string    `json:"ip_address"`
	Duplicate        bool      `json:"duplicate"`
}

// ClientInfo is request metadata stored alongside a scan.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// Rejection is a scan the server refuses; Message goes back to the scanner verbatim.
type Rejection struct {
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}
