package domain

import "time"

// Record is one cleaned customer row from the source dataset. Its position
// is its index in the slice handed to the store.
type Record struct {
	TotalRevenue   float64
	Region         string // package_service
	Category       string // package_category
	ActivationDate time.Time
	LOSSegment     string
	Channel        string
}

// Fingerprint selects customers by activation month, length-of-service
// segment and sales channel.
type Fingerprint struct {
	Year    int
	Month   int
	LOS     string
	Channel string
}
