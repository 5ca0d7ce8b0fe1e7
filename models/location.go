package models

import "time"

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// Valid reports whether the coordinates fall inside the WGS84 ranges.
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// LocationSample is the latest reported position of an artisan. Only the most
// recent sample per artisan is retained; there is no history.
type LocationSample struct {
	ArtisanID  string      `bson:"artisan_id" json:"artisanId"`
	Location   Coordinates `bson:"location" json:"location"`
	CapturedAt time.Time   `bson:"captured_at" json:"capturedAt"`
	Online     bool        `bson:"online" json:"online"`
}
