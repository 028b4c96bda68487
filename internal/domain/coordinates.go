package domain

// Immutable geographic coordinates (latitude, longitude).
type Coordinates struct {
	Lat float64
	Lon float64
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) LonLat() []float64 { return []float64{c.Lon, c.Lat} }

// IsZero reports whether the coordinates are the unset (0, 0) value.
// The null island point is not a valid errand destination.
func (c Coordinates) IsZero() bool { return c.Lat == 0 && c.Lon == 0 }
