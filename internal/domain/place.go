package domain

// Place is a venue returned by the places search API.
// OpenNow is nil when the API did not report opening hours.
type Place struct {
	ID         string
	Name       string
	Address    string
	Rating     float64
	Types      []string
	MapsURL    string
	Website    string
	OpenNow    *bool
	PriceLevel int
	Hours      []string
}

// Snapshot copies the fields an event keeps about its venue.
func (p Place) Snapshot() Location {
	return Location{
		Name:       p.Name,
		Address:    p.Address,
		Rating:     p.Rating,
		MapsURL:    p.MapsURL,
		Website:    p.Website,
		Types:      append([]string(nil), p.Types...),
		PlaceID:    p.ID,
		PriceLevel: p.PriceLevel,
	}
}
