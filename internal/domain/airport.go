package domain

// Airport is a row of the airport reference table used to resolve IATA codes
// to ICAO station codes.
type Airport struct {
	IATA    string `json:"iata"`
	ICAO    string `json:"icao"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
}
