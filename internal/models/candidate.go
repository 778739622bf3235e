package models

// ExtraInfo is one labelled snippet scraped from a candidate card (e.g. "期望职位").
type ExtraInfo struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// CandidateRecord is one scanned candidate. Empty strings and a nil Age mean
// the field was not present on the card.
type CandidateRecord struct {
	Name        string      `json:"name"`
	Age         *int        `json:"age,omitempty"`
	Education   string      `json:"education,omitempty"`
	University  string      `json:"university,omitempty"`
	Description string      `json:"description,omitempty"`
	ExtraInfo   []ExtraInfo `json:"extraInfo,omitempty"`
}

// Point is a screen-space coordinate, already resolved by the page side.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// IntPtr is a small helper for building records with an age.
func IntPtr(v int) *int {
	return &v
}
