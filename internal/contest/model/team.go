package model

// Team is a scoring participant. Points is the sum over problems of the
// team's best submission for each problem; it never decreases.
type Team struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}
