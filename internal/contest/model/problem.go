package model

// Problem is the judge-facing view of a catalog problem. Immutable for the
// purposes of this service.
type Problem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`

	// MaxPoints is the ceiling the referee can award. Always > 0.
	MaxPoints int `json:"max_points"`

	// Input is fed to the execution as stdin.
	Input string `json:"input"`

	// ExpectedOutput is what the referee scores the run against.
	ExpectedOutput string `json:"expected_output"`

	// Opaque descriptive fields, not interpreted here.
	DescriptionURL string `json:"description_url,omitempty"`
	DownloadURL    string `json:"download_url,omitempty"`
}
