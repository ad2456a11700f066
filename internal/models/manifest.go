package models

// Manifest is the persisted JSON summary of a run's produced artifacts,
// written next to them under the output prefix.
type Manifest struct {
	JobID               string         `json:"jobId"`
	SourceFile          string         `json:"sourceFile"`
	ConversionTimestamp string         `json:"conversionTimestamp"`
	ConversionResults   ManifestCounts `json:"conversionResults"`
	GCSLocations        GCSLocations   `json:"gcsLocations"`
}

// ManifestCounts summarizes how many artifacts of each category a run
// produced.
type ManifestCounts struct {
	TotalFiles int `json:"totalFiles"`
	HTMLFiles  int `json:"htmlFiles"`
	CSSFiles   int `json:"cssFiles"`
	ImageFiles int `json:"imageFiles"`
}

// GCSLocations records the gs:// URIs relevant to one run.
type GCSLocations struct {
	Input    string `json:"input"`
	Output   string `json:"output"`
	Manifest string `json:"manifest"`
}

// ErrorReport is the durable diagnostic record produced by the error
// handler for a failed run.
type ErrorReport struct {
	Timestamp     string `json:"timestamp"`
	JobID         string `json:"jobId"`
	InputLocation string `json:"inputLocation,omitempty"`
	ErrorType     string `json:"errorType"`
	ErrorMessage  string `json:"errorMessage"`
	ErrorDetails  string `json:"errorDetails,omitempty"`
	RequestID     string `json:"requestId,omitempty"`
}
