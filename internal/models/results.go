package models

// Per-stage status enums. Each branch in the orchestrator recognizes
// exactly the declared success and failure values; anything else falls
// through to the stage's failure terminal.

// ValidationStatus is the declared outcome of the validate stage.
type ValidationStatus string

const (
	ValidationValid   ValidationStatus = "VALID"
	ValidationInvalid ValidationStatus = "INVALID"
)

// DownloadStatus is the declared outcome of the download stage.
type DownloadStatus string

const (
	DownloadDownloaded DownloadStatus = "DOWNLOADED"
	DownloadFailed     DownloadStatus = "FAILED"
)

// ConversionStatus is the declared outcome of the convert stage.
type ConversionStatus string

const (
	ConversionConverted ConversionStatus = "CONVERTED"
	ConversionFailed    ConversionStatus = "FAILED"
)

// UploadStatus is the declared outcome of the upload stage.
type UploadStatus string

const (
	UploadUploaded UploadStatus = "UPLOADED"
	UploadFailed   UploadStatus = "FAILED"
)

// CleanupStatus is the declared outcome of the cleanup stage. Cleanup
// never fails a job; a failed removal degrades the run to
// COMPLETED_WITH_WARNINGS.
type CleanupStatus string

const (
	CleanupCompleted    CleanupStatus = "COMPLETED"
	CleanupWithWarnings CleanupStatus = "COMPLETED_WITH_WARNINGS"
)

// FileCategory classifies a produced artifact.
type FileCategory string

const (
	FileHTML  FileCategory = "html"
	FileCSS   FileCategory = "css"
	FileImage FileCategory = "image"
)

// ValidationResult is the validate stage's output.
type ValidationResult struct {
	Status      ValidationStatus `json:"status"`
	Reason      string           `json:"reason,omitempty"`
	Size        int64            `json:"size,omitempty"`
	ContentType string           `json:"contentType,omitempty"`
	NextStep    string           `json:"nextStep,omitempty"`
}

// DownloadResult is the download stage's output.
type DownloadResult struct {
	Status    DownloadStatus `json:"status"`
	Reason    string         `json:"reason,omitempty"`
	LocalPath string         `json:"localPath,omitempty"`
	WorkDir   string         `json:"workDir,omitempty"`
	Size      int64          `json:"size,omitempty"`
	NextStep  string         `json:"nextStep,omitempty"`
}

// ConvertedFile names one artifact produced by the convert stage,
// relative to the output directory.
type ConvertedFile struct {
	Name        string       `json:"name"`
	Category    FileCategory `json:"category"`
	ContentType string       `json:"contentType"`
}

// ConversionResult is the convert stage's output. Files are relative
// names under OutputDir; the upload stage reads them.
type ConversionResult struct {
	Status     ConversionStatus `json:"status"`
	Reason     string           `json:"reason,omitempty"`
	OutputDir  string           `json:"outputDir,omitempty"`
	Files      []ConvertedFile  `json:"files,omitempty"`
	HTMLCount  int              `json:"htmlCount"`
	CSSCount   int              `json:"cssCount"`
	ImageCount int              `json:"imageCount"`
	TotalCount int              `json:"totalCount"`
	PageCount  int              `json:"pageCount,omitempty"`
	NextStep   string           `json:"nextStep,omitempty"`
}

// UploadResult is the upload stage's output.
type UploadResult struct {
	Status         UploadStatus `json:"status"`
	Reason         string       `json:"reason,omitempty"`
	OutputLocation string       `json:"outputLocation,omitempty"`
	HTMLFiles      []string     `json:"htmlFiles,omitempty"`
	CSSFiles       []string     `json:"cssFiles,omitempty"`
	ImageFiles     []string     `json:"imageFiles,omitempty"`
	ManifestKey    string       `json:"manifestKey,omitempty"`
	TotalUploaded  int          `json:"totalUploaded"`
	NextStep       string       `json:"nextStep,omitempty"`
}

// CleanupResult is the cleanup stage's output.
type CleanupResult struct {
	Status      CleanupStatus `json:"status"`
	RemovedPath string        `json:"removedPath,omitempty"`
	Warning     string        `json:"warning,omitempty"`
}
