package stages

import (
	"fmt"
	"html"

	"github.com/a11yflow/pdf-accessibility/internal/models"
)

// renderHTML produces the placeholder accessible rendition of a source
// document. Real text and image extraction is out of scope; the
// document records what was converted and where it came from so the
// output is self-describing.
func renderHTML(job *models.Job, sourceSize int64, pageCount int, cssName string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Accessible rendition of %[1]s</title>
<link rel="stylesheet" href="%[2]s">
</head>
<body>
<header class="conversion-info">
<h1>PDF to HTML Conversion Result</h1>
<dl>
<dt>Job ID</dt><dd>%[3]s</dd>
<dt>Original file</dt><dd>%[1]s</dd>
<dt>Request ID</dt><dd>%[4]s</dd>
</dl>
</header>
<section class="metadata" aria-label="Document metadata">
<h2>Document Metadata</h2>
<ul>
<li>Source: %[5]s</li>
<li>File size: %[6]d bytes</li>
<li>Pages: %[7]d</li>
<li>Converted: %[8]s</li>
</ul>
</section>
<main class="content">
<h2>Document Content</h2>
<p><em>Placeholder rendition. A full implementation would extract text,
images and structure from the source PDF and emit semantic HTML with
alternative text for every image.</em></p>
</main>
</body>
</html>
`,
		html.EscapeString(job.Key),
		html.EscapeString(cssName),
		html.EscapeString(job.JobID),
		html.EscapeString(job.RequestID),
		html.EscapeString(job.InputLocation()),
		sourceSize,
		pageCount,
		html.EscapeString(job.Timestamp),
	)
}

// stylesheet is the fixed companion stylesheet for placeholder output.
const stylesheet = `body {
  font-family: system-ui, sans-serif;
  max-width: 800px;
  margin: 0 auto;
  padding: 20px;
  line-height: 1.6;
}

.conversion-info {
  background-color: #f0f8ff;
  border: 1px solid #0066cc;
  border-radius: 5px;
  padding: 15px;
  margin-bottom: 20px;
}

.metadata {
  background-color: #f9f9f9;
  border-left: 4px solid #ccc;
  padding: 10px 15px;
  margin: 10px 0;
}
`
