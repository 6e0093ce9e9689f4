package resume

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDFText decodes every page's text content, skipping pages the
// reader cannot represent. Font-aware decoding is delegated to the pdf
// package so hex strings and CID-encoded resumes come out as plain text.
func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for n := 1; n <= reader.NumPage(); n++ {
		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}

		if n > 1 {
			builder.WriteString("\n")
		}
		builder.WriteString(text)
	}

	return collapseWhitespace(builder.String()), nil
}

func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
