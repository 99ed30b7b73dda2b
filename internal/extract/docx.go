package extract

import (
	"bytes"
	"context"
	"fmt"

	"code.sajari.com/docconv/v2"
)

// DOCX extracts paragraph text from Word documents.
type DOCX struct{}

func (DOCX) Extract(_ context.Context, content []byte) (string, error) {
	body, _, err := docconv.ConvertDocx(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to read docx document: %w", err)
	}
	return body, nil
}
