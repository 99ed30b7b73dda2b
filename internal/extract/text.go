package extract

import (
	"bytes"
	"context"
	"errors"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Text decodes plain UTF-8 files.
type Text struct{}

func (Text) Extract(_ context.Context, content []byte) (string, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if !utf8.Valid(content) {
		return "", errors.New("text file is not valid UTF-8")
	}
	return string(content), nil
}
