package domain

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

func EncodeDataURL(mimeType string, content []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(content)
}

// DecodeDataURL accepts a base64 data URL or bare base64 and returns the declared mime type
// (empty when absent) and the content.
func DecodeDataURL(s string) (string, []byte, error) {
	mimeType := ""
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		meta, data, found := strings.Cut(rest, ",")
		if !found {
			return "", nil, errors.New("malformed data URL")
		}
		if !strings.HasSuffix(meta, ";base64") {
			return "", nil, errors.New("data URL is not base64 encoded")
		}
		mimeType = strings.TrimSuffix(meta, ";base64")
		s = data
	}
	content, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", nil, fmt.Errorf("decode file data: %w", err)
	}
	return mimeType, content, nil
}
