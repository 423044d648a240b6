package provider

import (
	"net/url"
	"strings"

	"github.com/haivivi/mediaforge/pkg/encoding"
)

// DataURI encodes data as a base64 data URI.
func DataURI(mimeType string, data []byte) string {
	return encoding.DataURI(mimeType, data)
}

// ParseDataURI splits a data URI into its MIME type and payload.
func ParseDataURI(uri string) (mimeType string, data []byte, ok bool) {
	return encoding.ParseDataURI(uri)
}

// withKey appends key to a resource URI as the "key" query parameter.
func withKey(uri, key string) string {
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return uri + sep + "key=" + url.QueryEscape(key)
}
