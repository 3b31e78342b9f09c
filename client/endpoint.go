package client

import "strings"

const incrementPath = "/increment"

// IncrementURL appends /increment after removing exactly one trailing slash.
func IncrementURL(baseURL string) string {
	return strings.TrimSuffix(baseURL, "/") + incrementPath
}
