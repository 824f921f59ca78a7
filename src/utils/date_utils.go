package utils

import "time"

const fileTimestampFormat = "20060102-150405"

// FileTimestamp renders t as a compact UTC timestamp for generated file
// names, e.g. "20240115-093012".
func FileTimestamp(t time.Time) string {
	return t.UTC().Format(fileTimestampFormat)
}
