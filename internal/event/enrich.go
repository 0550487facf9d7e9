package event

import "time"

// Enrich returns a copy of the redacted event with the server-observed
// client address and capture time stamped in. The "ip" and "timestamp" keys
// are authoritative: client-supplied values under the same names are
// overwritten. The timestamp is rendered in UTC RFC3339.
func Enrich(evt map[string]any, ip string, now time.Time) map[string]any {
	record := make(map[string]any, len(evt)+2)
	for k, v := range evt {
		record[k] = v
	}
	record["ip"] = ip
	record["timestamp"] = now.UTC().Format(time.RFC3339)
	return record
}
