package domain

import "time"

// ToPaymeTime converts a service timestamp into Payme epoch milliseconds.
// A nil timestamp yields 0, the protocol's sentinel for "not set"; the field
// itself is always present in responses.
func ToPaymeTime(t *time.Time) int64 {
	if t == nil || t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromPaymeTime converts Payme epoch milliseconds into a service timestamp.
func FromPaymeTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
