// internal/daily/daily.go
//
// Deterministic daily target selection.
// Every player on the same UTC calendar day gets the same table index; the
// next day moves one step along the table, so consecutive days never repeat
// unless the table has a single entry. An optional salt shifts the whole
// sequence by a fixed HMAC-derived offset so the order is not simply the
// table order.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// DayNumber returns the count of whole UTC days since 1970-01-01.
// Dates before the epoch are negative.
func DayNumber(t time.Time) int64 {
	s := t.UTC().Unix()
	d := s / secondsPerDay
	if s%secondsPerDay < 0 {
		d--
	}
	return d
}

// TargetIndex returns the index of the day's target in a table of n entries.
func TargetIndex(date time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	m := int64(n)
	idx := (DayNumber(date)%m + int64(offset(salt, n))) % m
	if idx < 0 {
		idx += m
	}
	return int(idx)
}

// offset is HMAC(salt, "offset") % n; an empty salt means no shift.
func offset(salt string, n int) int {
	if salt == "" || n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte("offset"))
	sum := h.Sum(nil)
	return int(binary.BigEndian.Uint64(sum[:8]) % uint64(n))
}
