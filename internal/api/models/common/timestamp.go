package common

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Largest instant a client clock can produce, in ms (the range of a JavaScript Date)
const maxAbsMillis = 8.64e15

// Timestamp is an instant that travels over the wire as a number of milliseconds
// since the Unix epoch. Sub-millisecond precision is dropped in both directions.
type Timestamp time.Time

func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp(t.UTC().Truncate(time.Millisecond))
}

// TimestampFromMillis floors fractional milliseconds. NaN, infinities and values
// outside the range of a client clock are rejected.
func TimestampFromMillis(millis float64) (Timestamp, error) {
	if math.IsNaN(millis) || math.IsInf(millis, 0) || math.Abs(millis) > maxAbsMillis {
		return Timestamp{}, InvalidTimestamp{Raw: strconv.FormatFloat(millis, 'g', -1, 64)}
	}
	return Timestamp(time.UnixMilli(int64(math.Floor(millis))).UTC()), nil
}

func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

func (t Timestamp) Millis() float64 {
	return float64(time.Time(t).UnixMilli())
}

// UnmarshalJSON accepts a number, or a string holding a number
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return InvalidTimestamp{Raw: raw}
		}
		raw = strings.TrimSpace(s)
	}
	millis, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return InvalidTimestamp{Raw: raw}
	}
	parsed, err := TimestampFromMillis(millis)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, t.Millis(), 'f', -1, 64), nil
}

// InvalidTimestamp is returned when a wire timestamp cannot be read
type InvalidTimestamp struct {
	Raw string
}

func (e InvalidTimestamp) Error() string {
	return fmt.Sprintf("Invalid timestamp [%s], expected milliseconds since the epoch", e.Raw)
}
