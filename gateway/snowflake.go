package gateway

import (
	"strconv"
	"time"
)

// discordEpochMs is the custom epoch (2015-01-01T00:00:00.000Z) snowflake
// timestamps are relative to.
const discordEpochMs uint64 = 1420070400000

// Snowflake is a Discord ID: a 64-bit unsigned integer whose upper 42 bits
// encode a millisecond timestamp, transmitted on the wire as a decimal
// string because it exceeds the safe integer range of some JSON decoders.
type Snowflake uint64

// ParseSnowflake parses the decimal string form of a Snowflake.
func ParseSnowflake(s string) (Snowflake, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return Snowflake(v), nil
}

func (s Snowflake) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

// Timestamp returns the creation time encoded in the snowflake.
func (s Snowflake) Timestamp() time.Time {
	ms := discordEpochMs + (uint64(s) >> 22)
	return time.UnixMilli(int64(ms))
}

// MarshalJSON encodes the snowflake as a quoted decimal string.
func (s Snowflake) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes a quoted decimal string into a snowflake.
func (s *Snowflake) UnmarshalJSON(b []byte) error {
	str, err := strconv.Unquote(string(b))
	if err != nil {
		return err
	}
	v, err := ParseSnowflake(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}
