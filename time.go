package roughtime

import (
	"time"

	"github.com/Sturdy-Statistics/roughtime-protocol/version"
)

// encodeTimestamp and decodeTimestamp implement spec.md §3's "Version 0
// expresses time in microseconds; all others in seconds" rule, shared by
// DELE's MINT/MAXT and SREP's MIDP.
func encodeTimestamp(v version.Version, t time.Time) uint64 {
	if v == version.Google {
		return uint64(t.UnixMicro())
	}
	return uint64(t.Unix())
}

func decodeTimestamp(v version.Version, raw uint64) time.Time {
	if v == version.Google {
		return time.UnixMicro(int64(raw))
	}
	return time.Unix(int64(raw), 0)
}

// encodeRadius and decodeRadius apply the same microseconds-or-seconds
// rule to RADI.
func encodeRadius(v version.Version, d time.Duration) uint32 {
	if v == version.Google {
		return uint32(d / time.Microsecond)
	}
	return uint32(d / time.Second)
}

func decodeRadius(v version.Version, raw uint32) time.Duration {
	if v == version.Google {
		return time.Duration(raw) * time.Microsecond
	}
	return time.Duration(raw) * time.Second
}
