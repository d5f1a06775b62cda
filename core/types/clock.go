package types

// Clock is the monotonic (slot, unix_timestamp) pair the host hands to
// every entrypoint; no component reads wall-clock time directly (spec §2).
type Clock struct {
	Slot      uint64
	UnixTime  int64
}
