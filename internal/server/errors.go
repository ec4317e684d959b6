package server

// Protocol-level error codes carried in a typed Error response, per
// spec.md §4.8/§7.
const (
	ErrArg     int32 = -1
	ErrUnknown int32 = -2
	ErrType    int32 = -3
)
