package wire

import "errors"

// ErrTruncated is returned when a protobuf field's wire bytes run past the
// end of the buffer, or a length-delimited field's declared length does not
// fit in what remains. This is the only failure mode the opaque decoders
// expose to callers — "Failed to parse protobuf from buffer contents" in
// spec.md §7 (ProtobufDecodeFailure).
var ErrTruncated = errors.New("[WIRE]> truncated protobuf message")
