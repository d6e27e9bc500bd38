package codec

import (
	"strings"

	"github.com/kbukum/streamkit/errors"
)

// FlushPolicy decides how a decoder handles an unpadded final group.
type FlushPolicy int

const (
	// FlushPad pads the final group with '=' before decoding.
	FlushPad FlushPolicy = iota
	// FlushRaw strips any '=' and decodes the final group without padding.
	FlushRaw
)

// String returns the config name of the policy.
func (p FlushPolicy) String() string {
	if p == FlushRaw {
		return "raw"
	}
	return "pad"
}

// ParseFlushPolicy parses "pad" or "raw". An empty string selects FlushPad.
func ParseFlushPolicy(s string) (FlushPolicy, error) {
	switch strings.ToLower(s) {
	case "", "pad":
		return FlushPad, nil
	case "raw":
		return FlushRaw, nil
	default:
		return FlushPad, errors.InvalidArgument("flush", "must be one of: pad, raw")
	}
}

// InvalidPolicy decides how a decoder handles characters outside the
// base64 alphabet.
type InvalidPolicy int

const (
	// InvalidFail stops decoding with a DecodeError at the first bad character.
	InvalidFail InvalidPolicy = iota
	// InvalidSkip discards bad characters and drops undecodable groups.
	InvalidSkip
)

// String returns the config name of the policy.
func (p InvalidPolicy) String() string {
	if p == InvalidSkip {
		return "skip"
	}
	return "fail"
}

// ParseInvalidPolicy parses "fail" or "skip". An empty string selects InvalidFail.
func ParseInvalidPolicy(s string) (InvalidPolicy, error) {
	switch strings.ToLower(s) {
	case "", "fail":
		return InvalidFail, nil
	case "skip":
		return InvalidSkip, nil
	default:
		return InvalidFail, errors.InvalidArgument("invalid", "must be one of: fail, skip")
	}
}
