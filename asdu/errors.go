// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package asdu

import "errors"

// error defined
var (
	ErrParam                  = errors.New("asdu: invalid params")
	ErrCauseZero              = errors.New("asdu: cause of transmission must not be zero")
	ErrCommonAddrZero         = errors.New("asdu: common address must not be zero")
	ErrOriginAddrFit          = errors.New("asdu: originator address requires WithOA")
	ErrInfoObjAddrFit         = errors.New("asdu: information object address out of range")
	ErrInfoObjIndexFit        = errors.New("asdu: number of information objects out of range [1,127]")
	ErrUnsupportedType        = errors.New("asdu: unsupported type identifier")
	ErrLengthMismatch         = errors.New("asdu: payload length does not match variable structure qualifier")
	ErrSequenceNotConsecutive = errors.New("asdu: sequential addressing requires consecutive information object addresses")
	ErrQuality                = errors.New("asdu: quality/qualifier field out of range")
	ErrSQNotAllowed           = errors.New("asdu: type does not allow sequential addressing")
	ErrTimeInvalid            = errors.New("asdu: CP56Time2a marked invalid cannot convert to wall clock")
	ErrTimeRange              = errors.New("asdu: CP56Time2a field out of range")
	ErrShortHeader            = errors.New("asdu: buffer too short for ASDU header")
)
