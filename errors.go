// Copyright 2017 Hajime Hoshi
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wmapro

import (
	"errors"
	"fmt"
)

// ErrInvalidData is returned when the bitstream is malformed or internally
// inconsistent (§6, §7): the current frame is dropped and packet_loss is
// set so the decoder resynchronizes at the next packet boundary.
var ErrInvalidData = errors.New("wmapro: invalid data")

// ErrUnsupported is returned by NewDecoder when the stream's channel count
// is outside 1..8. The extradata carries no version field, so streams of
// other WMA versions are neither detected nor rejected. Unlike
// ErrInvalidData this halts the stream; the caller is not expected to
// retry.
var ErrUnsupported = errors.New("wmapro: unsupported stream")

// invalidf wraps fmt.Errorf-style detail onto ErrInvalidData so callers can
// still errors.Is(err, ErrInvalidData) while getting a useful message,
// matching the teacher's fmt.Errorf("mp3: ...") convention (source.go).
func invalidf(format string, args ...interface{}) error {
	return &wrappedErr{msg: fmt.Sprintf(format, args...), target: ErrInvalidData}
}

func unsupportedf(format string, args ...interface{}) error {
	return &wrappedErr{msg: fmt.Sprintf(format, args...), target: ErrUnsupported}
}

type wrappedErr struct {
	msg    string
	target error
}

func (e *wrappedErr) Error() string { return e.msg }
func (e *wrappedErr) Unwrap() error { return e.target }
