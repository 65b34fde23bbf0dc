// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package client

import (
	"errors"
)

// Kind classifies a client failure. Every client operation returns one of
// these kinds; none of them is fatal, and callers present the message and
// leave retrying to the user.
type Kind string

const (
	// KindInvalidURL means a request URL could not be formed.
	KindInvalidURL Kind = "invalid_url"

	// KindNetwork means the request did not complete.
	KindNetwork Kind = "network"

	// KindDecoding means the response body could not be decoded.
	KindDecoding Kind = "decoding"

	// KindServer means the backend reported a failure.
	KindServer Kind = "server"
)

// Error is a classified client failure.
type Error struct {
	// Kind classifies the failure.
	Kind Kind

	// Message is a user-presentable description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "client: " + e.Message + ": " + e.Err.Error()
	}
	return "client: " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a client error, or "" for any other error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
