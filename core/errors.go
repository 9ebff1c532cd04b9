package core

import (
	"github.com/cockroachdb/errors"
)

// ErrConnectionFailed marks connection-class failures: transport drops,
// timeouts, anything that requires reconnecting the client. Application-
// class rejections (stale nonce, rejected proof) are plain errors and
// only trigger local backoff.
var ErrConnectionFailed = errors.New("client connection failed")

// NewConnectionError wraps err so that IsConnectionError reports true.
func NewConnectionError(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, ErrConnectionFailed)
}

func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}

// errTargetOrigin marks failures raised by target client calls on code
// paths the race loop would otherwise attribute to the source, such as
// cost estimation during nonce selection.
var errTargetOrigin = errors.New("target client origin")

func markTargetOrigin(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, errTargetOrigin)
}

func isTargetOrigin(err error) bool {
	return errors.Is(err, errTargetOrigin)
}

// FailedClient tells the supervisor which side of a race failed with a
// connection-class error. Both clients are reconnected regardless: race
// state on both sides must be re-synchronized together.
type FailedClient int

const (
	FailedSourceClient FailedClient = iota
	FailedTargetClient
)

func (fc FailedClient) String() string {
	switch fc {
	case FailedSourceClient:
		return "source"
	case FailedTargetClient:
		return "target"
	default:
		return "unknown"
	}
}

// FailedClientError is returned by a race loop when one of its clients
// needs to be reconnected.
type FailedClientError struct {
	Client FailedClient
	Err    error
}

func (e *FailedClientError) Error() string {
	return e.Client.String() + " client failed: " + e.Err.Error()
}

func (e *FailedClientError) Unwrap() error {
	return e.Err
}
