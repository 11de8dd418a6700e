// Package credentials checks a Steam API key and a Steam user id before they are stored.
//
// Every check first validates the input locally and only then spends one request
// on the remote API. Checks are idempotent and may be retried freely.
package credentials

import (
	"errors"
	"fmt"

	"github.com/joshhsoj1902/achievement-tracker/internal/logger"
	"github.com/joshhsoj1902/achievement-tracker/internal/steam"
	"github.com/sirupsen/logrus"
)

var (
	ErrEmptyInput     = errors.New("no value provided")
	ErrMalformedInput = errors.New("malformed value")
	// ErrRejected means the request succeeded but the reply says the value is not valid
	ErrRejected = errors.New("value rejected by Steam")
)

// ValidationError reports input that was refused before any request was made
type ValidationError struct {
	Input string // name of the input, e.g. "key"
	Err   error
}

func (e *ValidationError) Error() string {
	if errors.Is(e.Err, ErrEmptyInput) {
		return fmt.Sprintf("No %s provided", e.Input)
	}
	return fmt.Sprintf("Invalid %s", e.Input)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validator is one kind of credential check
type Validator interface {
	// Name is the human name of the input, used in messages
	Name() string
	// Validate is the local syntax check
	Validate(text string) bool
	// URL is the request that proves the value against the remote API
	URL(text string) string
	// ValidateReply inspects a successful response body
	ValidateReply(body []byte) bool
}

// Requester issues the single remote request of a check
type Requester interface {
	Get(rawURL string, onSuccess func(body any, key any), onError func(err error, key any), mode steam.DecodeMode, key any)
}

// Check runs the local checks, then one remote request. A *ValidationError is returned
// synchronously when the input is refused locally, and no request is made. Otherwise
// done is called on the event loop with nil, ErrRejected or the transport error.
func Check(v Validator, input string, requester Requester, done func(err error)) error {
	if input == "" {
		logger.Log.Warnf("No %s provided", v.Name())
		return &ValidationError{Input: v.Name(), Err: ErrEmptyInput}
	}
	if !v.Validate(input) {
		logger.Log.Warnf("Invalid %s", v.Name())
		return &ValidationError{Input: v.Name(), Err: ErrMalformedInput}
	}

	requester.Get(v.URL(input), func(body any, _ any) {
		if !v.ValidateReply(body.([]byte)) {
			logger.Log.WithField("input", v.Name()).Warn("Invalid input")
			done(ErrRejected)
			return
		}
		done(nil)
	}, func(err error, _ any) {
		logger.Log.WithFields(logrus.Fields{
			"input": v.Name(),
			"error": err.Error(),
		}).Warn("Credential check request failed")
		done(err)
	}, steam.DecodeBinary, v.Name())

	return nil
}

// Await runs Check and blocks until it finishes. It must not be called from the event loop.
func Await(v Validator, input string, requester Requester) error {
	result := make(chan error, 1)
	if err := Check(v, input, requester, func(err error) { result <- err }); err != nil {
		return err
	}
	return <-result
}
