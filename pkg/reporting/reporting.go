// Package reporting sends unexpected limitcheck failures to Rollbar.
package reporting

import (
	"github.com/stvp/rollbar"
)

// ErrorReporter sends errors that should never happen in a correct run to an
// external crash reporting service
type ErrorReporter interface {
	ReportError(err error)
	Wait()
}

// New returns a Rollbar reporter when token is set and reporting is not
// suppressed, otherwise a reporter that drops everything
func New(token, environment string, suppress bool) ErrorReporter {
	if token == "" || suppress {
		return Discard{}
	}
	rollbar.Token = token
	rollbar.Environment = environment
	return rollbarService{}
}

type rollbarService struct{}

// ReportError sends err with its stack trace to Rollbar
func (rollbarService) ReportError(err error) {
	if err == nil {
		return
	}
	rollbar.Error(rollbar.ERR, err)
}

// Wait blocks until queued reports are sent
func (rollbarService) Wait() {
	rollbar.Wait()
}

// Discard is an ErrorReporter that drops every error
type Discard struct{}

func (Discard) ReportError(error) {}

func (Discard) Wait() {}
