package remote

import (
	"github.com/koblas/djeese/pkg/printer"
	"github.com/pkg/errors"
)

// Action names an operation in failure reports.
type Action struct {
	Name string
	// BadRequest calls out a rejected request in the summary line.
	BadRequest bool
}

var (
	ActionUpload = Action{Name: "Upload"}
	ActionClone  = Action{Name: "Clone", BadRequest: true}
	ActionPush   = Action{Name: "Push", BadRequest: true}
)

// Report prints why action failed. Replies the client could not make sense
// of only go to the log, with a pointer to it on the console.
func Report(p *printer.Printer, action Action, err error) {
	var apiErr *APIError
	var statusErr *StatusError

	switch {
	case errors.As(err, &apiErr):
		p.Error(apiErr.Error())
		if len(apiErr.Body) != 0 {
			p.Info(string(apiErr.Body))
		}
		if action.BadRequest {
			p.Alwaysf("%s failed: Bad request", action.Name)
		} else {
			p.Alwaysf("%s failed", action.Name)
		}
	case errors.As(err, &statusErr):
		p.Error(statusErr.Error())
		p.LogOnly(string(statusErr.Body))
		p.Alwaysf("%s failed, check djeese.log for more details", action.Name)
	case errors.Is(err, ErrAuthFailed), errors.Is(err, ErrUnavailable):
		p.Error(errors.Cause(err).Error())
		p.Alwaysf("%s failed", action.Name)
	default:
		p.Error(err.Error())
		p.Alwaysf("%s failed", action.Name)
	}
}
