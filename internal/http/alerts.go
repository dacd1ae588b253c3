package httpx

import (
	"errors"
	"log/slog"

	"github.com/target/onboard-ui/internal/domain/popup"
	"github.com/target/onboard-ui/internal/domain/wizard"
	"github.com/target/onboard-ui/internal/imaging"
	"github.com/target/onboard-ui/internal/instance"
	"github.com/target/onboard-ui/internal/observability/statsd"
	"github.com/target/onboard-ui/internal/service"
)

// alertParams groups what enqueueAlert needs.
type alertParams struct {
	Sink   statsd.Sink
	In     *instance.Instance
	Title  string
	Err    error
	Logger *slog.Logger
}

// enqueueAlert shows err to the user as an alert modal. Contract violations
// are logged at error level before they are shown.
func enqueueAlert(p alertParams) {
	var err error
	switch {
	case errors.Is(p.Err, wizard.ErrUnknownStep), errors.Is(p.Err, imaging.ErrNoImageData):
		p.Logger.Error("setup contract violation", "instance", p.In.ID, "error", p.Err)
		_, err = service.EnqueueModal(p.Sink, p.In.Modals, popup.Alert(p.Title, publicMessage(p.Err)))
	default:
		_, err = service.AlertFor(p.Sink, p.In.Modals, p.Title, p.Err)
	}
	if err != nil {
		p.Logger.Error("enqueue alert", "instance", p.In.ID, "error", err)
	}
}
