package httpx

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/target/onboard-ui/internal/domain/popup"
	apperrors "github.com/target/onboard-ui/internal/errors"
	"github.com/target/onboard-ui/internal/http/validation"
	"github.com/target/onboard-ui/internal/instance"
	"github.com/target/onboard-ui/internal/observability/statsd"
	"github.com/target/onboard-ui/internal/service"
)

// ModalHandlers exposes the instance's modal queue.
type ModalHandlers struct {
	UI      *UIHandlers
	Metrics statsd.Sink
	Logger  *slog.Logger
}

func (h *ModalHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Host renders the modal host fragment. GET /modals.
func (h *ModalHandlers) Host(w http.ResponseWriter, r *http.Request) {
	in, ok := InstanceFromContext(r.Context())
	if !ok {
		WriteAppError(w, apperrors.Internal("no application instance"))
		return
	}
	h.UI.Fragment(w, "modal-host", hostData(r, in))
}

// List returns the queue as JSON, active modal first. GET /api/modals.
func (h *ModalHandlers) List(w http.ResponseWriter, r *http.Request) {
	in, ok := InstanceFromContext(r.Context())
	if !ok {
		WriteAppError(w, apperrors.Internal("no application instance"))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"modals": in.Modals.Modals()})
}

// Enqueue queues a modal from a JSON descriptor. POST /api/modals.
func (h *ModalHandlers) Enqueue(w http.ResponseWriter, r *http.Request) {
	in, ok := InstanceFromContext(r.Context())
	if !ok {
		WriteAppError(w, apperrors.Internal("no application instance"))
		return
	}
	var d popup.Descriptor
	if !DecodeJSON(w, r, &d) {
		return
	}
	d = canonicalDescriptor(d)
	if field, msg := validateDescriptor(d); field != "" {
		WriteAppError(w, apperrors.ValidationField(field, msg))
		return
	}

	id, err := service.EnqueueModal(h.Metrics, in.Modals, d)
	if err != nil {
		h.logger().WarnContext(r.Context(), "enqueue modal rejected", "instance", in.ID, "error", err)
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// Hide removes a modal. DELETE /modals/{id}.
// htmx callers get the refreshed host fragment, others {"hidden": bool}.
func (h *ModalHandlers) Hide(w http.ResponseWriter, r *http.Request) {
	in, ok := InstanceFromContext(r.Context())
	if !ok {
		WriteAppError(w, apperrors.Internal("no application instance"))
		return
	}
	hidden := in.Modals.Hide(r.PathValue("id"))
	if IsHTMX(r) {
		h.UI.Fragment(w, "modal-host", hostData(r, in))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"hidden": hidden})
}

// canonicalDescriptor puts type and action methods in the form the modal host
// template compares against.
func canonicalDescriptor(d popup.Descriptor) popup.Descriptor {
	d.Type = popup.Type(strings.ToLower(strings.TrimSpace(string(d.Type))))
	if d.Props.Actions != nil {
		actions := make([]popup.Action, len(d.Props.Actions))
		for i, a := range d.Props.Actions {
			a.Method = strings.ToUpper(strings.TrimSpace(a.Method))
			a.URL = strings.TrimSpace(a.URL)
			actions[i] = a
		}
		d.Props.Actions = actions
	}
	return d
}

// validateDescriptor returns the first offending field and its message.
func validateDescriptor(d popup.Descriptor) (string, string) {
	fv := validation.New().
		Validate("type", string(d.Type),
			validation.Required("Type", 16),
			validation.OneOf("Type", []string{string(popup.TypeAlert), string(popup.TypeBusy), string(popup.TypeConfirm)})).
		Validate("title", d.Props.Title, validation.Optional("Title", 80)).
		Validate("code", d.Props.Code, validation.Optional("Code", 64))
	if d.Type == popup.TypeAlert {
		fv.Validate("message", d.Props.Message, validation.Required("Message", 500))
	} else {
		fv.Validate("message", d.Props.Message, validation.Optional("Message", 500))
	}
	for i, a := range d.Props.Actions {
		prefix := fmt.Sprintf("actions[%d].", i)
		fv.Validate(prefix+"label", a.Label, validation.Required("Label", 40))
		if a.Method != "" {
			fv.Validate(prefix+"method", a.Method, validation.OneOf("Method", []string{"GET", "POST", "DELETE"}))
		}
		fv.Validate(prefix+"url", a.URL, validation.LocalPath("URL"))
	}
	for _, field := range []string{"type", "title", "code", "message"} {
		if msg, bad := fv.Errors()[field]; bad {
			return field, msg
		}
	}
	for field, msg := range fv.Errors() {
		return field, msg
	}
	return "", ""
}

func hostData(r *http.Request, in *instance.Instance) map[string]any {
	return map[string]any{
		"Modals":    modalsView(in.Modals.Modals()),
		"CSRFToken": GetCSRFToken(r),
	}
}
