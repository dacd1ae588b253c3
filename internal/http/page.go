package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/onboard-ui/internal/domain/popup"
)

// PageMeta names the page being rendered.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

// basePageData builds the data every layout render needs from the request's instance.
func basePageData(r *http.Request, meta PageMeta) map[string]any {
	data := map[string]any{
		"Title":           meta.Title,
		"PageTitle":       meta.PageTitle,
		"CurrentPage":     meta.CurrentPage,
		"IsAuthenticated": false,
		"Modals":          ModalsView{},
	}
	if token := GetCSRFToken(r); token != "" {
		data["CSRFToken"] = token
	}
	if in, ok := InstanceFromContext(r.Context()); ok {
		if user := in.Session.Get().User; user != nil {
			data["User"] = user
			data["IsAuthenticated"] = true
		}
		data["Modals"] = modalsView(in.Modals.Modals())
	}
	return data
}

// TemplateDataBuilder provides a fluent API for building template data maps.
type TemplateDataBuilder struct {
	data map[string]any
}

// NewTemplateData creates a new TemplateDataBuilder initialized with basePageData.
func NewTemplateData(r *http.Request, meta PageMeta) *TemplateDataBuilder {
	return &TemplateDataBuilder{data: basePageData(r, meta)}
}

// WithFieldErrors adds field-level validation errors.
func (b *TemplateDataBuilder) WithFieldErrors(errs map[string]string) *TemplateDataBuilder {
	if len(errs) > 0 {
		b.data["Errors"] = errs
	}
	return b
}

// With adds a custom field to the template data.
func (b *TemplateDataBuilder) With(key string, value any) *TemplateDataBuilder {
	b.data[key] = value
	return b
}

// Build returns the final template data map.
func (b *TemplateDataBuilder) Build() map[string]any {
	return b.data
}

// ModalsView is what the modal host template renders: the active modal and how many wait.
type ModalsView struct {
	Active  *popup.Descriptor
	Pending int
}

func modalsView(ds []popup.Descriptor) ModalsView {
	if len(ds) == 0 {
		return ModalsView{}
	}
	return ModalsView{Active: &ds[0], Pending: len(ds) - 1}
}

// UIHandlers renders pages through the template renderer.
type UIHandlers struct {
	T      *TemplateRenderer
	Logger *slog.Logger
}

func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Render writes the page, or only its content fragment for htmx requests.
func (h *UIHandlers) Render(w http.ResponseWriter, r *http.Request, data map[string]any) {
	h.RenderStatus(w, r, http.StatusOK, data)
}

// RenderStatus is Render with an explicit status code.
func (h *UIHandlers) RenderStatus(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	if status != http.StatusOK {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
	}
	var err error
	if WantsPartial(r) {
		err = h.T.RenderPartial(w, r, data)
	} else {
		err = h.T.RenderFull(w, r, data)
	}
	if err != nil && status == http.StatusOK {
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

// Fragment renders a single named template, e.g. a partial swapped by htmx.
func (h *UIHandlers) Fragment(w http.ResponseWriter, name string, data any) {
	if err := h.T.Render(w, name, data); err != nil {
		http.Error(w, "failed to render fragment", http.StatusInternalServerError)
	}
}

// NotFound renders the not-found page with a 404.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, PageMeta{Title: "Not found", PageTitle: "Page not found", CurrentPage: PageNotFound}).Build()
	h.RenderStatus(w, r, http.StatusNotFound, data)
}
