package httpx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/target/onboard-ui/internal/domain/profile"
	"github.com/target/onboard-ui/internal/domain/setup"
	apperrors "github.com/target/onboard-ui/internal/errors"
	"github.com/target/onboard-ui/internal/http/validation"
	"github.com/target/onboard-ui/internal/imaging"
	"github.com/target/onboard-ui/internal/instance"
	"github.com/target/onboard-ui/internal/observability/statsd"
	"github.com/target/onboard-ui/internal/ports"
	"github.com/target/onboard-ui/internal/service"
)

const (
	// DefaultMaxUploadBytes caps profile picture uploads.
	DefaultMaxUploadBytes = 10 << 20
	maxMultipartMemory    = 1 << 20
)

// SetupServiceInterface defines the profile-setup operations the handlers need.
type SetupServiceInterface interface {
	Resume(ctx context.Context, in *instance.Instance) (*setup.Controller, error)
	CheckUsername(ctx context.Context, raw string) (profile.UsernameAvailability, error)
	ClaimUsername(ctx context.Context, in *instance.Instance, raw string) (profile.Profile, error)
	StagePicture(ctx context.Context, in *instance.Instance, r io.Reader) (string, error)
	SubmitPicture(ctx context.Context, in *instance.Instance, token string, crop ports.CropParams) (profile.Picture, error)
	Skip(in *instance.Instance) (setup.Step, error)
	GoTo(in *instance.Instance, raw string) (setup.Step, error)
	Finish(in *instance.Instance) bool
}

var _ SetupServiceInterface = (*service.SetupService)(nil)

// SetupHandlers serves the profile-setup wizard.
type SetupHandlers struct {
	Svc            SetupServiceInterface
	UI             *UIHandlers
	Metrics        statsd.Sink
	MaxUploadBytes int64
	Logger         *slog.Logger
}

func (h *SetupHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// StepView is one entry of the step indicator.
type StepView struct {
	Step    setup.Step
	Title   string
	Number  int
	Current bool
	Done    bool
}

// PictureView describes a staged upload waiting to be cropped.
type PictureView struct {
	Token        string
	PreviewURL   string
	SourceWidth  int
	SourceHeight int
	// initial selection: the centered square
	CropX, CropY, CropSize int
}

type setupView struct {
	Errors  map[string]string
	Picture *PictureView
	// Username echoes the submitted value on error.
	Username string
}

// shownStep is the step whose form answers v. Picture errors belong to the
// picture form even when the wizard has since moved elsewhere.
func (v setupView) shownStep(current setup.Step) setup.Step {
	if v.Picture != nil {
		return setup.StepProfilePicture
	}
	if _, ok := v.Errors["picture"]; ok {
		return setup.StepProfilePicture
	}
	if _, ok := v.Errors["crop"]; ok {
		return setup.StepProfilePicture
	}
	return current
}

// Page renders the wizard at its current step, mounting it on first visit.
// GET /setup.
func (h *SetupHandlers) Page(w http.ResponseWriter, r *http.Request) {
	in, ok := h.instance(w, r)
	if !ok {
		return
	}
	if _, err := h.Svc.Resume(r.Context(), in); err != nil {
		h.fail(w, r, in, "Could not load your profile", err)
		return
	}
	h.render(w, r, in, setupView{})
}

// CheckUsername answers the live availability probe next to the username field.
// A newer keystroke aborts the request, which cancels the profile service call.
// GET /setup/username/check?username=<name>.
func (h *SetupHandlers) CheckUsername(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("username")
	data := map[string]any{"Username": profile.NormalizeUsername(raw)}
	if strings.TrimSpace(raw) == "" {
		h.UI.Fragment(w, "username-status", data)
		return
	}

	res, err := h.Svc.CheckUsername(r.Context(), raw)
	switch {
	case err == nil:
		data["Checked"] = true
		data["Available"] = res.IsAvailable
	case r.Context().Err() != nil:
		// superseded; nobody is listening
		return
	case apperrors.IsValidation(err):
		data["Message"] = apperrors.UserMessage(err)
	default:
		h.logger().WarnContext(r.Context(), "username check failed", "error", err)
		data["Message"] = "We couldn't check that username right now."
	}
	h.UI.Fragment(w, "username-status", data)
}

// ClaimUsername claims the submitted username.
// POST /setup/username.
func (h *SetupHandlers) ClaimUsername(w http.ResponseWriter, r *http.Request) {
	in, ok := h.mounted(w, r)
	if !ok {
		return
	}
	raw := r.PostFormValue("username")
	fv := validation.New().Validate("username", raw, validation.Required("Username", profile.UsernameMaxLength))
	if !fv.Valid() {
		h.renderStatus(w, r, in, formStatus(r), setupView{Errors: fv.Errors(), Username: raw})
		return
	}

	if _, err := h.Svc.ClaimUsername(r.Context(), in, raw); err != nil {
		switch {
		case fv.AddError(err):
		case apperrors.PublicCodeOf(err) == apperrors.PublicUsernameTaken:
			fv.Add("username", apperrors.PublicUsernameTaken.Message())
		default:
			h.alert(in, "Could not save your username", err)
		}
		h.renderStatus(w, r, in, formStatus(r), setupView{Errors: fv.Errors(), Username: raw})
		return
	}
	h.stepChanged(w, r, in)
}

// UploadPicture stages an uploaded picture for cropping.
// POST /setup/picture (multipart, field "picture").
func (h *SetupHandlers) UploadPicture(w http.ResponseWriter, r *http.Request) {
	in, ok := h.mounted(w, r)
	if !ok {
		return
	}
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+maxMultipartMemory)

	fv := validation.New()
	file, _, err := r.FormFile("picture")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			fv.Add("picture", "That picture is too large.")
		case errors.Is(err, http.ErrMissingFile):
			fv.Add("picture", "Choose a picture to upload.")
		default:
			fv.Add("picture", "The upload could not be read.")
		}
		h.renderStatus(w, r, in, formStatus(r), setupView{Errors: fv.Errors()})
		return
	}
	defer file.Close()

	token, err := h.Svc.StagePicture(r.Context(), in, io.LimitReader(file, limit))
	if err != nil {
		if !fv.AddError(err) {
			h.alert(in, "Could not read your picture", err)
		}
		h.renderStatus(w, r, in, formStatus(r), setupView{Errors: fv.Errors()})
		return
	}
	h.render(w, r, in, setupView{Picture: pictureView(in, token)})
}

// Preview serves the staged picture as a JPEG.
// GET /setup/picture/preview/{token}.
func (h *SetupHandlers) Preview(w http.ResponseWriter, r *http.Request) {
	in, ok := h.instance(w, r)
	if !ok {
		return
	}
	staged, found := in.Pictures.Get(r.PathValue("token"))
	if !found {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, no-store")
	if err := imaging.EncodePreview(w, staged.Image); err != nil {
		h.logger().ErrorContext(r.Context(), "encode preview", "error", err)
	}
}

// Crop crops the staged picture and saves it as the profile picture.
// POST /setup/picture/crop.
func (h *SetupHandlers) Crop(w http.ResponseWriter, r *http.Request) {
	in, ok := h.mounted(w, r)
	if !ok {
		return
	}
	token := r.PostFormValue("token")
	crop, fv := parseCrop(r)
	if !fv.Valid() {
		h.renderStatus(w, r, in, formStatus(r), setupView{Errors: fv.Errors(), Picture: pictureView(in, token)})
		return
	}

	if _, err := h.Svc.SubmitPicture(r.Context(), in, token, crop); err != nil {
		if !fv.AddError(err) {
			h.alert(in, "Could not save your picture", err)
		}
		h.renderStatus(w, r, in, formStatus(r), setupView{Errors: fv.Errors(), Picture: pictureView(in, token)})
		return
	}
	h.stepChanged(w, r, in)
}

// parseCrop reads the selection in source pixels. A form without any
// coordinates crops nothing and keeps the whole picture.
func parseCrop(r *http.Request) (ports.CropParams, *validation.FieldValidator) {
	fv := validation.New()
	names := []string{"x", "y", "width", "height"}
	vals := make([]int, len(names))
	blank := 0
	for i, name := range names {
		raw := strings.TrimSpace(r.PostFormValue(name))
		if raw == "" {
			blank++
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			fv.Add("crop", "Select an area of the picture.")
			continue
		}
		vals[i] = v
	}
	if blank != 0 && blank != len(names) {
		fv.Add("crop", "Select an area of the picture.")
	}
	return ports.CropParams{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, fv
}

// Skip moves past the current step.
// POST /setup/skip.
func (h *SetupHandlers) Skip(w http.ResponseWriter, r *http.Request) {
	in, ok := h.mounted(w, r)
	if !ok {
		return
	}
	if _, err := h.Svc.Skip(in); err != nil {
		h.fail(w, r, in, "Could not skip this step", err)
		return
	}
	h.stepChanged(w, r, in)
}

// GoTo jumps to the step named in the form.
// POST /setup/step.
func (h *SetupHandlers) GoTo(w http.ResponseWriter, r *http.Request) {
	in, ok := h.mounted(w, r)
	if !ok {
		return
	}
	if _, err := h.Svc.GoTo(in, r.PostFormValue("step")); err != nil {
		h.logger().ErrorContext(r.Context(), "go to step", "step", r.PostFormValue("step"), "error", err)
		WriteAppError(w, err)
		return
	}
	h.stepChanged(w, r, in)
}

// Finish leaves a completed wizard for the home screen.
// POST /setup/finish.
func (h *SetupHandlers) Finish(w http.ResponseWriter, r *http.Request) {
	in, ok := h.instance(w, r)
	if !ok {
		return
	}
	if !h.Svc.Finish(in) {
		Navigate(w, r, PathSetup)
		return
	}
	Navigate(w, r, PathHome)
}

func (h *SetupHandlers) instance(w http.ResponseWriter, r *http.Request) (*instance.Instance, bool) {
	in, ok := InstanceFromContext(r.Context())
	if !ok {
		WriteAppError(w, apperrors.Internal("no application instance"))
	}
	return in, ok
}

// mounted returns the instance with its wizard mounted, resuming it if a
// POST arrives before the page was ever rendered.
func (h *SetupHandlers) mounted(w http.ResponseWriter, r *http.Request) (*instance.Instance, bool) {
	in, ok := h.instance(w, r)
	if !ok {
		return nil, false
	}
	if _, err := h.Svc.Resume(r.Context(), in); err != nil {
		h.fail(w, r, in, "Could not load your profile", err)
		return nil, false
	}
	return in, true
}

// stepChanged shows the wizard after a transition: htmx swaps the content in
// place, plain forms follow a 303 back to the wizard.
func (h *SetupHandlers) stepChanged(w http.ResponseWriter, r *http.Request, in *instance.Instance) {
	if !IsHTMX(r) {
		http.Redirect(w, r, PathSetup, http.StatusSeeOther)
		return
	}
	SetHXReplaceURL(w, PathSetup)
	h.render(w, r, in, setupView{})
}

func (h *SetupHandlers) alert(in *instance.Instance, title string, err error) {
	enqueueAlert(alertParams{Sink: h.Metrics, In: in, Title: title, Err: err, Logger: h.logger()})
}

// fail shows err as an alert and answers with the matching status.
func (h *SetupHandlers) fail(w http.ResponseWriter, r *http.Request, in *instance.Instance, title string, err error) {
	if errors.Is(err, service.ErrNotSignedIn) {
		Navigate(w, r, PathSignIn)
		return
	}
	h.alert(in, title, err)
	if _, mounted := in.Setup(); !mounted {
		data := NewTemplateData(r, PageMeta{Title: "Set up your profile", PageTitle: title, CurrentPage: PageHome}).Build()
		h.UI.RenderStatus(w, r, StatusFor(err), data)
		return
	}
	h.renderStatus(w, r, in, StatusFor(err), setupView{})
}

func (h *SetupHandlers) render(w http.ResponseWriter, r *http.Request, in *instance.Instance, v setupView) {
	h.renderStatus(w, r, in, http.StatusOK, v)
}

func (h *SetupHandlers) renderStatus(w http.ResponseWriter, r *http.Request, in *instance.Instance, status int, v setupView) {
	c, ok := in.Setup()
	if !ok {
		Navigate(w, r, PathSetup)
		return
	}
	current := v.shownStep(c.CurrentStep())
	steps := setup.VisibleSteps(in.SetupEntry())
	views := make([]StepView, 0, len(steps))
	currentPos := c.Flow().Position(current)
	for i, s := range steps {
		views = append(views, StepView{
			Step:    s,
			Title:   s.Title(),
			Number:  i + 1,
			Current: s == current,
			Done:    c.Flow().Position(s) < currentPos,
		})
	}

	data := NewTemplateData(r, PageMeta{
		Title:       "Set up your profile",
		PageTitle:   current.Title(),
		CurrentPage: PageSetup,
	}).
		WithFieldErrors(v.Errors).
		With("Step", current).
		With("Steps", views).
		With("Complete", c.IsComplete()).
		With("UsernameValue", v.Username).
		With("Picture", v.Picture).
		With("MaxUsernameLength", profile.UsernameMaxLength).
		Build()
	h.UI.RenderStatus(w, r, status, data)
}

func pictureView(in *instance.Instance, token string) *PictureView {
	staged, ok := in.Pictures.Get(token)
	if !ok {
		return nil
	}
	b := staged.Image.Bounds()
	side := min(b.Dx(), b.Dy())
	return &PictureView{
		Token:        token,
		PreviewURL:   "/setup/picture/preview/" + token,
		SourceWidth:  b.Dx(),
		SourceHeight: b.Dy(),
		CropX:        (b.Dx() - side) / 2,
		CropY:        (b.Dy() - side) / 2,
		CropSize:     side,
	}
}
