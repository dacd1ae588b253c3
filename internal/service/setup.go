package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/target/onboard-ui/internal/domain/popup"
	"github.com/target/onboard-ui/internal/domain/profile"
	"github.com/target/onboard-ui/internal/domain/session"
	"github.com/target/onboard-ui/internal/domain/setup"
	apperrors "github.com/target/onboard-ui/internal/errors"
	"github.com/target/onboard-ui/internal/imaging"
	"github.com/target/onboard-ui/internal/instance"
	"github.com/target/onboard-ui/internal/observability/metrics"
	"github.com/target/onboard-ui/internal/observability/statsd"
	"github.com/target/onboard-ui/internal/ports"
)

// BusyUploadMessage is shown while a profile picture is being submitted.
const BusyUploadMessage = "Uploading your picture…"

// ErrNotSignedIn is returned by setup operations on a signed-out instance.
var ErrNotSignedIn = apperrors.Unauthorized("sign in to continue")

// ErrSetupNotMounted is returned when a setup operation runs before Resume.
var ErrSetupNotMounted = errors.New("setup flow is not mounted")

// SetupServiceOptions groups dependencies for SetupService.
type SetupServiceOptions struct {
	Profiles ports.Profiles
	Images   ports.ImageProcessor
	Auth     *AuthService // optional; keeps the persisted sign-in in step with the profile
	Metrics  statsd.Sink
	Logger   *slog.Logger
}

// SetupService drives the profile-setup flow: each operation calls the
// profile or image collaborator and then moves the instance's wizard.
type SetupService struct {
	profiles ports.Profiles
	images   ports.ImageProcessor
	auth     *AuthService
	metrics  statsd.Sink
	logger   *slog.Logger
}

// NewSetupService constructs a new SetupService.
func NewSetupService(opts SetupServiceOptions) *SetupService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SetupService{
		profiles: opts.Profiles,
		images:   opts.Images,
		auth:     opts.Auth,
		metrics:  opts.Metrics,
		logger:   logger.With("component", "setup_service"),
	}
}

// Resume mounts the setup flow on in at the first incomplete step.
// An already mounted flow is returned as is.
func (s *SetupService) Resume(ctx context.Context, in *instance.Instance) (*setup.Controller, error) {
	if c, ok := in.Setup(); ok {
		return c, nil
	}
	user := in.Session.Get().User
	if user == nil {
		return nil, ErrNotSignedIn
	}

	p, err := s.getProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	s.syncUser(ctx, in, p)

	return in.MountSetup(setup.Progress{HasUsername: p.HasUsername(), HasPicture: p.HasPicture()}), nil
}

// CheckUsername validates raw and asks the profile service whether it is free.
// A syntax problem is a validation error on the username field and never reaches the collaborator.
// ctx is the request context; a superseded check is abandoned through it.
func (s *SetupService) CheckUsername(ctx context.Context, raw string) (profile.UsernameAvailability, error) {
	name := profile.NormalizeUsername(raw)
	if msg := profile.ValidateUsername(name); msg != "" {
		return profile.UsernameAvailability{Username: name}, apperrors.ValidationField("username", msg)
	}

	start := time.Now()
	res, err := s.profiles.CheckUsernameAvailability(ctx, name)
	metrics.EmitCollaboratorCall(s.metrics, "profiles.check_username", time.Since(start), err)
	if err != nil {
		return profile.UsernameAvailability{Username: name}, err
	}
	res.Username = name
	return res, nil
}

// ClaimUsername sets the username on the signed-in profile and moves to the picture step.
// ERR_USERNAME_TAKEN is returned untouched.
func (s *SetupService) ClaimUsername(ctx context.Context, in *instance.Instance, raw string) (profile.Profile, error) {
	c, user, err := s.mounted(in)
	if err != nil {
		return profile.Profile{}, err
	}

	name := profile.NormalizeUsername(raw)
	if msg := profile.ValidateUsername(name); msg != "" {
		return profile.Profile{}, apperrors.ValidationField("username", msg)
	}

	start := time.Now()
	p, err := s.profiles.SetUsername(ctx, profile.SetUsernameInput{ProfileID: user.ID, Username: name})
	metrics.EmitCollaboratorCall(s.metrics, "profiles.set_username", time.Since(start), err)
	if err != nil {
		return profile.Profile{}, err
	}
	if p.Username == "" {
		p.Username = name
	}

	s.syncUser(ctx, in, p)
	s.advance(c, setup.StepProfilePicture)
	return p, nil
}

// StagePicture decodes an upload, fixes its orientation and keeps it on the
// instance until it is cropped. The returned token identifies the staged image.
func (s *SetupService) StagePicture(ctx context.Context, in *instance.Instance, r io.Reader) (string, error) {
	if _, _, err := s.mounted(in); err != nil {
		return "", err
	}

	start := time.Now()
	img, err := s.images.FixOrientation(ctx, r)
	metrics.EmitCollaboratorCall(s.metrics, "images.fix_orientation", time.Since(start), err)
	if err != nil {
		if errors.Is(err, imaging.ErrNoImageData) {
			return "", err
		}
		return "", apperrors.ValidationField("picture", "That file could not be read as an image")
	}
	return in.Pictures.Put(img), nil
}

// SubmitPicture crops the staged image, uploads it as the profile picture and
// completes the flow. A busy modal is shown for the duration of the call.
func (s *SetupService) SubmitPicture(
	ctx context.Context,
	in *instance.Instance,
	token string,
	crop ports.CropParams,
) (profile.Picture, error) {
	c, user, err := s.mounted(in)
	if err != nil {
		return profile.Picture{}, err
	}

	staged, ok := in.Pictures.Get(token)
	if !ok {
		return profile.Picture{}, imaging.ErrNoImageData
	}

	busyID, err := EnqueueModal(s.metrics, in.Modals, popup.Busy(BusyUploadMessage))
	if err != nil {
		return profile.Picture{}, err
	}
	defer in.Modals.Hide(busyID)

	start := time.Now()
	data, err := s.images.Crop(ctx, staged.Image, crop)
	metrics.EmitCollaboratorCall(s.metrics, "images.crop", time.Since(start), err)
	if err != nil {
		if errors.Is(err, imaging.ErrInvalidCrop) {
			return profile.Picture{}, apperrors.ValidationField("crop", "Select an area inside the picture")
		}
		return profile.Picture{}, fmt.Errorf("crop picture: %w", err)
	}

	start = time.Now()
	pic, err := s.profiles.SetProfilePicture(ctx, profile.SetProfilePictureInput{
		ProfileID:   user.ID,
		Image:       data,
		ContentType: "image/jpeg",
	})
	metrics.EmitCollaboratorCall(s.metrics, "profiles.set_picture", time.Since(start), err)
	if err != nil {
		return profile.Picture{}, err
	}
	if pic.Src == "" {
		return profile.Picture{}, apperrors.Upstream(nil, "profile service returned no picture source")
	}

	in.Pictures.Delete(token)
	s.syncUser(ctx, in, profile.Profile{ID: user.ID, Username: user.Username, AvatarSrc: pic.Src})
	s.advance(c, setup.StepComplete)
	return pic, nil
}

// Skip jumps past the current step.
func (s *SetupService) Skip(in *instance.Instance) (setup.Step, error) {
	c, _, err := s.mounted(in)
	if err != nil {
		return "", err
	}
	next, ok := c.Flow().Next(c.CurrentStep())
	if !ok {
		return c.CurrentStep(), nil
	}
	s.advance(c, next)
	return next, nil
}

// GoTo sets the step named by raw. Unknown names fail with wizard.ErrUnknownStep.
func (s *SetupService) GoTo(in *instance.Instance, raw string) (setup.Step, error) {
	c, _, err := s.mounted(in)
	if err != nil {
		return "", err
	}
	step, err := setup.ParseStep(raw)
	if err != nil {
		return "", err
	}
	s.advance(c, step)
	return step, nil
}

// Finish unmounts a completed flow. It reports whether the flow had reached the terminal step.
func (s *SetupService) Finish(in *instance.Instance) bool {
	c, ok := in.Setup()
	if !ok {
		return true
	}
	if !c.IsComplete() {
		return false
	}
	in.UnmountSetup()
	return true
}

func (s *SetupService) mounted(in *instance.Instance) (*setup.Controller, *session.User, error) {
	user := in.Session.Get().User
	if user == nil {
		return nil, nil, ErrNotSignedIn
	}
	c, ok := in.Setup()
	if !ok {
		return nil, nil, ErrSetupNotMounted
	}
	return c, user, nil
}

func (s *SetupService) getProfile(ctx context.Context, id string) (profile.Profile, error) {
	start := time.Now()
	p, err := s.profiles.GetProfile(ctx, id)
	metrics.EmitCollaboratorCall(s.metrics, "profiles.get_profile", time.Since(start), err)
	if apperrors.IsNotFound(err) {
		return profile.Profile{ID: id}, nil
	}
	return p, err
}

// syncUser copies profile fields into the session store and the persisted sign-in.
func (s *SetupService) syncUser(ctx context.Context, in *instance.Instance, p profile.Profile) {
	user := in.Session.Get().User
	if user == nil {
		return
	}
	changed := false
	if p.Username != "" && p.Username != user.Username {
		user.Username = p.Username
		changed = true
	}
	if p.AvatarSrc != "" && p.AvatarSrc != user.AvatarSrc {
		user.AvatarSrc = p.AvatarSrc
		changed = true
	}
	if !changed {
		return
	}
	in.Session.Set(user)

	if s.auth == nil || in.AuthSessionID() == "" {
		return
	}
	if _, err := s.auth.Refresh(ctx, in.AuthSessionID(), p); err != nil {
		s.logger.Warn("refresh persisted session", "instance", in.ID, "error", err)
	}
}

func (s *SetupService) advance(c *setup.Controller, to setup.Step) {
	from := c.CurrentStep()
	c.MustSetCurrentStep(to)
	metrics.EmitStepTransition(s.metrics, "profile_setup", from.String(), to.String())
}

// EnqueueModal adds d to q and records the queue depth.
func EnqueueModal(sink statsd.Sink, q *popup.Queue, d popup.Descriptor) (string, error) {
	id, err := q.Enqueue(d)
	if err != nil {
		return "", err
	}
	metrics.EmitModal(sink, string(d.Type), q.Len())
	return id, nil
}

// AlertFor enqueues an alert describing err and returns its id.
func AlertFor(sink statsd.Sink, q *popup.Queue, title string, err error) (string, error) {
	msg := apperrors.UserMessage(err)
	d := popup.Alert(title, msg)
	if code := apperrors.PublicCodeOf(err); code.Message() == msg {
		d.Props.Code = string(code)
	}
	return EnqueueModal(sink, q, d)
}
