// Package setup declares the profile-setup flow: claim a username, add a profile
// picture, then land on the completion step.
package setup

import (
	"fmt"
	"strings"

	"github.com/target/onboard-ui/internal/domain/wizard"
)

// Step identifies one screen of the profile-setup flow.
type Step string

const (
	StepUsername       Step = "username"
	StepProfilePicture Step = "profile-picture"
	StepComplete       Step = "complete"
)

// Flow is the declared order of the setup steps.
var Flow = wizard.MustFlow(StepUsername, StepProfilePicture, StepComplete)

// Controller is the wizard controller type used by the setup flow.
type Controller = wizard.Controller[Step]

// Transition is a setup step change.
type Transition = wizard.Transition[Step]

// Title is the heading shown for the step.
func (s Step) Title() string {
	switch s {
	case StepUsername:
		return "Choose a username"
	case StepProfilePicture:
		return "Add a profile picture"
	case StepComplete:
		return "You're all set"
	default:
		return string(s)
	}
}

func (s Step) String() string { return string(s) }

// ParseStep parses form or path input into a declared step.
func ParseStep(raw string) (Step, error) {
	s := Step(strings.TrimSpace(strings.ToLower(raw)))
	if !Flow.Contains(s) {
		return "", fmt.Errorf("%w: %q", wizard.ErrUnknownStep, raw)
	}
	return s, nil
}

// Progress is what is already known about a profile when setup is mounted.
type Progress struct {
	HasUsername bool
	HasPicture  bool
}

// ResumeStep returns the first step not yet satisfied by p.
func ResumeStep(p Progress) Step {
	switch {
	case !p.HasUsername:
		return StepUsername
	case !p.HasPicture:
		return StepProfilePicture
	default:
		return StepComplete
	}
}

// NewController mounts the setup flow at the step p resumes from.
func NewController(p Progress) *Controller {
	c, err := wizard.NewController(Flow, ResumeStep(p))
	if err != nil {
		// ResumeStep only returns declared steps.
		panic(err)
	}
	return c
}

// VisibleSteps lists the steps shown in the step indicator. Steps satisfied
// before the flow was mounted are left out; the controller still knows about them.
func VisibleSteps(p Progress) []Step {
	out := make([]Step, 0, len(Flow.Steps()))
	for _, s := range Flow.Steps() {
		if s == StepUsername && p.HasUsername {
			continue
		}
		out = append(out, s)
	}
	return out
}
