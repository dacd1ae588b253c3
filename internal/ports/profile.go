package ports

import (
	"context"
	"image"
	"io"

	"github.com/target/onboard-ui/internal/domain/profile"
)

// Profiles is the profile service.
type Profiles interface {
	GetProfile(ctx context.Context, profileID string) (profile.Profile, error)
	SetUsername(ctx context.Context, in profile.SetUsernameInput) (profile.Profile, error)
	// CheckUsernameAvailability honours ctx cancellation; a superseded check is abandoned.
	CheckUsernameAvailability(ctx context.Context, username string) (profile.UsernameAvailability, error)
	SetProfilePicture(ctx context.Context, in profile.SetProfilePictureInput) (profile.Picture, error)
}

// AvatarStore serves pictures stored by a local profile backend.
type AvatarStore interface {
	Avatar(ctx context.Context, profileID string) (profile.Avatar, error)
}

// CropParams selects a region of an image in source pixel coordinates.
type CropParams struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether no region was selected.
func (c CropParams) Empty() bool { return c.Width <= 0 || c.Height <= 0 }

// ImageProcessor is the image utility collaborator.
type ImageProcessor interface {
	// FixOrientation decodes r and applies its EXIF orientation.
	FixOrientation(ctx context.Context, r io.Reader) (image.Image, error)
	// Crop cuts params out of img and returns the encoded result.
	Crop(ctx context.Context, img image.Image, params CropParams) ([]byte, error)
}
