package config

import "time"

// InstancesConfig bounds per-browser application instances.
type InstancesConfig struct {
	// IdleTTL evicts an instance nobody has touched for this long.
	IdleTTL time.Duration `env:"INSTANCE_IDLE_TTL" envDefault:"2h"`
	// SweepInterval is how often idle instances are looked for.
	SweepInterval time.Duration `env:"INSTANCE_SWEEP_INTERVAL" envDefault:"1m"`
	// StagingLimit caps uploaded pictures awaiting a crop, per instance.
	StagingLimit int `env:"INSTANCE_STAGING_LIMIT" envDefault:"2"`
}

// Sanitize applies defaults to non-positive values.
func (c *InstancesConfig) Sanitize() {
	if c.IdleTTL <= 0 {
		c.IdleTTL = 2 * time.Hour
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	if c.SweepInterval > c.IdleTTL {
		c.SweepInterval = c.IdleTTL
	}
	if c.StagingLimit < 1 {
		c.StagingLimit = 2
	}
}

// UploadConfig bounds profile picture uploads and the stored avatar.
type UploadConfig struct {
	MaxBytes    int64 `env:"UPLOAD_MAX_BYTES"    envDefault:"10485760"`
	AvatarSize  int   `env:"UPLOAD_AVATAR_SIZE"  envDefault:"256"`
	JPEGQuality int   `env:"UPLOAD_JPEG_QUALITY" envDefault:"85"`
}

// Sanitize clamps upload values.
func (c *UploadConfig) Sanitize() {
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 << 20
	}
	if c.AvatarSize < 32 {
		c.AvatarSize = 32
	}
	if c.AvatarSize > 2048 {
		c.AvatarSize = 2048
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		c.JPEGQuality = 85
	}
}
