package submission

import "time"

type configGetter interface {
	GetSubmission() Config
}

type Config struct {
	VerifyAttempts     int `yaml:"verifyAttempts"`
	VerifyBaseDelayMs  int `yaml:"verifyBaseDelayMs"`
	UploadTimeoutSec   int `yaml:"uploadTimeoutSec"`
	SweepIntervalSec   int `yaml:"sweepIntervalSec"`
	KeepUncommittedHrs int `yaml:"keepUncommittedHrs"`
}

func (c Config) verifyAttempts() int {
	if c.VerifyAttempts <= 0 {
		return 5
	}
	return c.VerifyAttempts
}

func (c Config) verifyBaseDelay() time.Duration {
	if c.VerifyBaseDelayMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.VerifyBaseDelayMs) * time.Millisecond
}

func (c Config) uploadTimeout() time.Duration {
	if c.UploadTimeoutSec <= 0 {
		return time.Minute
	}
	return time.Duration(c.UploadTimeoutSec) * time.Second
}

func (c Config) sweepIntervalSec() int {
	if c.SweepIntervalSec <= 0 {
		return 60
	}
	return c.SweepIntervalSec
}

func (c Config) keepUncommitted() time.Duration {
	if c.KeepUncommittedHrs <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.KeepUncommittedHrs) * time.Hour
}
