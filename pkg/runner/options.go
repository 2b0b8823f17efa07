package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"lambda-tester/pkg/leak"
)

// DefaultTimeout bounds GetRemainingTimeInMillis when no timeout is set.
const DefaultTimeout = 3 * time.Second

var validate = validator.New()

// Tracer is the tracing side-channel wrapped around a run.
type Tracer interface {
	Start(ctx context.Context) error
	Stop() error
	// Settle waits until the tracer stopped receiving segments.
	Settle(ctx context.Context) error
	Segments() []map[string]any
}

// Options configures one Runner. The zero value enforces no timeout, skips
// leak detection, classifies by polarity only and leaves tracing off.
type Options struct {
	// Timeout is enforced after the fact when positive. Zero means
	// DefaultTimeout for remaining-time purposes only.
	Timeout time.Duration `validate:"gte=0"`
	// EnforceTimeout enforces Timeout (or DefaultTimeout) even when Timeout is zero.
	EnforceTimeout bool
	// CheckForLeaks diffs open resources around the handler.
	CheckForLeaks bool
	// Strict requires the exact expected completion channel.
	Strict bool
	// XRay runs the tracing side-channel for the whole run.
	XRay bool

	// Detector overrides leak.Default().
	Detector leak.Detector `validate:"-"`
	// Tracer overrides the process-wide X-Ray collector.
	Tracer Tracer `validate:"-"`
	// Logger defaults to the logrus standard logger.
	Logger logrus.FieldLogger `validate:"-"`
}

// Validate checks the option values.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid runner options: %w", err)
	}
	return nil
}
