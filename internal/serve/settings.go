// SPDX-License-Identifier: MPL-2.0

package serve

import (
	"errors"
	"fmt"
	"strconv"
)

// Recognized environment variables. These names are the documented operator
// surface and must match what the generated start script reads.
const (
	EnvModelPath      = "MODEL_PATH"
	EnvEmbodimentTag  = "EMBODIMENT_TAG"
	EnvNumArms        = "NUM_ARMS"
	EnvNumCams        = "NUM_CAMS"
	EnvDenoisingSteps = "DENOISING_STEPS"
	EnvHost           = "HOST"
	EnvPort           = "PORT"
)

// Documented defaults, applied when a variable is unset or empty.
const (
	DefaultModelPath      = "nvidia/GR00T-N1-2B"
	DefaultEmbodimentTag  = "" // empty triggers auto-detection in the entry point
	DefaultNumArms        = 1
	DefaultNumCams        = 2
	DefaultDenoisingSteps = 4
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 5555
)

var (
	// ErrInvalidCount is returned when an arm/camera/step count is not a
	// positive integer.
	ErrInvalidCount = errors.New("invalid count")

	// ErrInvalidPort is returned when PORT is outside 1-65535.
	ErrInvalidPort = errors.New("invalid port")
)

type (
	// Settings holds the resolved inference launch parameters.
	Settings struct {
		// ModelPath is a HuggingFace repo ID or a local model path.
		ModelPath string

		// EmbodimentTag selects the robot embodiment; empty means the entry
		// point auto-detects from the model metadata.
		EmbodimentTag string

		// NumArms is the robot arm count.
		NumArms int

		// NumCams is the camera count.
		NumCams int

		// DenoisingSteps is the diffusion denoising step count.
		DenoisingSteps int

		// Host is the server bind address.
		Host string

		// Port is the server bind port.
		Port int
	}

	// LookupFunc resolves an environment variable, reporting whether it is set.
	// os.LookupEnv satisfies this; tests inject a map-backed fake.
	LookupFunc func(key string) (string, bool)
)

// Defaults returns Settings with every documented default applied.
func Defaults() Settings {
	return Settings{
		ModelPath:      DefaultModelPath,
		EmbodimentTag:  DefaultEmbodimentTag,
		NumArms:        DefaultNumArms,
		NumCams:        DefaultNumCams,
		DenoisingSteps: DefaultDenoisingSteps,
		Host:           DefaultHost,
		Port:           DefaultPort,
	}
}

// FromEnv resolves Settings from the process environment via lookup,
// falling back to the documented default for each unset or empty variable.
func FromEnv(lookup LookupFunc) (Settings, error) {
	return Resolve(Defaults(), lookup)
}

// Resolve overlays the documented environment variables onto base, which
// carries the fallback for each unset or empty variable. 'grootpod start'
// passes the configured serve defaults as base.
func Resolve(base Settings, lookup LookupFunc) (Settings, error) {
	s := base

	if v, ok := lookup(EnvModelPath); ok && v != "" {
		s.ModelPath = v
	}
	// EMBODIMENT_TAG is the one variable where an explicit empty value and an
	// unset variable mean the same thing (auto-detect), so no emptiness guard.
	if v, ok := lookup(EnvEmbodimentTag); ok {
		s.EmbodimentTag = v
	}

	var err error
	if s.NumArms, err = intVar(lookup, EnvNumArms, base.NumArms); err != nil {
		return Settings{}, err
	}
	if s.NumCams, err = intVar(lookup, EnvNumCams, base.NumCams); err != nil {
		return Settings{}, err
	}
	if s.DenoisingSteps, err = intVar(lookup, EnvDenoisingSteps, base.DenoisingSteps); err != nil {
		return Settings{}, err
	}

	if v, ok := lookup(EnvHost); ok && v != "" {
		s.Host = v
	}
	if s.Port, err = intVar(lookup, EnvPort, base.Port); err != nil {
		return Settings{}, err
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks value ranges the entry point would reject anyway;
// failing here gives the operator a message before python starts.
func (s Settings) Validate() error {
	if s.NumArms < 1 {
		return fmt.Errorf("%w: %s must be >= 1, got %d", ErrInvalidCount, EnvNumArms, s.NumArms)
	}
	if s.NumCams < 1 {
		return fmt.Errorf("%w: %s must be >= 1, got %d", ErrInvalidCount, EnvNumCams, s.NumCams)
	}
	if s.DenoisingSteps < 1 {
		return fmt.Errorf("%w: %s must be >= 1, got %d", ErrInvalidCount, EnvDenoisingSteps, s.DenoisingSteps)
	}
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("%w: %s must be in 1-65535, got %d", ErrInvalidPort, EnvPort, s.Port)
	}
	return nil
}

// Args returns the exact argument vector for the inference entry point.
// The flag names and ordering are the entry point's CLI contract; changing
// either breaks the external collaborator.
func (s Settings) Args() []string {
	return []string{
		"--model_path", s.ModelPath,
		"--embodiment_tag", s.EmbodimentTag,
		"--num_arms", strconv.Itoa(s.NumArms),
		"--num_cams", strconv.Itoa(s.NumCams),
		"--denoising_steps", strconv.Itoa(s.DenoisingSteps),
		"--host", s.Host,
		"--port", strconv.Itoa(s.Port),
	}
}

func intVar(lookup LookupFunc, key string, fallback int) (int, error) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: expected an integer, got %q", key, v)
	}
	return n, nil
}
