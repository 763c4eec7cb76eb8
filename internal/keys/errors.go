package keys

import (
	"errors"
	"fmt"
)

var ErrKeyGeneration = errors.New("key generation failed")

// KeyGenerationError is returned when a keypair could not be produced or read
// back. Output holds whatever the key tool printed on stderr.
type KeyGenerationError struct {
	Label  string
	Output string
	Err    error
}

func (e *KeyGenerationError) Error() string {
	msg := "key generation failed"
	if e.Label != "" {
		msg = fmt.Sprintf("key generation for %s failed", e.Label)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Output != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Output)
	}
	return msg
}

func (e *KeyGenerationError) Unwrap() error {
	return e.Err
}

func (e *KeyGenerationError) Is(target error) bool {
	return target == ErrKeyGeneration
}

func generationError(label Label, err error) error {
	var kgErr *KeyGenerationError
	if errors.As(err, &kgErr) {
		if kgErr.Label == "" {
			kgErr.Label = label.String()
		}
		return kgErr
	}
	return &KeyGenerationError{Label: label.String(), Err: err}
}
