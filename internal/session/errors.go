package session

import (
	"errors"
	"fmt"
)

var (
	ErrEnvironmentNotFound = errors.New("wireguard environment not found")
	ErrServerConfigExists  = errors.New("server config already exists")
	ErrServerNotFound      = errors.New("server not found")
	ErrServerNotReady      = errors.New("server has not been set up")
	ErrAlreadySetUp        = errors.New("server is already set up")
	ErrStateMismatch       = errors.New("server config does not match recorded state")
	ErrStartIndex          = errors.New("start index does not match client count")
)

type EnvironmentNotFoundError struct {
	Path string
	Err  error
}

func (e *EnvironmentNotFoundError) Error() string {
	return fmt.Sprintf("no such WireGuard directory '%s': %v", e.Path, e.Err)
}

func (e *EnvironmentNotFoundError) Unwrap() error {
	return e.Err
}

func (e *EnvironmentNotFoundError) Is(target error) bool {
	return target == ErrEnvironmentNotFound
}

type ServerConfigExistsError struct {
	Name string
	Path string
}

func (e *ServerConfigExistsError) Error() string {
	return fmt.Sprintf("server config '%s.conf' already exists at %s, choose another name or delete it", e.Name, e.Path)
}

func (e *ServerConfigExistsError) Is(target error) bool {
	return target == ErrServerConfigExists
}

type StartIndexError struct {
	Expected int
	Got      int
}

func (e *StartIndexError) Error() string {
	return fmt.Sprintf("start index %d does not match the %d clients already created", e.Got, e.Expected)
}

func (e *StartIndexError) Is(target error) bool {
	return target == ErrStartIndex
}
