package bridge

import (
	"errors"
	"fmt"
	"strings"
)

// Bridge error taxonomy. Every member is recoverable: the hook installer
// converts them into failed report entries and keeps going.
var (
	// ErrClassNotFound indicates the target class is absent from the
	// loaded set. Expected and common.
	ErrClassNotFound = errors.New("class not found")

	// ErrMethodNotFound indicates the named method is absent on a
	// resolved class.
	ErrMethodNotFound = errors.New("method not found")

	// ErrOverloadMismatch indicates a signature filter matched zero
	// overloads.
	ErrOverloadMismatch = errors.New("no overload matches signature")

	// ErrInstallFailed indicates the runtime rejected the override,
	// e.g. a final or native method.
	ErrInstallFailed = errors.New("installation failed")

	// ErrConnection indicates a transport problem with a remote bridge.
	ErrConnection = errors.New("bridge connection error")
)

// ClassNotFoundError wraps ErrClassNotFound with the class name.
type ClassNotFoundError struct {
	Class string
}

func (e *ClassNotFoundError) Error() string {
	return fmt.Sprintf("class not found: %s", e.Class)
}

func (e *ClassNotFoundError) Unwrap() error {
	return ErrClassNotFound
}

// MethodNotFoundError wraps ErrMethodNotFound with class and method names.
type MethodNotFoundError struct {
	Class  string
	Method string
}

func (e *MethodNotFoundError) Error() string {
	return fmt.Sprintf("method not found: %s.%s", e.Class, e.Method)
}

func (e *MethodNotFoundError) Unwrap() error {
	return ErrMethodNotFound
}

// OverloadMismatchError wraps ErrOverloadMismatch with the signature that
// matched nothing.
type OverloadMismatchError struct {
	Class  string
	Method string
	Params []string
}

func (e *OverloadMismatchError) Error() string {
	return fmt.Sprintf("no overload matches %s.%s(%s)",
		e.Class, e.Method, strings.Join(e.Params, ", "))
}

func (e *OverloadMismatchError) Unwrap() error {
	return ErrOverloadMismatch
}

// InstallError wraps ErrInstallFailed with the runtime's reason.
type InstallError struct {
	Class  string
	Method string
	Reason string
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("install %s.%s: %s", e.Class, e.Method, e.Reason)
}

func (e *InstallError) Unwrap() error {
	return ErrInstallFailed
}

// IsClassNotFound checks if an error is a class resolution failure.
func IsClassNotFound(err error) bool {
	return errors.Is(err, ErrClassNotFound)
}

// IsMethodNotFound checks if an error is a method lookup failure.
func IsMethodNotFound(err error) bool {
	return errors.Is(err, ErrMethodNotFound)
}

// IsOverloadMismatch checks if an error is a signature filter miss.
func IsOverloadMismatch(err error) bool {
	return errors.Is(err, ErrOverloadMismatch)
}

// IsInstallFailed checks if an error is a rejected override.
func IsInstallFailed(err error) bool {
	return errors.Is(err, ErrInstallFailed)
}

// IsConnection checks if an error is a transport failure.
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}
