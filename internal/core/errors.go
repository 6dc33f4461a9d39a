package core

import (
	"fmt"
	"strings"
)

// Code identifies an error category. Callers compare categories with
// errors.Is against the sentinel values below.
type Code string

const (
	CodeRuleset        Code = "RULESET_ERROR"
	CodeOutOfBounds    Code = "OUT_OF_BOUNDS"
	CodeInvalidCommand Code = "INVALID_COMMAND"
	CodeCorruptSave    Code = "CORRUPT_SAVE"
)

// Error is the error model of the simulation core.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Is matches on Code only, so errors.Is(err, ErrInvalidCommand) holds for
// every invalid command regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	return e.Code == t.Code
}

var (
	ErrRuleset        = &Error{Code: CodeRuleset}
	ErrOutOfBounds    = &Error{Code: CodeOutOfBounds}
	ErrInvalidCommand = &Error{Code: CodeInvalidCommand}
	ErrCorruptSave    = &Error{Code: CodeCorruptSave}
)

// OutOfBounds reports a coordinate outside the configured grid shape.
func OutOfBounds(c Coord) error {
	return &Error{Code: CodeOutOfBounds, Message: fmt.Sprintf("coordinate %s is outside the map", c)}
}

// InvalidCommand reports a rejected command.
func InvalidCommand(format string, args ...any) error {
	return &Error{Code: CodeInvalidCommand, Message: fmt.Sprintf(format, args...)}
}

// CorruptSave reports an undecodable save.
func CorruptSave(format string, args ...any) error {
	return &Error{Code: CodeCorruptSave, Message: fmt.Sprintf(format, args...)}
}

// RulesetInvalid reports a ruleset that cannot be loaded.
func RulesetInvalid(format string, args ...any) error {
	return &Error{Code: CodeRuleset, Message: fmt.Sprintf(format, args...)}
}

// CyclicPrerequisiteError is returned when technology prerequisites form a
// cycle. Path starts and ends with the same id.
type CyclicPrerequisiteError struct {
	Path []string
}

func (e *CyclicPrerequisiteError) Error() string {
	return fmt.Sprintf("[%s] cyclic prerequisite: %s", CodeRuleset, strings.Join(e.Path, " -> "))
}

// Is reports ruleset category membership.
func (e *CyclicPrerequisiteError) Is(target error) bool {
	return target == ErrRuleset
}

// UnknownTechnologyError is returned when a prerequisite references a
// technology id that is not declared.
type UnknownTechnologyError struct {
	ID         string
	RequiredBy string
}

func (e *UnknownTechnologyError) Error() string {
	if e.RequiredBy == "" {
		return fmt.Sprintf("[%s] unknown technology %q", CodeRuleset, e.ID)
	}
	return fmt.Sprintf("[%s] unknown technology %q required by %q", CodeRuleset, e.ID, e.RequiredBy)
}

// Is reports ruleset category membership.
func (e *UnknownTechnologyError) Is(target error) bool {
	return target == ErrRuleset
}
