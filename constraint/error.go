package constraint

import (
	stderrors "errors"
	"fmt"
)

// Stage names the build step that failed.
type Stage string

const (
	StageLower      Stage = "lower"
	StageEBNF       Stage = "ebnf"
	StageGrammar    Stage = "grammar"
	StageTokenizer  Stage = "tokenizer"
	StageTable      Stage = "table"
	StagePrecompute Stage = "precompute"
	StageConfig     Stage = "config"
)

// BuildError reports a failure while assembling a constraint.
type BuildError struct {
	Stage Stage
	Err   error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	return fmt.Sprintf("constraint: %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// Cause returns the underlying error for github.com/pingcap/errors.Cause.
func (e *BuildError) Cause() error {
	return e.Err
}

var (
	// ErrUnknownToken is returned by Commit for an id outside the
	// vocabulary.
	ErrUnknownToken = stderrors.New("constraint: vocabulary id out of range")

	// ErrRejected is returned by Commit for a token the mask excludes.
	ErrRejected = stderrors.New("constraint: token not allowed")

	// ErrUndefinedRule is returned when a Ref names no rule.
	ErrUndefinedRule = stderrors.New("constraint: reference to undefined rule")
)

func buildErr(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &BuildError{Stage: stage, Err: err}
}
