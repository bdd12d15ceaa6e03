package model

import "fmt"

type Source interface {
	Load(identifier string) (Score, error)
}

type Sink interface {
	Save(reduced, dropped Score, baseName string) error
}

type ParseError struct {
	Identifier string
	Cause      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse %s: %v", e.Identifier, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

type WriteError struct {
	Target string
	Cause  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("could not write %s: %v", e.Target, e.Cause)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}

type FileNumToScorePath = map[uint32]string
