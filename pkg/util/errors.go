// Copyright 2023-2024 daviszhen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package util

import (
	"github.com/cockroachdb/errors"
)

// Error taxonomy of the engine. Every condition is fatal at the point it is
// detected; callers match with errors.Is.
var (
	ErrUnsupportedPlanNode = errors.New("unsupported plan node")
	ErrUnsupportedParadigm = errors.New("unsupported paradigm")
	ErrInvalidKey          = errors.New("invalid key")
	ErrMapCapacityExceeded = errors.New("map capacity exceeded")
	ErrCompilationFailure  = errors.New("compilation failure")
)

func UnsupportedPlanNodef(format string, args ...any) error {
	return errors.Wrapf(ErrUnsupportedPlanNode, format, args...)
}

func UnsupportedParadigmf(format string, args ...any) error {
	return errors.Wrapf(ErrUnsupportedParadigm, format, args...)
}

func InvalidKeyf(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidKey, format, args...)
}

func MapCapacityExceededf(format string, args ...any) error {
	return errors.Wrapf(ErrMapCapacityExceeded, format, args...)
}

func CompilationFailuref(format string, args ...any) error {
	return errors.Wrapf(ErrCompilationFailure, format, args...)
}

// RuntimeError carries an error out of generated code through a panic. The
// backend recovers it at the Execute boundary.
type RuntimeError struct {
	Err error
}

func (re *RuntimeError) Error() string {
	return re.Err.Error()
}

func (re *RuntimeError) Unwrap() error {
	return re.Err
}

// Raise aborts the running pipeline with err.
func Raise(err error) {
	panic(&RuntimeError{Err: err})
}

// RecoverError turns a recovered panic value into an error. Errors raised
// through Raise are returned unchanged; anything else is wrapped with the
// stack of the panic site.
func RecoverError(v any) error {
	if v == nil {
		return nil
	}
	if re, ok := v.(*RuntimeError); ok {
		return re.Err
	}
	if err, ok := v.(error); ok {
		return errors.WithStack(err)
	}
	return ConvertPanicError(v)
}
