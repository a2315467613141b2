// Package errors provides error handling for webidl2js.
//
// This package re-exports github.com/cockroachdb/errors so that every error
// carries a stack trace and can be inspected with Is/As, and it defines the
// sentinel errors of the linkage stage.
//
// Usage:
//
//	if _, ok := ctx.Interfaces[name]; !ok {
//	    return errors.Wrapf(errors.ErrUnknownBase, "partial interface %s", name)
//	}
//
//	if errors.Is(err, errors.ErrCircularTypedef) {
//	    // report the cycle
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	FlattenDetails = crdb.FlattenDetails
)

// Assertions
var (
	AssertionFailedf    = crdb.AssertionFailedf
	HasAssertionFailure = crdb.HasAssertionFailure
)

// Linkage errors. All of them can be suppressed by a lenient caller, in which
// case the offending fragment is dropped.
var (
	// ErrDuplicate is a second non-partial declaration of the same name.
	ErrDuplicate = New("duplicate declaration")

	// ErrUnknownBase is a partial, includes or implements statement that
	// refers to a construct that was never declared.
	ErrUnknownBase = New("unknown base declaration")

	// ErrUnknownConstruct is a declaration kind the context cannot register.
	ErrUnknownConstruct = New("unknown construct type")

	// ErrCircularTypedef is a typedef that refers to itself.
	ErrCircularTypedef = New("circular typedef")

	// ErrCallbackInterface is a callback interface without exactly one operation.
	ErrCallbackInterface = New("callback interface must declare exactly one operation")

	// ErrDuplicateEnumValue is an enumeration that lists a value twice.
	ErrDuplicateEnumValue = New("duplicate enumeration value")

	// ErrInvalidMember is a member that is not allowed in its container.
	ErrInvalidMember = New("invalid member")

	// ErrParse is returned when the IDL source contains syntax errors.
	ErrParse = New("parse error")
)

// IsLinkageError reports whether err is one of the suppressible linkage errors.
func IsLinkageError(err error) bool {
	return err != nil && IsAny(err,
		ErrDuplicate, ErrUnknownBase, ErrUnknownConstruct, ErrCircularTypedef,
		ErrCallbackInterface, ErrDuplicateEnumValue, ErrInvalidMember)
}
