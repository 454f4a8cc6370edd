// Package errs implements a closed taxonomy of error kinds as typed
// errors, in the same typed/sentinel-error style as
// internal/dispatcher/circuit, instead of string-matched error handling.
package errs

import (
	"fmt"
	"time"
)

// Kind discriminates the closed set of error kinds this package produces.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindParse            Kind = "parse"
	KindMissingFXRate    Kind = "missing_fx_rate"
	KindSchemaValidation Kind = "schema_validation"
	KindStageFailure     Kind = "stage_failure"
	KindTransport        Kind = "transport"
	KindRateLimit        Kind = "rate_limit"
	KindTimeout          Kind = "timeout"
	KindTableInvariant   Kind = "table_invariant"
)

// Error is the common shape for every taxonomy member: a kind, a stage/step
// label, a timestamp, and the wrapped cause.
type Error struct {
	Kind      Kind
	Step      string
	Message   string
	Cause     error
	Timestamp time.Time
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s[%s]: %s: %v", e.Kind, e.Step, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s[%s]: %s", e.Kind, e.Step, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func newErr(kind Kind, step, msg string, cause error) *Error {
	return &Error{Kind: kind, Step: step, Message: msg, Cause: cause, Timestamp: time.Now().UTC()}
}

// Validation wraps a pre-stage input validation failure (per-item, skip).
func Validation(step, msg string) *Error { return newErr(KindValidation, step, msg, nil) }

// Parse wraps a non-fatal unit-parsing failure; caller proceeds with category=unknown.
func Parse(step, msg string) *Error { return newErr(KindParse, step, msg, nil) }

// MissingFXRate reports a currency for which the FX table has no rate.
type MissingFXRate struct {
	Currency string
}

func (e *MissingFXRate) Error() string { return fmt.Sprintf("missing FX rate for %q", e.Currency) }

// WrapMissingFXRate builds the taxonomy Error for a MissingFXRate cause.
func WrapMissingFXRate(step, currency string) *Error {
	return newErr(KindMissingFXRate, step, "no rate available, item passed through", &MissingFXRate{Currency: currency})
}

// TableInvariant reports an FX table base-rate inconsistency (fatal to the batch).
type TableInvariant struct {
	Detail string
}

func (e *TableInvariant) Error() string { return fmt.Sprintf("FX table invariant violated: %s", e.Detail) }

// WrapTableInvariant builds the taxonomy Error for a TableInvariant cause.
func WrapTableInvariant(step, detail string) *Error {
	return newErr(KindTableInvariant, step, "fatal misconfiguration", &TableInvariant{Detail: detail})
}

// SchemaValidation wraps an LLM response that failed schema validation,
// exhausted after retries.
func SchemaValidation(step, msg string, cause error) *Error {
	return newErr(KindSchemaValidation, step, msg, cause)
}

// StageFailure marks a terminal failure for one indicator; the batch continues.
func StageFailure(step, msg string, cause error) *Error {
	return newErr(KindStageFailure, step, msg, cause)
}

// Transport wraps a per-endpoint dispatcher failure that triggers failover.
func Transport(step, msg string, cause error) *Error {
	return newErr(KindTransport, step, msg, cause)
}

// RateLimit marks a 429-equivalent signal triggering cooldown and rate reduction.
func RateLimit(step, msg string) *Error { return newErr(KindRateLimit, step, msg, nil) }

// Timeout marks a timed-out dispatcher call or, after retries, an LLM stage call.
func Timeout(step, msg string, cause error) *Error {
	return newErr(KindTimeout, step, msg, cause)
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if ae, ok := err.(*Error); ok {
		e = ae
	} else {
		return false
	}
	return e.Kind == kind
}
