package domain

import "errors"

var (
	// ErrMalformedAddress indicates an address that cannot be decomposed into
	// a canonical page plus locale using the configured convention.
	ErrMalformedAddress = errors.New("malformed address")

	// ErrRenderTimeout and ErrRenderFailed are per-page conditions. A page that
	// fails to render is still discovered but yields no links or screenshot.
	ErrRenderTimeout = errors.New("render timed out")
	ErrRenderFailed  = errors.New("render failed")

	// ErrOracleUnavailable covers network and auth failures talking to the
	// vision oracle; ErrOracleMalformedResponse covers unparsable output.
	// Both are retried, then downgraded to an analysis_failed report entry.
	ErrOracleUnavailable       = errors.New("oracle unavailable")
	ErrOracleMalformedResponse = errors.New("oracle returned malformed response")

	// ErrConfiguration aborts the run before any work starts.
	ErrConfiguration = errors.New("configuration error")
)
