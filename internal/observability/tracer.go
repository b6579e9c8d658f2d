package observability

import "log"

// Tracer receives debug breadcrumbs from the router and agents. The
// active implementation is chosen once at startup from configuration;
// components always hold a non-nil Tracer.
type Tracer interface {
	Trace(stage, format string, args ...any)
}

// NopTracer discards every trace.
type NopTracer struct{}

func (NopTracer) Trace(string, string, ...any) {}

// LogTracer writes traces through the standard logger.
type LogTracer struct{}

func (LogTracer) Trace(stage, format string, args ...any) {
	log.Printf("["+stage+"] "+format, args...)
}

// NewTracer selects the active tracer from the debug flag.
func NewTracer(debug bool) Tracer {
	if debug {
		return LogTracer{}
	}
	return NopTracer{}
}
