// Package fault defines the error taxonomy shared by the capture session,
// the windowing core and the sink boundary.
package fault

import "github.com/joomcode/errorx"

// Namespace groups every error this module raises.
var Namespace = errorx.NewNamespace("micwindow")

var (
	// ConfigError marks an invalid window configuration. Raised eagerly at
	// construction; a session must never start capture after one.
	ConfigError = Namespace.NewType("config_error")

	// SourceUnavailable marks a sample source that could not be started.
	SourceUnavailable = Namespace.NewType("source_unavailable")

	// Interrupted marks a capture interruption after a successful start.
	// Resumable interruptions are handled by the session; non-resumable ones
	// surface to the sink as fatal.
	Interrupted = Namespace.NewType("interrupted")
)

// PropertyDetails carries free-form context attached to a fault, forwarded
// verbatim in the sink notification.
var PropertyDetails = errorx.RegisterPrintableProperty("details")

// Notification is the fatal-error triple delivered to a sink when a session
// dies. Code identifies the error type, Details is optional context.
type Notification struct {
	Code    string
	Message string
	Details string
}

// Notify converts an error into the sink-facing notification triple.
// Non-errorx errors are reported under the generic namespace code.
func Notify(err error) Notification {
	n := Notification{Code: Namespace.FullName(), Message: err.Error()}
	if typed := errorx.Cast(err); typed != nil {
		n.Code = typed.Type().FullName()
		if details, ok := typed.Property(PropertyDetails); ok {
			n.Details, _ = details.(string)
		}
	}
	return n
}
