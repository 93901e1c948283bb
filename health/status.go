package health

import (
	"regexp"
	"strings"
	"time"
)

var (
	httpURLRegex     = regexp.MustCompile(`https?://[^\s]+`)
	natsURLRegex     = regexp.MustCompile(`nats://[^\s]+`)
	wsURLRegex       = regexp.MustCompile(`wss?://[^\s]+`)
	unixPathRegex    = regexp.MustCompile(`/[a-zA-Z0-9/_.-]+`)
	windowsPathRegex = regexp.MustCompile(`[A-Z]:\\[^:\s]+`)
	ipAddrRegex      = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	portRegex        = regexp.MustCompile(`:\d{2,5}\b`)
	credentialRegex  = regexp.MustCompile(`(?i)(password|token|key|secret|credential)[^a-zA-Z]*[:=][^,\s}]+`)
)

// State is the health level of a component.
type State string

// Health states, ordered from best to worst.
const (
	StateHealthy   State = "healthy"
	StateDegraded  State = "degraded"
	StateUnhealthy State = "unhealthy"
)

func (s State) severity() int {
	switch s {
	case StateHealthy:
		return 0
	case StateDegraded:
		return 1
	default:
		return 2
	}
}

// Status is the health of one component, or of the whole process when it
// carries sub-statuses.
type Status struct {
	Component   string    `json:"component"`
	Healthy     bool      `json:"healthy"`
	State       State     `json:"status"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
}

// New creates a status stamped with the current time.
func New(component string, state State, message string) Status {
	return Status{
		Component: component,
		Healthy:   state == StateHealthy,
		State:     state,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Healthy creates a healthy status.
func Healthy(component, message string) Status { return New(component, StateHealthy, message) }

// Degraded creates a degraded status.
func Degraded(component, message string) Status { return New(component, StateDegraded, message) }

// Unhealthy creates an unhealthy status.
func Unhealthy(component, message string) Status { return New(component, StateUnhealthy, message) }

// FromError reports component as unhealthy with a sanitized error message, or
// healthy with okMessage when err is nil.
func FromError(component string, err error, okMessage string) Status {
	if err == nil {
		return Healthy(component, okMessage)
	}
	return Unhealthy(component, sanitizeErrorMessage(err.Error()))
}

// Aggregate combines sub-statuses into one. The result takes the worst state
// found; no sub-statuses is healthy.
func Aggregate(component string, subStatuses []Status) Status {
	worst := StateHealthy
	for _, sub := range subStatuses {
		if sub.State.severity() > worst.severity() {
			worst = sub.State
		}
	}

	var message string
	switch {
	case len(subStatuses) == 0:
		message = "No components reporting"
	case worst == StateUnhealthy:
		message = "One or more components are unhealthy"
	case worst == StateDegraded:
		message = "One or more components are degraded"
	default:
		message = "All components are healthy"
	}

	status := New(component, worst, message)
	status.SubStatuses = append([]Status(nil), subStatuses...)
	return status
}

// sanitizeErrorMessage hides URLs, paths, addresses and credentials so that
// error text can be served on an unauthenticated endpoint.
func sanitizeErrorMessage(err string) string {
	if err == "" {
		return ""
	}

	// URLs go first since they contain paths.
	sanitized := httpURLRegex.ReplaceAllString(err, "[URL]")
	sanitized = natsURLRegex.ReplaceAllString(sanitized, "[URL]")
	sanitized = wsURLRegex.ReplaceAllString(sanitized, "[URL]")

	sanitized = unixPathRegex.ReplaceAllString(sanitized, "[PATH]")
	sanitized = windowsPathRegex.ReplaceAllString(sanitized, "[PATH]")
	sanitized = ipAddrRegex.ReplaceAllString(sanitized, "[IP]")
	sanitized = portRegex.ReplaceAllString(sanitized, "[PORT]")

	lower := strings.ToLower(sanitized)
	for _, word := range []string{"password", "token", "key", "secret", "credential"} {
		if strings.Contains(lower, word) {
			return credentialRegex.ReplaceAllString(sanitized, "[REDACTED]")
		}
	}
	return sanitized
}
