package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

// classifyError classifies an error into a type for metrics labeling.
//
// Error types:
//   - "timeout": timeout or deadline exceeded errors
//   - "network": connectivity errors (connection refused, reset, unreachable)
//   - "serialization_conflict": Postgres 40001/40P01 or deadlock errors
//   - "context_cancelled" / "context_deadline": context errors
//   - "dns": DNS resolution errors
//   - "unknown": all other errors
func classifyError(err error) string {
	if err == nil {
		return "none"
	}

	if errors.Is(err, context.Canceled) {
		return "context_cancelled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "context_deadline"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "dns"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "network"
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "40001") ||
		strings.Contains(errMsg, "40p01") ||
		strings.Contains(errMsg, "serialization failure") ||
		strings.Contains(errMsg, "deadlock detected") {
		return "serialization_conflict"
	}

	if strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "deadline exceeded") ||
		strings.Contains(errMsg, "timed out") ||
		strings.Contains(errMsg, "i/o timeout") {
		return "timeout"
	}

	if strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "network") {
		return "network"
	}

	return "unknown"
}
