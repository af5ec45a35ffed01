package types

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
var (
	// ErrClusterUnavailable indicates that no candidate host answered the health check.
	// This is fatal to the calling operation and is not retried internally.
	ErrClusterUnavailable = errors.New("chorus: all hosts are down")

	// ErrQueueNotEmpty indicates a batch ingestion was attempted while earlier
	// asynchronous submissions have not been executed yet.
	ErrQueueNotEmpty = errors.New("chorus: queue must be empty before batch ingestion, execute pending writes first")

	// ErrUnreadableInput indicates a batch ingestion input file cannot be opened or read.
	ErrUnreadableInput = errors.New("chorus: input file is not readable")

	// ErrStatementFailed indicates the server reported a write or alter statement as failed.
	ErrStatementFailed = errors.New("chorus: statement failed")

	// ErrClientClosed indicates an operation was attempted on a closed client.
	ErrClientClosed = errors.New("chorus: client is closed")

	// ErrNilTransport indicates that a nil transport was provided.
	ErrNilTransport = errors.New("chorus: transport cannot be nil")

	// ErrNoKnownHosts indicates the transport reported an empty host list.
	ErrNoKnownHosts = errors.New("chorus: no known hosts")

	// ErrHostDraining indicates a host was skipped because it is in drain mode.
	ErrHostDraining = errors.New("chorus: host is draining")

	// ErrNoActiveHost indicates an operation needed an active host but none was selected.
	ErrNoActiveHost = errors.New("chorus: no active host")
)

// ClusterUnavailableError is returned when every candidate host is unreachable.
//
// It carries the diagnostic of each unreachable host.
type ClusterUnavailableError struct {
	// Unreachable maps each host to the reason it failed the health check.
	Unreachable map[HostAddress]error
}

// Error implements the error interface.
func (e *ClusterUnavailableError) Error() string {
	if len(e.Unreachable) == 0 {
		return ErrClusterUnavailable.Error() + ": no candidate hosts"
	}

	hosts := make([]HostAddress, 0, len(e.Unreachable))
	for h := range e.Unreachable {
		hosts = append(hosts, h)
	}
	SortHosts(hosts)

	var b strings.Builder
	b.WriteString(ErrClusterUnavailable.Error())
	b.WriteString(": ")
	for i, h := range hosts {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(h.String())
		if cause := e.Unreachable[h]; cause != nil {
			b.WriteString(": ")
			b.WriteString(cause.Error())
		}
	}

	return b.String()
}

// Unwrap returns the sentinel followed by every host diagnostic for errors.Is/As compatibility.
func (e *ClusterUnavailableError) Unwrap() []error {
	errs := []error{ErrClusterUnavailable}
	for _, h := range sortedKeys(e.Unreachable) {
		if cause := e.Unreachable[h]; cause != nil {
			errs = append(errs, cause)
		}
	}

	return errs
}

// UnreadableInputError reports a batch input file that cannot be read.
type UnreadableInputError struct {
	// Path of the offending file.
	Path string

	// Cause is the underlying filesystem error, if any.
	Cause error
}

// Error implements the error interface.
func (e *UnreadableInputError) Error() string {
	msg := "chorus: can't read file " + e.Path
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

// Unwrap returns the sentinel and the underlying cause.
func (e *UnreadableInputError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrUnreadableInput}
	}

	return []error{ErrUnreadableInput, e.Cause}
}

// StatementError wraps a failed write or alter statement.
type StatementError struct {
	// Host the statement was sent to.
	Host HostAddress

	// Query is the statement text.
	Query string

	// Cause is the error reported by the transport.
	Cause error
}

// Error implements the error interface.
func (e *StatementError) Error() string {
	return "chorus: statement on " + e.Host.String() + " failed: " + e.Cause.Error()
}

// Unwrap returns the sentinel and the transport's error payload.
func (e *StatementError) Unwrap() []error {
	return []error{ErrStatementFailed, e.Cause}
}

// BatchFileError reports the failure of one file inside a batch ingestion.
type BatchFileError struct {
	// Path of the input file.
	Path string

	// QueryID of the submission that carried the file.
	QueryID string

	// Cause is the error reported for this file.
	Cause error
}

// Error implements the error interface.
func (e *BatchFileError) Error() string {
	return "chorus: batch insert of " + e.Path + " failed: " + e.Cause.Error()
}

// Unwrap returns the sentinel and the per-file cause.
func (e *BatchFileError) Unwrap() []error {
	return []error{ErrStatementFailed, e.Cause}
}

func sortedKeys(m map[HostAddress]error) []HostAddress {
	hosts := make([]HostAddress, 0, len(m))
	for h := range m {
		hosts = append(hosts, h)
	}
	SortHosts(hosts)

	return hosts
}
