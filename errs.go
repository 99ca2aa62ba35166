package ledb

import (
	"fmt"
	"strings"
)

// Kind classifies an Error by how far it must unwind: Storage and Internal
// errors abort the enclosing transaction, Schema and Query errors abort only
// the current operation. See §7 of the design for the full taxonomy.
type Kind int

const (
	// KindStorage covers map-full, I/O failure, corruption, and environment
	// misconfiguration reported by the underlying KV engine.
	KindStorage Kind = iota
	// KindSchema covers index key-type mismatches and unique-constraint
	// violations.
	KindSchema
	// KindQuery covers malformed filter/order/modify input and modifier
	// application failures (wrong target type, divide by zero, bad regex).
	KindQuery
	// KindInternal covers codec round-trip failures and invariant
	// violations. Always fatal; always aborts the transaction.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindStorage:
		return "storage"
	case KindSchema:
		return "schema"
	case KindQuery:
		return "query"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the error type ledb's own checks return from its public API.
// Errors from the storage backend's bucket writes (Put, Delete,
// CreateBucket, DeleteBucket) are in several places returned as they
// are, without an Error around them. Collection,
// Index and Key are populated when the failure can be pinned to a specific
// place; they are nil/empty otherwise.
type Error struct {
	Kind       Kind
	Collection string
	Index      string
	Key        []byte
	Msg        string
	Err        error
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Kind.String())
	if e.Collection != "" {
		buf.WriteByte(':')
		buf.WriteString(e.Collection)
	}
	if e.Index != "" {
		buf.WriteByte('.')
		buf.WriteString(e.Index)
	}
	if e.Key != nil {
		buf.WriteByte('/')
		buf.WriteString(hexstr(e.Key))
	}
	buf.WriteString(": ")
	buf.WriteString(e.Msg)
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

func errf(kind Kind, collection, index string, key []byte, err error, format string, args ...any) *Error {
	return &Error{
		Kind:       kind,
		Collection: collection,
		Index:      index,
		Key:        key,
		Msg:        fmt.Sprintf(format, args...),
		Err:        err,
	}
}

func storageErrf(err error, format string, args ...any) *Error {
	return errf(KindStorage, "", "", nil, err, format, args...)
}

func schemaErrf(collection, index string, err error, format string, args ...any) *Error {
	return errf(KindSchema, collection, index, nil, err, format, args...)
}

func queryErrf(format string, args ...any) *Error {
	return errf(KindQuery, "", "", nil, nil, format, args...)
}

func internalErrf(err error, format string, args ...any) *Error {
	return errf(KindInternal, "", "", nil, err, format, args...)
}

// DataError reports a codec round-trip failure against a byte blob; it is
// always wrapped in an Error of KindInternal. Keeping the offending bytes
// (truncated) alongside the message is what makes corrupted-value bug
// reports actionable without a debugger.
type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x", e.Msg, e.Err, n, e.Data)
		}
		return fmt.Sprintf("%s: (%d) %x", e.Msg, n, e.Data)
	}
	p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: (%d) %x...%x", e.Msg, e.Err, n, p, s)
	}
	return fmt.Sprintf("%s: (%d) %x...%x", e.Msg, n, p, s)
}

func wrapInternal(err error, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return internalErrf(err, format, args...)
}
