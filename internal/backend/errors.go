package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Category is the normalized failure taxonomy for hosted backend calls.
// Callers branch on the category, never on raw status codes or messages.
type Category string

const (
	CategoryNotFound     Category = "not_found"
	CategoryBadRequest   Category = "bad_request"
	CategoryUnauthorized Category = "unauthorized"
	CategoryForbidden    Category = "forbidden"
	CategoryConflict     Category = "conflict"
	CategoryRateLimited  Category = "rate_limited"
	// CategoryPolicy covers row-level policy and privilege failures reported
	// by the REST layer, including policies that error out server-side.
	CategoryPolicy      Category = "policy"
	CategoryUnavailable Category = "unavailable"
	CategoryInternal    Category = "internal"
	CategoryBadData     Category = "bad_data"
	CategoryNetwork     Category = "network"
	CategoryTimeout     Category = "timeout"
)

// Postgres and PostgREST codes the classifier and callers care about.
const (
	CodeNoRowsForSingle   = "PGRST116"
	CodeSchemaCacheTable  = "PGRST205"
	CodeUndefinedFunction = "PGRST202"
	CodeUndefinedTable    = "42P01"
	CodeInsufficientPriv  = "42501"
	CodePolicyRecursion   = "42P17"
	CodeUniqueViolation   = "23505"
)

// Error is a classified backend failure.
type Error struct {
	Category Category
	Op       string
	Status   int
	Code     string
	Message  string
	Hint     string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "backend %s [%s", e.Op, e.Category)
	if e.Status != 0 {
		fmt.Fprintf(&b, " %d", e.Status)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " %s", e.Code)
	}
	b.WriteString("]")
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CategoryOf extracts the category, or CategoryInternal for foreign errors.
func CategoryOf(err error) Category {
	var be *Error
	if errors.As(err, &be) {
		return be.Category
	}
	return CategoryInternal
}

// IsNotFound reports a definitive "no such row/object".
func IsNotFound(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Category == CategoryNotFound
}

// IsNetwork reports a transport failure: no response was received.
func IsNetwork(err error) bool {
	var be *Error
	if !errors.As(err, &be) {
		return false
	}
	return be.Category == CategoryNetwork || be.Category == CategoryTimeout
}

// IsPolicyError reports a backend authorization or server-side failure that
// is not a definitive not-found: policy/privilege errors, auth rejections of
// the query itself, and 5xx responses.
func IsPolicyError(err error) bool {
	var be *Error
	if !errors.As(err, &be) {
		return false
	}
	switch be.Category {
	case CategoryPolicy, CategoryUnauthorized, CategoryForbidden, CategoryUnavailable, CategoryInternal:
		return true
	}
	return false
}

// IsMissingRelation reports that the table (or view) queried does not exist,
// which means the database schema was never applied.
func IsMissingRelation(err error) bool {
	var be *Error
	if !errors.As(err, &be) {
		return false
	}
	switch be.Code {
	case CodeUndefinedTable, CodeSchemaCacheTable:
		return true
	}
	msg := strings.ToLower(be.Message)
	if strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist") {
		return true
	}
	return strings.Contains(msg, "could not find the table")
}

// errorBody is the union of the error envelopes the auth, REST and storage
// services return.
type errorBody struct {
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Message          string          `json:"message"`
	Msg              string          `json:"msg"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
	Hint             string          `json:"hint"`
}

func (b errorBody) code() string {
	if b.ErrorCode != "" {
		return b.ErrorCode
	}
	var s string
	if len(b.Code) > 0 && json.Unmarshal(b.Code, &s) == nil && s != "" {
		return s
	}
	return b.Error
}

func (b errorBody) message() string {
	for _, m := range []string{b.Message, b.Msg, b.ErrorDescription} {
		if m != "" {
			return m
		}
	}
	return b.Error
}

// classify turns a non-2xx response into a classified Error.
func classify(op string, status int, body []byte) *Error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb) //nolint:errcheck // non-JSON bodies fall back to status text
	e := &Error{
		Op:      op,
		Status:  status,
		Code:    eb.code(),
		Message: eb.message(),
		Hint:    eb.Hint,
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	e.Category = categorize(status, e.Code)
	return e
}

func categorize(status int, code string) Category {
	switch code {
	case CodeNoRowsForSingle, CodeUndefinedTable, CodeSchemaCacheTable, CodeUndefinedFunction:
		return CategoryNotFound
	case CodeInsufficientPriv, CodePolicyRecursion:
		return CategoryPolicy
	case CodeUniqueViolation:
		return CategoryConflict
	}
	switch {
	case status == http.StatusNotFound:
		return CategoryNotFound
	case status == http.StatusUnauthorized:
		return CategoryUnauthorized
	case status == http.StatusForbidden:
		return CategoryForbidden
	case status == http.StatusConflict:
		return CategoryConflict
	case status == http.StatusTooManyRequests:
		return CategoryRateLimited
	case status == http.StatusBadGateway, status == http.StatusServiceUnavailable, status == http.StatusGatewayTimeout:
		return CategoryUnavailable
	case status == http.StatusInternalServerError:
		return CategoryPolicy
	case status >= 500:
		return CategoryInternal
	case status >= 400:
		return CategoryBadRequest
	}
	return CategoryInternal
}
