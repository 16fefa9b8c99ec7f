package backend

import (
	"errors"

	dErrors "storefront/pkg/domain-errors"
)

// MsgTableNotFound is the operator instruction for a missing schema.
const MsgTableNotFound = "database table not found; apply the storefront schema first"

// domainMapping translates a backend failure class into a domain code.
type domainMapping struct {
	match func(error) bool
	code  dErrors.Code
	msg   string // empty = caller's message
}

func inCategory(cats ...Category) func(error) bool {
	return func(err error) bool {
		c := CategoryOf(err)
		for _, want := range cats {
			if c == want {
				return true
			}
		}
		return false
	}
}

// domainMappings defines translations in priority order.
// First match wins; a missing relation must precede plain not-found.
var domainMappings = []domainMapping{
	{IsMissingRelation, dErrors.CodeTableNotFound, MsgTableNotFound},
	{inCategory(CategoryNotFound), dErrors.CodeNotFound, ""},
	{inCategory(CategoryConflict), dErrors.CodeConflict, ""},
	{inCategory(CategoryBadRequest), dErrors.CodeBadRequest, ""},
	{inCategory(CategoryUnauthorized), dErrors.CodeUnauthorized, ""},
	{inCategory(CategoryForbidden, CategoryPolicy), dErrors.CodeForbidden, ""},
	{inCategory(CategoryRateLimited), dErrors.CodeRateLimited, ""},
	{inCategory(CategoryTimeout), dErrors.CodeTimeout, ""},
}

// ToDomain wraps a backend failure in a domain error so handlers can map it
// to an HTTP response. Existing domain errors pass through unchanged;
// anything unmatched is a bad gateway.
func ToDomain(err error, msg string) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	for _, m := range domainMappings {
		if m.match(err) {
			if m.msg != "" {
				msg = m.msg
			}
			return &dErrors.Error{Code: m.code, Message: msg, Err: err}
		}
	}
	return &dErrors.Error{Code: dErrors.CodeBadGateway, Message: msg, Err: err}
}
