package core

// error_messages.go maps technical errors to messages users can act on.
//
// Every message carries a code that users can quote to support:
//
//	CSV001  file has no data rows after the header
//	VAL007  one or more catalog items break a validation rule
//	VAL008  JSON import does not match the record schema
//	DIFF001 a diff side is not a JSON or YAML object
//	DIFF002 diff session expired or never existed
//	DIFF003 choice names a field that is not in the diff
//	DIFF004 choice side is not "left" or "right"
//	DIFF005 too many open diff sessions
//	ITEM001 catalog item not found
//	ITEM002 kind filter is not item, bundle or container
//	ITEM003 push with no stored items
//	PF001   PlayFab rejected the request
//	PF002   PlayFab credentials are not configured
//	FILE001-FILE005 file size, format and presence
//	IMP001-IMP003 import cancelled, busy or timed out
//	DB001-DB007 database constraint and connection errors
//	RATE001 too many requests
//	ERR000  anything else; check the server log
//
// Known error values are matched with errors.Is / errors.As first. Errors
// that only carry text (driver and network errors) fall through to
// case-insensitive substring patterns, where the first match wins.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/pfcatalog/internal/catalog"
	"github.com/JonMunkholm/pfcatalog/internal/diff"
	"github.com/JonMunkholm/pfcatalog/internal/playfab"
	"github.com/JonMunkholm/pfcatalog/internal/store"
)

// UserMessage is a user-facing description of an error.
type UserMessage struct {
	Message string // what happened
	Action  string // what to do about it
	Code    string // support reference
	Status  int    // HTTP status for the web layer
}

type errorMatch struct {
	match func(error) bool
	msg   UserMessage
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

func as[T error]() func(error) bool {
	return func(err error) bool {
		var target T
		return errors.As(err, &target)
	}
}

var errorMatches = []errorMatch{
	{is(catalog.ErrInsufficientData), UserMessage{
		Message: "The file has no catalog rows",
		Action:  "Export the catalog again; the file needs a header line and at least one item row",
		Code:    "CSV001",
		Status:  http.StatusBadRequest,
	}},
	{as[catalog.ValidationErrors](), UserMessage{
		Message: "One or more catalog items are invalid",
		Action:  "Check item ids, tags and currency codes in the listed rows",
		Code:    "VAL007",
		Status:  http.StatusUnprocessableEntity,
	}},
	{is(catalog.ErrSchema), UserMessage{
		Message: "The JSON does not match the catalog record format",
		Action:  "Send an array of records with ItemId and the catalog fields",
		Code:    "VAL008",
		Status:  http.StatusBadRequest,
	}},
	{is(diff.ErrParse), UserMessage{
		Message: "One side of the diff could not be read",
		Action:  "Paste a single JSON or YAML object on each side",
		Code:    "DIFF001",
		Status:  http.StatusBadRequest,
	}},
	{is(ErrSessionNotFound), UserMessage{
		Message: "Diff session not found",
		Action:  "The session may have expired. Start a new diff",
		Code:    "DIFF002",
		Status:  http.StatusNotFound,
	}},
	{is(diff.ErrUnknownField), UserMessage{
		Message: "That field is not part of this diff",
		Action:  "Pick a field from the diff rows",
		Code:    "DIFF003",
		Status:  http.StatusBadRequest,
	}},
	{is(diff.ErrInvalidSide), UserMessage{
		Message: "A choice must be left or right",
		Action:  "Use \"left\" or \"right\"",
		Code:    "DIFF004",
		Status:  http.StatusBadRequest,
	}},
	{is(ErrTooManySessions), UserMessage{
		Message: "Too many diffs are open",
		Action:  "Finish or cancel an open diff and try again",
		Code:    "DIFF005",
		Status:  http.StatusServiceUnavailable,
	}},
	{is(store.ErrNotFound), UserMessage{
		Message: "Catalog item not found",
		Action:  "Import the item first or check the item id",
		Code:    "ITEM001",
		Status:  http.StatusNotFound,
	}},
	{is(ErrInvalidKind), UserMessage{
		Message: "Unknown item kind",
		Action:  "Filter by item, bundle or container",
		Code:    "ITEM002",
		Status:  http.StatusBadRequest,
	}},
	{is(ErrEmptyCatalog), UserMessage{
		Message: "There are no catalog items to push",
		Action:  "Import a catalog before pushing",
		Code:    "ITEM003",
		Status:  http.StatusConflict,
	}},
	{as[*playfab.APIError](), UserMessage{
		Message: "PlayFab rejected the request",
		Action:  "Check the title id, secret key and catalog contents, then try again",
		Code:    "PF001",
		Status:  http.StatusBadGateway,
	}},
	{is(playfab.ErrNotConfigured), UserMessage{
		Message: "PlayFab is not configured",
		Action:  "Set PLAYFAB_TITLE_ID and PLAYFAB_SECRET_KEY",
		Code:    "PF002",
		Status:  http.StatusServiceUnavailable,
	}},
	{is(ErrFileTooLarge), UserMessage{
		Message: "File exceeds the maximum size",
		Action:  "Split the catalog into smaller files",
		Code:    "FILE001",
		Status:  http.StatusRequestEntityTooLarge,
	}},
	{is(ErrEmptyFile), UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Upload a catalog CSV with a header and item rows",
		Code:    "FILE005",
		Status:  http.StatusBadRequest,
	}},
	{is(ErrTooManyOperations), UserMessage{
		Message: "System is busy with other imports",
		Action:  "Please wait a moment and try again",
		Code:    "IMP002",
		Status:  http.StatusServiceUnavailable,
	}},
	{is(context.Canceled), UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "IMP001",
		Status:  499,
	}},
	{is(context.DeadlineExceeded), UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "IMP003",
		Status:  http.StatusGatewayTimeout,
	}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"duplicate key", UserMessage{
		Message: "An item with this id already exists",
		Action:  "Remove the duplicate rows and import again",
		Code:    "DB001",
		Status:  http.StatusConflict,
	}},
	{"unique constraint", UserMessage{
		Message: "This value must be unique but already exists",
		Action:  "Check for duplicate entries in your file",
		Code:    "DB002",
		Status:  http.StatusConflict,
	}},
	{"violates unique", UserMessage{
		Message: "A duplicate value was found",
		Action:  "Check for duplicate entries in your file",
		Code:    "DB002",
		Status:  http.StatusConflict,
	}},
	{"foreign key", UserMessage{
		Message: "Referenced record does not exist",
		Action:  "Import the referenced records first",
		Code:    "DB003",
		Status:  http.StatusConflict,
	}},
	{"connection refused", UserMessage{
		Message: "Unable to connect to the database",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
		Status:  http.StatusServiceUnavailable,
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB005",
		Status:  http.StatusServiceUnavailable,
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "DB006",
		Status:  http.StatusGatewayTimeout,
	}},
	{"deadlock", UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB007",
		Status:  http.StatusServiceUnavailable,
	}},
	{"invalid csv", UserMessage{
		Message: "File is not a valid catalog CSV",
		Action:  "Export the catalog again with all 20 columns",
		Code:    "FILE002",
		Status:  http.StatusBadRequest,
	}},
	{"no file provided", UserMessage{
		Message: "No file was selected",
		Action:  "Please select a catalog CSV to import",
		Code:    "FILE004",
		Status:  http.StatusBadRequest,
	}},
	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
		Status:  http.StatusTooManyRequests,
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
	Status:  http.StatusInternalServerError,
}

// MapError converts err to a user-facing message. Unknown errors map to
// ERR000; nil maps to the zero UserMessage.
//
//	msg := MapError(fmt.Errorf("import: %w", catalog.ErrInsufficientData))
//	// msg.Code == "CSV001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, m := range errorMatches {
		if m.match(err) {
			return m.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string { return e.User.Message }

func (e *UserError) Unwrap() error { return e.Technical }

// NewUserError maps err. It returns nil for a nil err.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
