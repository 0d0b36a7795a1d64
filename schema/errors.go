package schema

import "errors"

var (
	// ErrNotAuthenticated indicates no valid credential is held.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNoEventID indicates a subscribe entry point without an event id.
	ErrNoEventID = errors.New("no event id provided")
	// ErrEventNotFound indicates the requested event does not exist.
	ErrEventNotFound = errors.New("event not found")
	// ErrAlreadySubscribed indicates the backend rejected a duplicate subscription.
	ErrAlreadySubscribed = errors.New("already subscribed to event")
	// ErrUploadInFlight indicates a submit raced an in-progress transfer.
	ErrUploadInFlight = errors.New("upload already in flight")
	// ErrBatchFinished indicates a submit on a batch in a terminal phase.
	ErrBatchFinished = errors.New("upload batch already finished")
	// ErrNoPendingUploads indicates a batch was built from an empty selection.
	ErrNoPendingUploads = errors.New("no pending uploads")
)
