package models

import "errors"

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrEventNotBookable  = errors.New("event is not open for booking")
	ErrGameNotFound      = errors.New("game not found")
	ErrGameNotInEvent    = errors.New("selected game is not part of this event")
	ErrNoGamesSelected   = errors.New("at least one game must be selected")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidEmail      = errors.New("invalid email format")
	ErrPageNotFound      = errors.New("page not found")
	ErrTemplateNotFound  = errors.New("template not found")
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrNoRecipients      = errors.New("no recipients supplied")
	ErrNoMessage         = errors.New("a template or message is required")
	ErrEventHasBookings  = errors.New("event has bookings and cannot be deleted")
	ErrGameInUse         = errors.New("game is scheduled in an event and cannot be deleted")
	ErrUnknownSetting    = errors.New("unknown setting key")
	ErrNotConfigured     = errors.New("integration not configured")
	ErrDispatchClosed    = errors.New("notification dispatch is shutting down")
	ErrTemplateInactive  = errors.New("template is inactive")
)
