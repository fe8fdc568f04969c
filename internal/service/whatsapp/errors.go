package whatsapp

import "errors"

// ErrDisabled is returned for manual sends when WhatsApp is not configured.
var ErrDisabled = errors.New("whatsapp messaging is not configured")
