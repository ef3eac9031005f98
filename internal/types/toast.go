package types

import "time"

// Toast represents a notification message
type Toast struct {
	Level   ToastLevel
	Message string
	Expires time.Time
}

// ToastLevel indicates the severity of a toast
type ToastLevel int

const (
	ToastInfo ToastLevel = iota
	ToastSuccess
	ToastWarning
	ToastError
)

// Default toast lifetimes
const (
	ToastTTL      = 3 * time.Second
	ToastErrorTTL = 6 * time.Second
)

// NewToast creates a toast that expires after the level's default lifetime
func NewToast(level ToastLevel, message string, now time.Time) Toast {
	ttl := ToastTTL
	if level == ToastError {
		ttl = ToastErrorTTL
	}
	return Toast{Level: level, Message: message, Expires: now.Add(ttl)}
}

// Expired reports whether the toast should be removed
func (t Toast) Expired(now time.Time) bool {
	return !now.Before(t.Expires)
}

// Icon returns a glyph for the toast level
func (l ToastLevel) Icon() string {
	switch l {
	case ToastSuccess:
		return "✓"
	case ToastWarning:
		return "!"
	case ToastError:
		return "✗"
	default:
		return "i"
	}
}
