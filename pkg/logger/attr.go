package logger

import (
	"log/slog"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Gateway records the gateway identifier under the key "gateway".
func Gateway(id string) slog.Attr {
	return slog.String("gateway", id)
}

// PlanID records the purchased plan identifier under the key "plan_id".
func PlanID(id string) slog.Attr {
	return slog.String("plan_id", id)
}

// OrderID records the server-side order identifier under the key "order_id".
// If id is zero, it returns an empty Attr.
func OrderID(id int64) slog.Attr {
	if id == 0 {
		return slog.Attr{}
	}
	return slog.Int64("order_id", id)
}

// SessionID records the checkout session identifier under the key "session_id".
func SessionID(id string) slog.Attr {
	return slog.String("session_id", id)
}

// Status records the checkout session status under the key "status".
func Status(s string) slog.Attr {
	return slog.String("status", s)
}
