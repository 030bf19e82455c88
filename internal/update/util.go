package update

import (
	"time"
)

func levelFromError(isErr bool) string {
	if isErr {
		return "error"
	}
	return "info"
}

func formatLastSynced(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("Jan 2 15:04:05")
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
