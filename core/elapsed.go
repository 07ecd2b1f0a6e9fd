package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FormatElapsed renders a duration as whole elapsed seconds in H:MM:SS form.
// Hours are not wrapped into days.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
}

// NewMeetingID returns an identifier of the form mtg_YYYYmmdd_HHMMSS_xxxxxxxx.
// The random suffix keeps analyses started within the same second distinct.
func NewMeetingID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("mtg_%s_%s", now.Format("20060102_150405"), suffix)
}
