package reembed

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_Increment(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "utterances", 100, 10)

	tracker.Start()
	tracker.Increment(25)
	tracker.Increment(25)
	tracker.Increment(50)

	output := buf.String()
	assert.Contains(t, output, "100/100 utterances")
	assert.Contains(t, output, "100.0%")
	assert.Contains(t, output, "utterances/s")
}

func TestProgressTracker_Finish(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "utterances", 100, 10)

	tracker.Start()
	tracker.Update(75)
	tracker.Finish()

	output := buf.String()
	assert.Contains(t, output, "100/100", "finish should set to total")
	assert.True(t, strings.HasSuffix(output, "\n"), "finish should print newline")
}

func TestProgressTracker_Bounds(t *testing.T) {
	tests := []struct {
		name  string
		total int
		steps []int
		want  string
	}{
		{"zero total", 0, nil, "0/0"},
		{"beyond total", 100, []int{150}, "100/100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tracker := NewProgressTracker(&buf, "meetings", tt.total, 10)
			tracker.Start()
			for _, step := range tt.steps {
				tracker.Increment(step)
			}
			tracker.Finish()
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "utterances", 100, 10)

	tracker.Increment(10)
	tracker.Finish()

	assert.Empty(t, buf.String(), "should have no output when not started")
	assert.Equal(t, time.Duration(0), tracker.Elapsed())
}

func TestProgressTracker_ReportInterval(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "utterances", 1000, 100)
	tracker.Start()

	tracker.Update(50)
	assert.Empty(t, buf.String(), "should not print under interval")

	tracker.Update(100)
	assert.NotEmpty(t, buf.String(), "should print at interval")

	buf.Reset()
	tracker.Update(150)
	assert.Empty(t, buf.String(), "interval counts from the last report")

	tracker.Update(250)
	assert.NotEmpty(t, buf.String())
}
