package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	at := func(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }

	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"identical intervals", at(0), at(60), at(0), at(60), true},
		{"partial overlap", at(0), at(60), at(30), at(90), true},
		{"b inside a", at(0), at(120), at(30), at(60), true},
		{"a inside b", at(30), at(60), at(0), at(120), true},
		{"touching at boundary", at(0), at(60), at(60), at(120), false},
		{"touching at boundary reversed", at(60), at(120), at(0), at(60), false},
		{"disjoint", at(0), at(30), at(60), at(90), false},
		{"one minute overlap", at(0), at(61), at(60), at(120), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
			// Overlap is symmetric
			assert.Equal(t, tt.want, Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd))
		})
	}
}
