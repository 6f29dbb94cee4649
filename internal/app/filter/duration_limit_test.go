package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/doubanfm/internal/domain/song"
)

func TestDurationLimitFilter_Check(t *testing.T) {
	tests := []struct {
		name         string
		minSeconds   int
		maxSeconds   int
		length       int
		shouldReject bool
	}{
		{name: "Within limits", minSeconds: 120, maxSeconds: 300, length: 180},
		{name: "Too short", minSeconds: 180, length: 120, shouldReject: true},
		{name: "Too long", minSeconds: 60, maxSeconds: 300, length: 360, shouldReject: true},
		{name: "Exact min", minSeconds: 180, length: 180},
		{name: "Exact max", minSeconds: 60, maxSeconds: 300, length: 300},
		{name: "Unknown length", minSeconds: 60, maxSeconds: 300, length: 0},
		{name: "No upper limit", maxSeconds: 0, length: 3600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewDurationLimitFilter()
			f.config = &DurationLimitConfig{
				MinSeconds: tt.minSeconds,
				MaxSeconds: tt.maxSeconds,
			}

			result := f.Check(context.Background(), song.Song{SID: "1", Length: tt.length})

			if tt.shouldReject {
				assert.False(t, result.Accepted)
				assert.Equal(t, "duration_limit_exceeded", result.Code)
			} else {
				assert.True(t, result.Accepted)
			}
		})
	}
}

func TestDurationLimitFilter_Unconfigured(t *testing.T) {
	f := NewDurationLimitFilter()
	assert.True(t, f.Check(context.Background(), song.Song{Length: 10}).Accepted)
}

func TestDurationLimitFilter_ValidateConfig(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
		wantErr  bool
	}{
		{
			name:     "Valid config",
			settings: map[string]any{"min_seconds": 90, "max_seconds": 420},
		},
		{
			name:     "String values",
			settings: map[string]any{"min_seconds": "90", "max_seconds": "420"},
		},
		{
			name:     "Invalid min > max",
			settings: map[string]any{"min_seconds": 600, "max_seconds": 300},
			wantErr:  true,
		},
		{
			name:     "Invalid negative min",
			settings: map[string]any{"min_seconds": -1},
			wantErr:  true,
		},
		{
			name:     "Invalid negative max",
			settings: map[string]any{"max_seconds": -1},
			wantErr:  true,
		},
		{
			name:     "Zero max means no limit",
			settings: map[string]any{"min_seconds": 600, "max_seconds": 0},
		},
		{
			name:     "Empty settings",
			settings: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewDurationLimitFilter()
			err := f.ValidateConfig(tt.settings)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, f.config)
			}
		})
	}
}
