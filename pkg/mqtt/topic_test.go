package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchTopic(t *testing.T) {
	tests := []struct {
		name     string
		filter   string
		topic    string
		captures []string
		ok       bool
	}{
		{"exact", "lifeline/sos", "lifeline/sos", nil, true},
		{"single level", "lifeline/wearables/+/sos", "lifeline/wearables/abc/sos", []string{"abc"}, true},
		{"single level mismatch", "lifeline/wearables/+/sos", "lifeline/wearables/abc/vitals", nil, false},
		{"empty level", "lifeline/wearables/+/sos", "lifeline/wearables//sos", nil, false},
		{"multi level", "lifeline/telematics/#", "lifeline/telematics/d1/gps", []string{"d1/gps"}, true},
		{"too short", "lifeline/+/location", "lifeline/d1", nil, false},
		{"too long", "lifeline/+", "lifeline/d1/location", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captures, ok := MatchTopic(tt.filter, tt.topic)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.captures, captures)
			}
		})
	}
}
