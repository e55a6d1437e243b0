package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want Class
	}{
		{"vfs_read", Keep},
		{"schedule", Keep},
		{"default_idle", Ignore},
		{"native_safe_halt", Ignore},
		{"poll_idle", Ignore},
		{"pseries_dedicated_idle_sleep", Ignore},
		{"_text", Reject},
		{"_etext", Reject},
		{"_sinittext", Reject},
		{"init_module", Reject},
		{"init_module_something", Reject},
		{"cleanup_module", Reject},
		{"foo_text_start_bar", Reject},
		{"my_text_end", Reject},
		// Near misses stay.
		{"default_idler", Keep},
		{"text", Keep},
		{"module_init", Keep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.name))
		})
	}
}

func TestClassify_StripsFunctionDescriptorDot(t *testing.T) {
	// ppc64 prefixes text symbols with '.'.
	assert.Equal(t, Ignore, Classify(".default_idle"))
	assert.Equal(t, Reject, Classify("._text"))
	assert.Equal(t, Keep, Classify(".vfs_read"))
}
