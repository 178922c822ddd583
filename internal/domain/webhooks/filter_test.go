package webhooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storesync/internal/core/apperror"
)

func TestSyncFilterAllows(t *testing.T) {
	filter, err := NewSyncFilter()
	require.NoError(t, err)

	tests := []struct {
		name       string
		expression string
		topic      Topic
		want       bool
	}{
		{"empty expression passes everything", "", TopicOrderCreate, true},
		{"topic prefix match", `topic.startsWith("product.")`, TopicProductUpdate, true},
		{"topic prefix miss", `topic.startsWith("product.")`, TopicOrderCreate, false},
		{"platform check", `platform == "shopify"`, TopicOrderCreate, true},
		{"combined", `platform == "shopify" && topic != "inventory.update"`, TopicInventoryUpdate, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := filter.Allows(tt.expression, tt.topic, "shopify")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSyncFilterBrokenExpressionFailsClosed(t *testing.T) {
	filter, err := NewSyncFilter()
	require.NoError(t, err)

	for _, expr := range []string{
		`topic.`,               // does not compile
		`topic`,                // compiles but is not a bool
		`undefined_var == "x"`, // unknown variable
	} {
		_, err := filter.Allows(expr, TopicOrderCreate, "custom")
		require.Error(t, err, "expression %q", expr)
		assert.True(t, apperror.IsValidation(err))
	}
}

func TestSyncFilterCachesPrograms(t *testing.T) {
	filter, err := NewSyncFilter()
	require.NoError(t, err)

	const expr = `topic.startsWith("order.")`
	for i := 0; i < 3; i++ {
		_, err := filter.Allows(expr, TopicOrderCreate, "custom")
		require.NoError(t, err)
	}

	filter.mu.RLock()
	defer filter.mu.RUnlock()
	assert.Len(t, filter.programs, 1)
}
