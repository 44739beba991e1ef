package postgres

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/docsum-api/internal/domain"
)

func TestMarshalResult(t *testing.T) {
	t.Parallel()

	t.Run("nil_result_maps_to_null_column", func(t *testing.T) {
		t.Parallel()
		data, err := marshalResult(nil)
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("result_round_trips", func(t *testing.T) {
		t.Parallel()
		data, err := marshalResult(&domain.TaskResult{Summary: "vendor: Acme\ntotal: $12"})
		require.NoError(t, err)

		var decoded domain.TaskResult
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, "vendor: Acme\ntotal: $12", decoded.Summary)
	})
}

func TestNullString(t *testing.T) {
	t.Parallel()

	empty := nullString("")
	assert.False(t, empty.Valid)

	set := nullString("no readable text found")
	assert.True(t, set.Valid)
	assert.Equal(t, "no readable text found", set.String)
}
