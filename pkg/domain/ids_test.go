package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "lexdraft/pkg/domain-errors"
)

func TestParseProfileID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseProfileID("   ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseProfileID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseProfileID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID with surrounding space", func(t *testing.T) {
		want := uuid.New()
		got, err := ParseProfileID(" " + want.String() + " ")
		require.NoError(t, err)
		assert.Equal(t, want.String(), got.String())
		assert.False(t, got.IsNil())
	})
}

func TestProfileIDJSON(t *testing.T) {
	type wrapper struct {
		ID ProfileID `json:"profile_id"`
	}

	t.Run("unassigned id encodes as empty string", func(t *testing.T) {
		raw, err := json.Marshal(wrapper{})
		require.NoError(t, err)
		assert.JSONEq(t, `{"profile_id":""}`, string(raw))

		var decoded wrapper
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.True(t, decoded.ID.IsNil())
	})

	t.Run("assigned id survives encoding", func(t *testing.T) {
		in := wrapper{ID: NewProfileID()}
		raw, err := json.Marshal(in)
		require.NoError(t, err)

		var out wrapper
		require.NoError(t, json.Unmarshal(raw, &out))
		assert.Equal(t, in.ID, out.ID)
	})

	t.Run("malformed id is rejected", func(t *testing.T) {
		var out wrapper
		err := json.Unmarshal([]byte(`{"profile_id":"abc"}`), &out)
		require.Error(t, err)
	})
}
