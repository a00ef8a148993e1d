package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLLMAPI_Defaults(t *testing.T) {
	mock := NewMockLLMAPI()

	require.NoError(t, mock.InitModel(context.Background(), "test-model"))

	resp, err := mock.Generate(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "Mock response", resp)

	calls := mock.GetGenerateCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "system", calls[0].System)
	assert.Equal(t, "user", calls[0].User)
	assert.Equal(t, []string{"test-model"}, mock.InitModelCalls)
}

func TestMockLLMAPI_QueuedResponses(t *testing.T) {
	mock := NewMockLLMAPI()
	mock.Responses = []string{"first", "second"}

	for _, want := range []string{"first", "second", "second"} {
		got, err := mock.Generate(context.Background(), "s", "u")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestMockLLMAPI_ErrorAndReset(t *testing.T) {
	mock := NewMockLLMAPI()
	mock.SetGenerateError(errors.New("boom"))

	_, err := mock.Generate(context.Background(), "s", "u")
	assert.Error(t, err)

	mock.Reset()
	assert.Empty(t, mock.GetGenerateCalls())
}
