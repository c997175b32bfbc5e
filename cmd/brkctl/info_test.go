package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoCommand(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		resetFlags(t)
		output, err := captureOutput(t, runInfo)
		require.NoError(t, err)
		assertContains(t, output, []string{
			"Header:    32 bytes (size@0 next@8 prev@16 flags@24)",
			"Alignment: 16 bytes",
			"Capacity:    4,194,304 bytes",
		})
	})

	t.Run("json", func(t *testing.T) {
		resetFlags(t)
		jsonOut = true
		output, err := captureOutput(t, runInfo)
		require.NoError(t, err)

		var info HeapInfo
		require.NoError(t, json.Unmarshal([]byte(output), &info))
		assert.Equal(t, 32, info.HeaderSize)
		assert.Equal(t, 16, info.Alignment)
		assert.Equal(t, 24, info.Fields["flags"])
		assert.Equal(t, 4<<20, info.Capacity)
		assert.Positive(t, info.PageSize)
	})

	t.Run("bad capacity", func(t *testing.T) {
		resetFlags(t)
		capacity = "huge"
		_, err := captureOutput(t, runInfo)
		assert.ErrorContains(t, err, "--capacity")
	})
}

func TestVersionCommand(t *testing.T) {
	resetFlags(t)
	output, err := captureOutput(t, func() error {
		versionCmd.Run(versionCmd, nil)
		return nil
	})
	require.NoError(t, err)
	assertContains(t, output, []string{"brkctl dev", "commit: none"})
}
