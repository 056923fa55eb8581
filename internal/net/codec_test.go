package net

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("hello")))
	require.NoError(t, WriteFrame(&buf, []byte{1}))
	assert.Equal(t, []byte{7, 0}, buf.Bytes()[:2])

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
	got, err = ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, got)
}

func TestWriteFrameLimits(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, WriteFrame(&buf, nil))
	require.ErrorIs(t, WriteFrame(&buf, make([]byte, MaxFrame+1)), ErrFrameTooLarge)
	require.NoError(t, WriteFrame(&buf, make([]byte, MaxFrame)))
}

func TestReadFrameRejectsBadLength(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{1, 0}))
	require.Error(t, err)
	_, err = ReadFrame(bytes.NewReader([]byte{9, 0, 1, 2}))
	require.Error(t, err)
}
