// Copyright (c) Microsoft. All rights reserved.

package rag

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorEncoding(t *testing.T) {
	in := []float32{0, 1.5, -2.25, math.MaxFloat32, float32(math.Inf(-1))}
	out, err := decodeVector(encodeVector(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
