// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package io

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdgeMode(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"none", NONE},
		{"rising", RISING},
		{"falling", FALLING},
		{"both", BOTH},
	}
	for _, tc := range tests {
		e, err := EdgeMode(tc.name)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, e, tc.name)
	}
	_, err := EdgeMode("level")
	assert.Error(t, err)
}

func TestEdgeRejected(t *testing.T) {
	out := &Gpio{number: 5, direction: OUT}
	assert.Error(t, out.Edge(BOTH))
	assert.Equal(t, NONE, out.edge)

	in := &Gpio{number: 6, direction: IN}
	assert.Error(t, in.Edge(BOTH+1))
	assert.Error(t, in.Edge(-1))
	assert.Equal(t, NONE, in.edge)
	assert.Equal(t, 6, in.Number())
}
