// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ledger_test

import (
	"strings"
	"testing"

	"github.com/blinklabs-io/potluck/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressStringRoundTrip(t *testing.T) {
	addr := ledger.IdentityFromKey([]byte("alice"))
	s := addr.String()
	assert.True(t, strings.HasPrefix(s, "pot1"), "unexpected address %s", s)
	parsed, err := ledger.ParseAddress(s)
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)
	parsed, err = ledger.ParseAddress(addr.Hex())
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)
}

func TestParseAddressInvalid(t *testing.T) {
	testDefs := []string{
		"",
		"zz",
		"abcd",
		"pot1qqqq",
		strings.Repeat("0", 62),
	}
	for _, input := range testDefs {
		_, err := ledger.ParseAddress(input)
		assert.ErrorIs(t, err, ledger.ErrInvalidAddress, "input %q", input)
	}
}

func TestAddressTextMarshal(t *testing.T) {
	addr := ledger.IdentityFromKey([]byte("bob"))
	text, err := addr.MarshalText()
	require.NoError(t, err)
	var out ledger.Address
	require.NoError(t, out.UnmarshalText(text))
	assert.Equal(t, addr, out)
}

func TestDeriveAddress(t *testing.T) {
	program := ledger.IdentityFromKey([]byte("program"))
	other := ledger.IdentityFromKey([]byte("other"))
	a1, err := ledger.DeriveAddress(program, []byte("pot"), []byte("ab"), []byte("c"))
	require.NoError(t, err)
	a2, err := ledger.DeriveAddress(program, []byte("pot"), []byte("ab"), []byte("c"))
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
	// Seed boundaries matter
	a3, err := ledger.DeriveAddress(program, []byte("pot"), []byte("a"), []byte("bc"))
	require.NoError(t, err)
	assert.NotEqual(t, a1, a3)
	// So does the program
	a4, err := ledger.DeriveAddress(other, []byte("pot"), []byte("ab"), []byte("c"))
	require.NoError(t, err)
	assert.NotEqual(t, a1, a4)
	// Derived addresses never collide with identities built from the same bytes
	assert.NotEqual(t, a1, ledger.IdentityFromKey([]byte("potabc")))

	_, err = ledger.DeriveAddress(program, make([]byte, ledger.MaxSeedLength+1))
	require.ErrorIs(t, err, ledger.ErrSeedTooLong)
	_, err = ledger.DeriveAddress(program, make([]byte, ledger.MaxSeedLength))
	require.NoError(t, err)
}
