// go-mfcverify
// Copyright (c) 2026 The Bandkit Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-mfcverify.
//
// go-mfcverify is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-mfcverify is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-mfcverify; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package pcsc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mfcverify "github.com/bandkit/go-mfcverify"
)

func TestLoadKeyAPDU(t *testing.T) {
	t.Parallel()

	key := mfcverify.Key{0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5}
	assert.Equal(t, []byte{
		0xFF, 0x82, 0x00, 0x00, 0x06,
		0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5,
	}, loadKeyAPDU(key))
}

func TestAuthenticateAPDU(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []byte{
		0xFF, 0x86, 0x00, 0x00, 0x05,
		0x01, 0x00, 0x04, 0x60, 0x00,
	}, authenticateAPDU(4, mfcverify.KeyTypeA))

	assert.Equal(t, []byte{
		0xFF, 0x86, 0x00, 0x00, 0x05,
		0x01, 0x00, 0x80, 0x61, 0x00,
	}, authenticateAPDU(128, mfcverify.KeyTypeB))
}

func TestReadBinaryAPDU(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []byte{0xFF, 0xB0, 0x00, 0x3F, 0x10}, readBinaryAPDU(63))
}

func TestSplitResponse(t *testing.T) {
	t.Parallel()

	t.Run("DataWithStatus", func(t *testing.T) {
		t.Parallel()
		data, sw, ok := splitResponse([]byte{0xDE, 0xAD, 0x90, 0x00})
		require.True(t, ok)
		assert.Equal(t, []byte{0xDE, 0xAD}, data)
		assert.Equal(t, uint16(swSuccess), sw)
	})

	t.Run("StatusOnly", func(t *testing.T) {
		t.Parallel()
		data, sw, ok := splitResponse([]byte{0x63, 0x00})
		require.True(t, ok)
		assert.Empty(t, data)
		assert.Equal(t, uint16(swAuthFail), sw)
	})

	t.Run("TooShort", func(t *testing.T) {
		t.Parallel()
		_, _, ok := splitResponse([]byte{0x90})
		assert.False(t, ok)
	})
}
