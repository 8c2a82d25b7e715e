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

import mfcverify "github.com/bandkit/go-mfcverify"

// PC/SC 2.01 contactless storage card pseudo-APDUs, as implemented by
// ACR122-class readers
const (
	claPseudo       = 0xFF
	insLoadKey      = 0x82
	insAuthenticate = 0x86
	insReadBinary   = 0xB0

	keySlot = 0x00

	authVersion  = 0x01
	authKeyTypeA = 0x60
	authKeyTypeB = 0x61
)

// Status words
const (
	swSuccess  = 0x9000
	swAuthFail = 0x6300
)

// loadKeyAPDU stores a key in the reader's volatile key slot
func loadKeyAPDU(key mfcverify.Key) []byte {
	apdu := []byte{claPseudo, insLoadKey, 0x00, keySlot, mfcverify.KeySize}
	return append(apdu, key[:]...)
}

// authenticateAPDU authenticates the sector containing block with the key
// previously loaded into the key slot
func authenticateAPDU(block int, keyType mfcverify.KeyType) []byte {
	code := byte(authKeyTypeA)
	if keyType == mfcverify.KeyTypeB {
		code = authKeyTypeB
	}
	return []byte{
		claPseudo, insAuthenticate, 0x00, 0x00, 0x05,
		authVersion, 0x00, byte(block), code, keySlot,
	}
}

// readBinaryAPDU reads one 16-byte block
func readBinaryAPDU(block int) []byte {
	return []byte{claPseudo, insReadBinary, 0x00, byte(block), mfcverify.BlockSize}
}

// splitResponse separates the response payload from the trailing status word
func splitResponse(resp []byte) (data []byte, sw uint16, ok bool) {
	if len(resp) < 2 {
		return nil, 0, false
	}
	n := len(resp) - 2
	return resp[:n], uint16(resp[n])<<8 | uint16(resp[n+1]), true
}
