// Copyright 2025 Poiesic Systems
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

package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strconv"

	"github.com/go-crypt/x/blake2b"
)

// Fingerprint is a 64-bit content hash used for idempotency keys.
type Fingerprint uint64

// FingerprintOf generates a deterministic fingerprint from content using BLAKE2b hashing.
// Identical content produces identical fingerprints.
func FingerprintOf(content ...[]byte) Fingerprint {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	for i, part := range content {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write(part)
	}
	sum := h.Sum(nil)
	return Fingerprint(binary.LittleEndian.Uint64(sum))
}

// String returns the fingerprint as fixed-width hex.
func (f Fingerprint) String() string {
	s := strconv.FormatUint(uint64(f), 16)
	for len(s) < 16 {
		s = "0" + s
	}
	return s
}

// ChunkID returns the identifier of a text chunk: the hex SHA-256 of its UTF-8 bytes.
func ChunkID(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
