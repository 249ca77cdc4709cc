// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

// Package security implements the Zigbee security engine: AES-MMO and
// HMAC-MMO key derivation, AES-CCM* encrypt/decrypt in place, nonce
// construction, key selection by identifier and frame-counter/replay
// enforcement. It is a pure function of its inputs plus NIB/AIB reads
// and writes, with no internal state beyond those IBs.
package security

import "errors"

// ErrInvalidKey is returned when no key material exists for the
// requested key identifier/sequence (decrypt step 4).
var ErrInvalidKey = errors.New("security: invalid key")

// ErrInvalidData is returned for a secured body too short to hold its
// MIC, a frame counter stuck at its terminal value, or a counter that
// fails the anti-replay check (decrypt steps 3 and 5).
var ErrInvalidData = errors.New("security: invalid data")

// ErrSecurityFailure is returned on AES-CCM* MIC mismatch (
// decrypt step 8). Buffers are left observably unchanged on this path.
var ErrSecurityFailure = errors.New("security: MIC verification failed")

// ErrCounterExhausted is returned by Encrypt when the selected key's
// outgoing counter has reached 2^32-1 and is poisoned.
var ErrCounterExhausted = errors.New("security: outgoing frame counter exhausted")

// ErrUnsecuredFrame is returned by Decrypt when the frame's security bit
// is clear; callers should treat the frame as already plaintext rather
// than an error condition in the usual sense.
var ErrUnsecuredFrame = errors.New("security: frame has no security header")
