package security

import (
	"crypto/aes"
	"encoding/binary"
)

// blockSize is the AES block size in bytes, and also the AES-MMO and
// HMAC-MMO block size (primitive 1).
const blockSize = 16

// AesMMO computes the Matyas-Meyer-Oseas hash of msg using AES-128 as the
// compression function (primitive 1, test vector S1). The
// message is Merkle-Damgard padded: a single 1-bit (0x80), zero bits,
// then a 16-bit big-endian bit length, so the padded length is a
// multiple of blockSize.
func AesMMO(msg []byte) [blockSize]byte {
	padded := mmoPad(msg)
	var h [blockSize]byte // H_0 = IV = all-zeros
	for off := 0; off < len(padded); off += blockSize {
		block := padded[off : off+blockSize]
		// AES-ENC(H_{i-1}, X_i): the running hash is the AES key, the
		// message block is the plaintext.
		cipher, err := aes.NewCipher(h[:])
		if err != nil {
			panic(err) // h is always exactly 16 bytes
		}
		var enc [blockSize]byte
		cipher.Encrypt(enc[:], block)
		for i := range h {
			h[i] = enc[i] ^ block[i]
		}
	}
	return h
}

func mmoPad(msg []byte) []byte {
	bitLen := uint16(len(msg) * 8)
	out := make([]byte, 0, len(msg)+blockSize)
	out = append(out, msg...)
	out = append(out, 0x80)
	for len(out)%blockSize != blockSize-2 {
		out = append(out, 0x00)
	}
	var lb [2]byte
	binary.BigEndian.PutUint16(lb[:], bitLen)
	return append(out, lb[:]...)
}

// HmacMMO computes HMAC-AES-MMO(key, msg): the standard HMAC construction
// (RFC 2104) with AesMMO as the underlying hash (primitive 2,
// test vector S2). If key is not exactly 16 bytes it is first reduced to
// one block via AesMMO.
func HmacMMO(key, msg []byte) [blockSize]byte {
	var k [blockSize]byte
	if len(key) == blockSize {
		copy(k[:], key)
	} else {
		k = AesMMO(key)
	}

	var ipad, opad [blockSize]byte
	for i := 0; i < blockSize; i++ {
		ipad[i] = k[i] ^ 0x36
		opad[i] = k[i] ^ 0x5C
	}

	inner := AesMMO(append(append([]byte{}, ipad[:]...), msg...))
	return AesMMO(append(append([]byte{}, opad[:]...), inner[:]...))
}

// Key-derivation tags appended to the link key before HMAC-MMO:
// key-transport key uses 0x00, key-load key uses 0x02.
var (
	keyTransportTag = []byte{0x00}
	keyLoadTag      = []byte{0x02}
)

// DeriveKeyTransportKey computes the key-transport key from a link key:
// HMAC-MMO(linkKey, [0x00]) (key selection table).
func DeriveKeyTransportKey(linkKey [16]byte) [16]byte {
	return HmacMMO(linkKey[:], keyTransportTag)
}

// DeriveKeyLoadKey computes the key-load key from a link key:
// HMAC-MMO(linkKey, [0x02]) (key selection table).
func DeriveKeyLoadKey(linkKey [16]byte) [16]byte {
	return HmacMMO(linkKey[:], keyLoadTag)
}
