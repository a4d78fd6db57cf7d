package auth

import "crypto/des"

// desChallenger implements the classic VNC Authentication challenge/response:
// the password is truncated/zero-padded to 8 bytes, each byte is bit-reversed
// (a quirk of the original RFB implementation's DES key convention), and the
// resulting 8-byte key DES-encrypts the 16-byte challenge as two independent
// ECB blocks.
type desChallenger struct{}

func (desChallenger) response(password string, challenge [16]byte) [16]byte {
	key := desKeyFromPassword(password)
	block, err := des.NewCipher(key[:])
	if err != nil {
		// key is always exactly 8 bytes; des.NewCipher only fails on bad
		// key length.
		panic(err)
	}
	var out [16]byte
	block.Encrypt(out[0:8], challenge[0:8])
	block.Encrypt(out[8:16], challenge[8:16])
	return out
}

func desKeyFromPassword(password string) [8]byte {
	var key [8]byte
	n := copy(key[:], password)
	_ = n
	for i, b := range key {
		key[i] = reverseBits(b)
	}
	return key
}

func reverseBits(b byte) byte {
	var r byte
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}

// xorStubChallenger is the documented stand-in for real DES, grounded on
// original_source/vnc-server/authentication.py's demo implementation. It
// must never be used outside test/demo mode (see WithTestXORStub).
type xorStubChallenger struct{}

func (xorStubChallenger) response(password string, challenge [16]byte) [16]byte {
	key := desKeyFromPassword(password)
	var out [16]byte
	for i := range out {
		out[i] = challenge[i] ^ key[i%len(key)]
	}
	return out
}
