package identity

import (
	"crypto/rsa"
)

// encodePKCS8 wraps an RSA private key in the PKCS8 outer structure:
// {version 0, AlgorithmIdentifier(rsaEncryption), OCTET STRING(RSAPrivateKey)}.
func encodePKCS8(key *rsa.PrivateKey) []byte {
	return derSequence(
		derIntegerInt(0),
		algorithmIdentifier(oidRSAEncryption),
		derOctetString(encodeRSAPrivateKey(key)),
	)
}

// encodeRSAPrivateKey produces the inner PKCS1 RSAPrivateKey sequence with
// the full CRT parameter set. Precompute fills Dp/Dq/Qinv if the caller
// has not done so already.
func encodeRSAPrivateKey(key *rsa.PrivateKey) []byte {
	key.Precompute()
	return derSequence(
		derIntegerInt(0),
		derInteger(key.N),
		derIntegerInt(int64(key.E)),
		derInteger(key.D),
		derInteger(key.Primes[0]),
		derInteger(key.Primes[1]),
		derInteger(key.Precomputed.Dp),
		derInteger(key.Precomputed.Dq),
		derInteger(key.Precomputed.Qinv),
	)
}
