package identity

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
	"math"
	"math/big"
	"net"
	"time"
)

// OID arcs used by the certificate builder.
var (
	oidSHA256WithRSA  = []int{1, 2, 840, 113549, 1, 1, 11}
	oidRSAEncryption  = []int{1, 2, 840, 113549, 1, 1, 1}
	oidCommonName     = []int{2, 5, 4, 3}
	oidSubjectAltName = []int{2, 5, 29, 17}
)

// buildCertificate assembles a self-signed X.509v3 certificate for the
// given RSA key by hand. The returned bytes are the full DER certificate
// {tbsCertificate, signatureAlgorithm, signatureValue}.
func buildCertificate(key *rsa.PrivateKey, commonName string, validity time.Duration, sans sanSet) ([]byte, error) {
	serial, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt32))
	if err != nil {
		return nil, fmt.Errorf("buildCertificate: failed to draw serial number: %w", err)
	}

	notBefore := time.Now().UTC()
	notAfter := notBefore.Add(validity)

	name := rdnSequence(commonName)
	tbs := derSequence(
		derContextExplicit(0, derIntegerInt(2)),
		derInteger(serial),
		algorithmIdentifier(oidSHA256WithRSA),
		name,
		derSequence(derUTCTime(notBefore), derUTCTime(notAfter)),
		name,
		subjectPublicKeyInfo(&key.PublicKey),
		derContextExplicit(3, derSequence(subjectAltNameExtension(sans))),
	)

	signature, err := signTBS(key, tbs)
	if err != nil {
		return nil, fmt.Errorf("buildCertificate: failed to sign tbsCertificate: %w", err)
	}

	return derSequence(
		tbs,
		algorithmIdentifier(oidSHA256WithRSA),
		derBitString(signature),
	), nil
}

// rdnSequence builds a Name holding a single CN relative distinguished name.
func rdnSequence(commonName string) []byte {
	return derSequence(
		derSet(
			derSequence(derOID(oidCommonName...), derUTF8String(commonName)),
		),
	)
}

func algorithmIdentifier(oid []int) []byte {
	return derSequence(derOID(oid...), derNull())
}

// subjectPublicKeyInfo wraps the (modulus, exponent) pair under the
// rsaEncryption algorithm identifier.
func subjectPublicKeyInfo(pub *rsa.PublicKey) []byte {
	rsaPublicKey := derSequence(
		derInteger(pub.N),
		derIntegerInt(int64(pub.E)),
	)
	return derSequence(
		algorithmIdentifier(oidRSAEncryption),
		derBitString(rsaPublicKey),
	)
}

// sanSet is the subject alternative names carried by a certificate:
// DNS:localhost plus the private IPv4 addresses of the device.
type sanSet struct {
	dnsNames []string
	ips      []net.IP
}

// subjectAltNameExtension encodes a SubjectAltName extension. dNSName uses
// context tag [2], iPAddress context tag [7] over the raw 4-byte address.
func subjectAltNameExtension(sans sanSet) []byte {
	var generalNames [][]byte
	for _, name := range sans.dnsNames {
		generalNames = append(generalNames, derContextPrimitive(2, []byte(name)))
	}
	for _, ip := range sans.ips {
		if v4 := ip.To4(); v4 != nil {
			generalNames = append(generalNames, derContextPrimitive(7, v4))
		}
	}
	return derSequence(
		derOID(oidSubjectAltName...),
		derOctetString(derSequence(generalNames...)),
	)
}

// signTBS signs the encoded TBSCertificate with RSASSA-PKCS1-v1.5/SHA-256.
// The DigestInfo prefix is assembled explicitly; passing hash zero to
// SignPKCS1v15 applies only the padding around it.
func signTBS(key *rsa.PrivateKey, tbs []byte) ([]byte, error) {
	digest := sha256.Sum256(tbs)
	digestInfo := derSequence(
		algorithmIdentifier([]int{2, 16, 840, 1, 101, 3, 4, 2, 1}),
		derOctetString(digest[:]),
	)
	return rsa.SignPKCS1v15(rand.Reader, key, crypto.Hash(0), digestInfo)
}
