// Package keys implements key generation, encoding and derivation for the
// registry. Projects get an ed25519 authentication key pair and an x25519
// subscribe key pair; subscriptions get a random 32-byte notify key. All keys
// are persisted as hex strings and relay topics are derived as SHA-256 of the
// key material.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	"github.com/2019tarikul/notify-server/internal/model"
)

// GenerateAuthenticationKey returns a fresh ed25519 key pair used for signing
// and verifying subscription JWTs.
func GenerateAuthenticationKey() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(rand.Reader)
}

// EncodeAuthenticationPublicKey returns the stored form of an authentication
// public key.
func EncodeAuthenticationPublicKey(pub ed25519.PublicKey) string {
	return hex.EncodeToString(pub)
}

// EncodeAuthenticationPrivateKey returns the stored form of an authentication
// private key. Only the 32-byte seed is persisted.
func EncodeAuthenticationPrivateKey(priv ed25519.PrivateKey) string {
	return hex.EncodeToString(priv.Seed())
}

// GenerateSubscribeKey returns a fresh x25519 key pair used for the key
// agreement that establishes subscribe topics.
func GenerateSubscribeKey() (pub, priv [32]byte, err error) {
	if _, err = rand.Read(priv[:]); err != nil {
		return
	}
	// clamp (RFC 7748) so the stored scalar is already in canonical form
	priv[0] &= 248
	priv[31] &= 127
	priv[31] |= 64

	p, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return
	}
	copy(pub[:], p)
	return
}

// EncodeSubscribePublicKey returns the stored form of a subscribe public key.
func EncodeSubscribePublicKey(pub [32]byte) string { return hex.EncodeToString(pub[:]) }

// EncodeSubscribePrivateKey returns the stored form of a subscribe private key.
func EncodeSubscribePrivateKey(priv [32]byte) string { return hex.EncodeToString(priv[:]) }

// GenerateNotifyKey returns a fresh symmetric key for a subscription's notify
// topic.
func GenerateNotifyKey() ([32]byte, error) {
	var key [32]byte
	_, err := rand.Read(key[:])
	return key, err
}

// EncodeSymKey returns the stored form of a symmetric key.
func EncodeSymKey(key [32]byte) string { return hex.EncodeToString(key[:]) }

// DeriveSymKey runs X25519 between our private key and the peer's public key
// and expands the shared secret with HKDF-SHA256. Both ends of a watcher
// session derive the same key, so either side can compute the session topic.
func DeriveSymKey(priv, peerPub [32]byte) ([32]byte, error) {
	var key [32]byte
	shared, err := curve25519.X25519(priv[:], peerPub[:])
	if err != nil {
		return key, err
	}
	if _, err := io.ReadFull(hkdf.New(sha256.New, shared, nil, nil), key[:]); err != nil {
		return key, err
	}
	return key, nil
}

// TopicFromKey derives the relay topic for a key: hex(SHA-256(key)).
func TopicFromKey(key []byte) model.Topic {
	h := sha256.Sum256(key)
	return model.Topic(hex.EncodeToString(h[:]))
}
