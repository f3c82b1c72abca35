// Package sessionless mints secp256k1 keypairs and signs/verifies messages
// the way the storage backend expects: ECDSA over the SHA-256 of the
// message, DER signatures, hex encoding throughout.
package sessionless

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/planet-nine-app/linkitylink/internal/domain"
)

// GenerateKeys returns a fresh keypair. The public key is the 33-byte
// compressed point, hex encoded.
func GenerateKeys() (domain.Keys, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return domain.Keys{}, fmt.Errorf("failed to generate private key: %w", err)
	}
	return domain.Keys{
		PublicKey:  hex.EncodeToString(priv.PubKey().SerializeCompressed()),
		PrivateKey: hex.EncodeToString(priv.Serialize()),
	}, nil
}

// Sign signs message with the hex encoded private key.
func Sign(privateKey, message string) (string, error) {
	raw, err := hex.DecodeString(privateKey)
	if err != nil || len(raw) != 32 {
		return "", errors.New("invalid private key")
	}
	priv := secp256k1.PrivKeyFromBytes(raw)
	digest := sha256.Sum256([]byte(message))
	return hex.EncodeToString(ecdsa.Sign(priv, digest[:]).Serialize()), nil
}

// Verify reports whether signature is a valid signature of message by pubKey.
// Malformed inputs verify as false.
func Verify(signature, message, pubKey string) bool {
	rawPub, err := hex.DecodeString(pubKey)
	if err != nil {
		return false
	}
	pub, err := secp256k1.ParsePubKey(rawPub)
	if err != nil {
		return false
	}
	rawSig, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	sig, err := ecdsa.ParseDERSignature(rawSig)
	if err != nil {
		return false
	}
	digest := sha256.Sum256([]byte(message))
	return sig.Verify(digest[:], pub)
}

// LoadOrCreateKeys reads a keypair from path, generating and persisting a
// new one when the file does not exist yet.
func LoadOrCreateKeys(path string) (domain.Keys, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var keys domain.Keys
		if err := json.Unmarshal(data, &keys); err != nil {
			return domain.Keys{}, fmt.Errorf("failed to parse key file %s: %w", path, err)
		}
		if keys.PublicKey == "" || keys.PrivateKey == "" {
			return domain.Keys{}, fmt.Errorf("key file %s is incomplete", path)
		}
		return keys, nil
	case !errors.Is(err, os.ErrNotExist):
		return domain.Keys{}, fmt.Errorf("failed to read key file %s: %w", path, err)
	}

	keys, err := GenerateKeys()
	if err != nil {
		return domain.Keys{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return domain.Keys{}, fmt.Errorf("failed to create key directory: %w", err)
	}
	data, err = json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return domain.Keys{}, fmt.Errorf("failed to encode keys: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return domain.Keys{}, fmt.Errorf("failed to write key file %s: %w", path, err)
	}
	return keys, nil
}
