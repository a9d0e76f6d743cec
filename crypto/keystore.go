package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeyStoreVersion is the current on-disk format version of key files.
	KeyStoreVersion = 1

	keyStoreSaltSize = 32
	keyStoreSaltFile = ".salt"
	keyFileExt       = ".key"
	gcmNonceSize     = 12
	gcmTagSize       = 16
)

// ErrKeyNotFound indicates that no key file exists under the requested name.
var ErrKeyNotFound = errors.New("key not found")

// EncryptedKeyStore keeps long-term master key material on disk encrypted with
// AES-256-GCM under a PBKDF2-derived store key.
//
// Key files have the format [version:2][nonce:12][ciphertext+tag].
type EncryptedKeyStore struct {
	encryptionKey [32]byte
	dataDir       string
	saltFile      string
}

// NewEncryptedKeyStore opens (or initializes) a key store in dataDir.
// The password is wiped after the store key has been derived.
func NewEncryptedKeyStore(dataDir string, password []byte) (*EncryptedKeyStore, error) {
	if len(password) == 0 {
		return nil, fmt.Errorf("key store password cannot be empty")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create key store directory: %w", err)
	}

	ks := &EncryptedKeyStore{
		dataDir:  dataDir,
		saltFile: filepath.Join(dataDir, keyStoreSaltFile),
	}

	salt, err := ks.loadOrGenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize salt: %w", err)
	}

	derived := pbkdf2.Key(password, salt, PBKDF2Iterations, 32, sha256.New)
	copy(ks.encryptionKey[:], derived)
	WipeAll(derived, password)

	NewLogger("NewEncryptedKeyStore").WithField("data_dir", dataDir).Debug("Key store opened")
	return ks, nil
}

func (ks *EncryptedKeyStore) loadOrGenerateSalt() ([]byte, error) {
	data, err := os.ReadFile(ks.saltFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read salt file: %w", err)
		}

		salt := make([]byte, keyStoreSaltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
		if err := os.WriteFile(ks.saltFile, salt, 0o600); err != nil {
			return nil, fmt.Errorf("failed to save salt: %w", err)
		}
		return salt, nil
	}

	if len(data) != keyStoreSaltSize {
		return nil, fmt.Errorf("invalid salt file size: got %d, want %d", len(data), keyStoreSaltSize)
	}
	return data, nil
}

func (ks *EncryptedKeyStore) keyPath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid key name %q", name)
	}
	return filepath.Join(ks.dataDir, name+keyFileExt), nil
}

func (ks *EncryptedKeyStore) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(ks.encryptionKey[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}

// WriteEncrypted encrypts key material and stores it under name.
// The write is atomic: a temporary file is renamed into place.
func (ks *EncryptedKeyStore) WriteEncrypted(name string, plaintext []byte) error {
	path, err := ks.keyPath(name)
	if err != nil {
		return err
	}
	aead, err := ks.gcm()
	if err != nil {
		return err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, plaintext, []byte(name))
	output := make([]byte, 2+len(nonce)+len(sealed))
	binary.BigEndian.PutUint16(output[0:2], KeyStoreVersion)
	copy(output[2:2+len(nonce)], nonce)
	copy(output[2+len(nonce):], sealed)

	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, output, 0o600); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmpFile, path); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// ReadEncrypted loads and decrypts the key material stored under name.
// A missing key yields an error wrapping ErrKeyNotFound.
func (ks *EncryptedKeyStore) ReadEncrypted(name string) ([]byte, error) {
	path, err := ks.keyPath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, name)
		}
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	if len(data) < 2+gcmNonceSize+gcmTagSize {
		return nil, fmt.Errorf("key file too short: %d bytes", len(data))
	}
	if version := binary.BigEndian.Uint16(data[0:2]); version != KeyStoreVersion {
		return nil, fmt.Errorf("unsupported key file version: %d (expected %d)", version, KeyStoreVersion)
	}

	aead, err := ks.gcm()
	if err != nil {
		return nil, err
	}
	nonce := data[2 : 2+aead.NonceSize()]
	plaintext, err := aead.Open(nil, nonce, data[2+aead.NonceSize():], []byte(name))
	if err != nil {
		return nil, fmt.Errorf("decryption failed (wrong password or corrupted key file): %w", err)
	}
	return plaintext, nil
}

// LoadOrCreateMasterKey returns the key stored under name, generating and
// storing size random bytes on first use.
func (ks *EncryptedKeyStore) LoadOrCreateMasterKey(name string, size int) ([]byte, error) {
	key, err := ks.ReadEncrypted(name)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return nil, err
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid master key size: %d", size)
	}

	key = make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	if err := ks.WriteEncrypted(name, key); err != nil {
		ZeroBytes(key)
		return nil, err
	}

	NewLogger("LoadOrCreateMasterKey").WithField("key_name", name).Info("Generated new master key")
	return key, nil
}

// DeleteEncrypted overwrites the key file with zeros and removes it.
func (ks *EncryptedKeyStore) DeleteEncrypted(name string) error {
	path, err := ks.keyPath(name)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat key file: %w", err)
	}

	if err := os.WriteFile(path, make([]byte, info.Size()), 0o600); err != nil {
		return os.Remove(path)
	}
	return os.Remove(path)
}

// RotateKey re-encrypts every stored key under a store key derived from a new
// password and a new salt.
func (ks *EncryptedKeyStore) RotateKey(newPassword []byte) error {
	if len(newPassword) == 0 {
		return fmt.Errorf("new key store password cannot be empty")
	}

	files, err := filepath.Glob(filepath.Join(ks.dataDir, "*"+keyFileExt))
	if err != nil {
		return fmt.Errorf("failed to list key files: %w", err)
	}

	stored := make(map[string][]byte, len(files))
	for _, file := range files {
		name := filepath.Base(file)
		name = name[:len(name)-len(keyFileExt)]
		plaintext, err := ks.ReadEncrypted(name)
		if err != nil {
			return fmt.Errorf("failed to decrypt %s: %w", name, err)
		}
		stored[name] = plaintext
	}

	newSalt := make([]byte, keyStoreSaltSize)
	if _, err := rand.Read(newSalt); err != nil {
		return fmt.Errorf("failed to generate new salt: %w", err)
	}

	newKey := pbkdf2.Key(newPassword, newSalt, PBKDF2Iterations, 32, sha256.New)
	oldKey := ks.encryptionKey
	copy(ks.encryptionKey[:], newKey)
	ZeroBytes(newKey)

	for name, plaintext := range stored {
		if err := ks.WriteEncrypted(name, plaintext); err != nil {
			ks.encryptionKey = oldKey
			return fmt.Errorf("failed to re-encrypt %s: %w", name, err)
		}
		ZeroBytes(plaintext)
	}

	if err := os.WriteFile(ks.saltFile, newSalt, 0o600); err != nil {
		ks.encryptionKey = oldKey
		return fmt.Errorf("failed to save new salt: %w", err)
	}

	ZeroBytes(oldKey[:])
	ZeroBytes(newPassword)
	return nil
}

// Close wipes the store key. The store must not be used afterwards.
func (ks *EncryptedKeyStore) Close() error {
	ZeroBytes(ks.encryptionKey[:])
	return nil
}
