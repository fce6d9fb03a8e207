package keystore

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
	pkgerrors "github.com/pkg/errors"

	"github.com/betkit/polytrade/clob/signing"
)

// DefaultDerivationPath is the standard Ethereum account path.
const DefaultDerivationPath = "m/44'/60'/0'/0/0"

const profilePrefix = "profile/"

// Profile kinds.
const (
	KindKey      = "key"
	KindMnemonic = "mnemonic"
)

var ErrProfileNotFound = pkgerrors.New("keystore: profile not found")

// Profile is one named credential set. Either a raw private key or a
// mnemonic plus derivation path, never both.
type Profile struct {
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	PrivateKey string    `json:"private_key,omitempty"`
	Mnemonic   string    `json:"mnemonic,omitempty"`
	Path       string    `json:"path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store keeps profiles in a Badger database, encrypted at rest when an
// encryption key is supplied. Encryption comes from Badger's own value
// log and key registry, not from this wrapper.
type Store struct {
	db *badger.DB
}

func Open(path string, encryptionKey []byte) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, pkgerrors.New("keystore: path is required")
	}
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if len(encryptionKey) > 0 {
		// Badger requires an index cache for encrypted workloads.
		opts = opts.
			WithEncryptionKey(encryptionKey).
			WithIndexCacheSize(100 << 20)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "keystore: open")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveKey stores a hex private key under a profile name.
func (s *Store) SaveKey(name, privateKeyHex string) error {
	if _, err := signing.NewLocalWalletFromHex(privateKeyHex); err != nil {
		return pkgerrors.Wrap(err, "keystore")
	}
	return s.put(&Profile{
		Name:       strings.TrimSpace(name),
		Kind:       KindKey,
		PrivateKey: privateKeyHex,
		CreatedAt:  time.Now().UTC(),
	})
}

// SaveMnemonic stores a BIP-39 mnemonic under a profile name. The key
// is derived on every open, never persisted. An empty path means the
// standard Ethereum account path.
func (s *Store) SaveMnemonic(name, mnemonic, path string) error {
	if path == "" {
		path = DefaultDerivationPath
	}
	profile := &Profile{
		Name:      strings.TrimSpace(name),
		Kind:      KindMnemonic,
		Mnemonic:  strings.TrimSpace(mnemonic),
		Path:      path,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := deriveKey(profile); err != nil {
		return err
	}
	return s.put(profile)
}

func (s *Store) put(p *Profile) error {
	if s == nil || s.db == nil {
		return pkgerrors.New("keystore: not opened")
	}
	if p.Name == "" {
		return pkgerrors.New("keystore: profile name is required")
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return pkgerrors.Wrap(err, "keystore: encode profile")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(profilePrefix+p.Name), raw)
	})
}

// Profile loads one profile by name.
func (s *Store) Profile(name string) (*Profile, error) {
	if s == nil || s.db == nil {
		return nil, pkgerrors.New("keystore: not opened")
	}
	var profile Profile
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(profilePrefix + strings.TrimSpace(name)))
		if err != nil {
			if pkgerrors.Is(err, badger.ErrKeyNotFound) {
				return pkgerrors.Wrap(ErrProfileNotFound, name)
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &profile)
		})
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Delete removes a profile. Deleting a missing profile is not an error.
func (s *Store) Delete(name string) error {
	if s == nil || s.db == nil {
		return pkgerrors.New("keystore: not opened")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(profilePrefix + strings.TrimSpace(name)))
	})
}

// List returns the stored profile names.
func (s *Store) List() ([]string, error) {
	if s == nil || s.db == nil {
		return nil, pkgerrors.New("keystore: not opened")
	}
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(profilePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			names = append(names, strings.TrimPrefix(string(it.Item().Key()), profilePrefix))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Wallet resolves a profile to a signing wallet, deriving the key from
// the mnemonic when the profile stores one.
func (s *Store) Wallet(name string) (*signing.LocalWallet, error) {
	profile, err := s.Profile(name)
	if err != nil {
		return nil, err
	}
	hexKey, err := deriveKey(profile)
	if err != nil {
		return nil, err
	}
	wallet, err := signing.NewLocalWalletFromHex(hexKey)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "keystore: profile %s", name)
	}
	return wallet, nil
}

func deriveKey(p *Profile) (string, error) {
	switch p.Kind {
	case KindKey:
		return p.PrivateKey, nil
	case KindMnemonic:
		w, err := hdwallet.NewFromMnemonic(p.Mnemonic)
		if err != nil {
			return "", pkgerrors.Wrap(err, "keystore: invalid mnemonic")
		}
		path, err := hdwallet.ParseDerivationPath(p.Path)
		if err != nil {
			return "", pkgerrors.Wrapf(err, "keystore: path %q", p.Path)
		}
		account, err := w.Derive(path, false)
		if err != nil {
			return "", pkgerrors.Wrap(err, "keystore: derive")
		}
		return w.PrivateKeyHex(account)
	default:
		return "", pkgerrors.Errorf("keystore: unknown profile kind %q", p.Kind)
	}
}

// ParseEncryptionKey accepts a 32-byte key as hex (with or without 0x)
// or standard base64. Empty input means no encryption.
func ParseEncryptionKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	rawHex := strings.TrimPrefix(raw, "0x")
	if b, err := hex.DecodeString(rawHex); err == nil {
		if len(b) != 32 {
			return nil, pkgerrors.Errorf("keystore: key must be 32 bytes, got %d", len(b))
		}
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(raw); err == nil {
		if len(b) != 32 {
			return nil, pkgerrors.Errorf("keystore: key must be 32 bytes, got %d", len(b))
		}
		return b, nil
	}
	return nil, pkgerrors.New("keystore: key must be 32 bytes as hex or base64")
}
