package device

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"boiler_collector/internal/payload"

	"github.com/zalando/go-keyring"
)

// KeyringService is the OS keyring service name for stored credentials.
const KeyringService = "boiler-collector"

// ErrNoCredentials is returned when a store has nothing for a device.
var ErrNoCredentials = errors.New("no credentials stored")

// Credentials identify this collector to a thermostat.
type Credentials struct {
	UserAccount string `json:"user_account"`
	MACAddress  string `json:"mac_address"`
	DeviceName  string `json:"device_name"`
}

// Account converts to the wire form.
func (c Credentials) Account() payload.Account {
	return payload.Account{UserAccount: c.UserAccount, MACAddress: c.MACAddress, DeviceName: c.DeviceName}
}

// Validate requires a MAC address, the thermostat keys pairing on it.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.MACAddress) == "" {
		return errors.New("credentials: mac_address is required")
	}
	return nil
}

// CredentialStore loads and saves per-device credentials.
type CredentialStore interface {
	Load(deviceID string) (Credentials, error)
	Save(deviceID string, creds Credentials) error
	Delete(deviceID string) error
}

// StaticStore serves credentials from configuration. Save and Delete only
// affect the in-memory copy.
type StaticStore struct {
	creds map[string]Credentials
}

// NewStaticStore copies creds.
func NewStaticStore(creds map[string]Credentials) *StaticStore {
	m := make(map[string]Credentials, len(creds))
	for k, v := range creds {
		m[k] = v
	}
	return &StaticStore{creds: m}
}

func (s *StaticStore) Load(deviceID string) (Credentials, error) {
	c, ok := s.creds[deviceID]
	if !ok {
		return Credentials{}, fmt.Errorf("%w for %q", ErrNoCredentials, deviceID)
	}
	return c, nil
}

func (s *StaticStore) Save(deviceID string, creds Credentials) error {
	s.creds[deviceID] = creds
	return nil
}

func (s *StaticStore) Delete(deviceID string) error {
	delete(s.creds, deviceID)
	return nil
}

// KeyringStore keeps credentials in the OS keyring, one JSON entry per device.
type KeyringStore struct {
	service string
}

// NewKeyringStore uses KeyringService when service is empty.
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = KeyringService
	}
	return &KeyringStore{service: service}
}

func (k *KeyringStore) Save(deviceID string, creds Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if err := keyring.Set(k.service, deviceID, string(data)); err != nil {
		return fmt.Errorf("failed to save credentials to keyring: %w", err)
	}
	return nil
}

func (k *KeyringStore) Load(deviceID string) (Credentials, error) {
	data, err := keyring.Get(k.service, deviceID)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return Credentials{}, fmt.Errorf("%w for %q", ErrNoCredentials, deviceID)
		}
		return Credentials{}, fmt.Errorf("failed to load credentials from keyring: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return Credentials{}, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	return creds, nil
}

func (k *KeyringStore) Delete(deviceID string) error {
	err := keyring.Delete(k.service, deviceID)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// ChainStore tries each store in order and returns the first hit.
type ChainStore []CredentialStore

func (c ChainStore) Load(deviceID string) (Credentials, error) {
	for _, s := range c {
		creds, err := s.Load(deviceID)
		if err == nil {
			return creds, nil
		}
		if !errors.Is(err, ErrNoCredentials) {
			return Credentials{}, err
		}
	}
	return Credentials{}, fmt.Errorf("%w for %q", ErrNoCredentials, deviceID)
}

// Save writes to the first store.
func (c ChainStore) Save(deviceID string, creds Credentials) error {
	if len(c) == 0 {
		return errors.New("no credential store configured")
	}
	return c[0].Save(deviceID, creds)
}

func (c ChainStore) Delete(deviceID string) error {
	for _, s := range c {
		if err := s.Delete(deviceID); err != nil {
			return err
		}
	}
	return nil
}
