package tezos

import (
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// ErrUnknownAccount is returned when an account name is not in the set.
var ErrUnknownAccount = errors.New("unknown account")

// Account is a named key pair able to sign operations and permits.
type Account struct {
	Name    string
	Key     PrivateKey
	Public  Key
	Address Address
}

func NewAccount(name string, key PrivateKey) *Account {
	pub := key.Public()
	return &Account{Name: name, Key: key, Public: pub, Address: pub.Address()}
}

// ParseAccount builds an account from an `edsk` secret.
func ParseAccount(name, secret string) (*Account, error) {
	key, err := ParsePrivateKey(secret)
	if err != nil {
		return nil, errors.Wrapf(err, "account %s", name)
	}
	return NewAccount(name, key), nil
}

// Sign signs message the way permits expect it (BLAKE2b then Ed25519).
func (a *Account) Sign(message []byte) Signature { return a.Key.Sign(message) }

func (a *Account) String() string { return a.Name + " (" + a.Address.String() + ")" }

type accountEntry struct {
	Name    string `yaml:"name"`
	Secret  string `yaml:"secret"`
	Address string `yaml:"address,omitempty"`
}

type accountsFile struct {
	Accounts []accountEntry `yaml:"accounts"`
}

// Accounts is a set of accounts by name.
type Accounts map[string]*Account

// LoadAccounts reads a YAML accounts file:
//
//	accounts:
//	  - name: alice
//	    secret: edsk...
//	    address: tz1...   # optional, checked when present
func LoadAccounts(path string) (Accounts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not read accounts file")
	}
	return ParseAccounts(data)
}

func ParseAccounts(data []byte) (Accounts, error) {
	var f accountsFile
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, errors.Wrap(err, "could not parse accounts file")
	}
	accounts := make(Accounts, len(f.Accounts))
	for _, e := range f.Accounts {
		if e.Name == "" {
			return nil, errors.New("account without a name")
		}
		if _, ok := accounts[e.Name]; ok {
			return nil, errors.Errorf("duplicate account %s", e.Name)
		}
		acc, err := ParseAccount(e.Name, e.Secret)
		if err != nil {
			return nil, err
		}
		if e.Address != "" && e.Address != acc.Address.String() {
			return nil, errors.Errorf("account %s: secret does not match address %s", e.Name, e.Address)
		}
		accounts[e.Name] = acc
	}
	return accounts, nil
}

func (as Accounts) Get(name string) (*Account, error) {
	acc, ok := as[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownAccount, name)
	}
	return acc, nil
}

// Add inserts acc, replacing any account of the same name.
func (as Accounts) Add(acc *Account) { as[acc.Name] = acc }

// Names returns the account names in sorted order.
func (as Accounts) Names() []string {
	names := make([]string, 0, len(as))
	for n := range as {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Marshal encodes the set in the accounts file format.
func (as Accounts) Marshal() ([]byte, error) {
	var f accountsFile
	for _, n := range as.Names() {
		acc := as[n]
		f.Accounts = append(f.Accounts, accountEntry{Name: n, Secret: acc.Key.String(), Address: acc.Address.String()})
	}
	return yaml.Marshal(f)
}
