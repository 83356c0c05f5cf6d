// Package secret resolves credentials at runtime. Nothing in the source tree
// or the configuration file holds a password; keys name a secret and a
// Store decides where it comes from.
package secret

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

// Well-known keys.
const (
	SSHPassword      = "ssh_password"
	SSHKeyPassphrase = "ssh_key_passphrase"
	PostgresPassword = "postgres_password"
	MySQLPassword    = "mysql_password"
)

// Store returns the secret for key, or nil and no error when it has none.
type Store interface {
	Get(key string) ([]byte, error)
}

// EnvPrefix is prepended to upper-cased keys by EnvStore.
const EnvPrefix = "POKEMIGRATE_"

// EnvStore reads POKEMIGRATE_<KEY> environment variables.
type EnvStore struct {
	// Lookup defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
}

// EnvName returns the variable EnvStore reads for key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

func (s EnvStore) Get(key string) ([]byte, error) {
	lookup := s.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(EnvName(key))
	if !ok || v == "" {
		return nil, nil
	}
	return []byte(v), nil
}

// FileStore reads one file per key from Dir, as mounted by Docker or
// systemd credentials. A single trailing newline is removed.
type FileStore struct {
	Dir string
}

func (s FileStore) Get(key string) ([]byte, error) {
	if s.Dir == "" {
		return nil, nil
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return nil, fmt.Errorf("invalid secret key %q", key)
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read secret %s: %w", key, err)
	}
	data = []byte(strings.TrimSuffix(strings.TrimSuffix(string(data), "\n"), "\r"))
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

// PromptStore asks on the terminal. It has nothing to offer when In is not
// a terminal, so batch runs fail instead of hanging.
type PromptStore struct {
	In  *os.File
	Out io.Writer

	// Labels maps keys to prompt text; the key itself is used otherwise.
	Labels map[string]string
}

// NewPromptStore prompts on stdin/stderr.
func NewPromptStore() *PromptStore {
	return &PromptStore{
		In:  os.Stdin,
		Out: os.Stderr,
		Labels: map[string]string{
			SSHPassword:      "SSH password",
			SSHKeyPassphrase: "SSH key passphrase",
			PostgresPassword: "PostgreSQL password",
			MySQLPassword:    "MySQL password",
		},
	}
}

func (s *PromptStore) Get(key string) ([]byte, error) {
	if s.In == nil || !term.IsTerminal(int(s.In.Fd())) {
		return nil, nil
	}
	label := s.Labels[key]
	if label == "" {
		label = key
	}
	fmt.Fprintf(s.Out, "%s: ", label)
	pass, err := term.ReadPassword(int(s.In.Fd()))
	fmt.Fprintln(s.Out)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", label, err)
	}
	if len(pass) == 0 {
		return nil, nil
	}
	return pass, nil
}

// Chain asks each store in turn and returns the first secret found.
type Chain []Store

func (c Chain) Get(key string) ([]byte, error) {
	for _, s := range c {
		v, err := s.Get(key)
		if err != nil {
			return nil, err
		}
		if v != nil {
			return v, nil
		}
	}
	return nil, nil
}

// Memo caches what the wrapped store returns, so a prompt is shown at most
// once per key.
type Memo struct {
	Store Store
	cache map[string][]byte
}

func (m *Memo) Get(key string) ([]byte, error) {
	if v, ok := m.cache[key]; ok {
		return v, nil
	}
	v, err := m.Store.Get(key)
	if err != nil {
		return nil, err
	}
	if m.cache == nil {
		m.cache = make(map[string][]byte)
	}
	m.cache[key] = v
	return v, nil
}

// Default is env, then files in dir (if any), then the terminal.
func Default(dir string) Store {
	return &Memo{Store: Chain{EnvStore{}, FileStore{Dir: dir}, NewPromptStore()}}
}

// String fetches key as a string; "" when unset.
func String(s Store, key string) (string, error) {
	v, err := s.Get(key)
	if err != nil {
		return "", err
	}
	return string(v), nil
}
