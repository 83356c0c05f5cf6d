package secret

import (
	"os"
	"path/filepath"
	"testing"
)

type mapStore map[string]string

func (m mapStore) Get(key string) ([]byte, error) {
	if v, ok := m[key]; ok {
		return []byte(v), nil
	}
	return nil, nil
}

type countingStore struct {
	calls int
}

func (c *countingStore) Get(string) ([]byte, error) {
	c.calls++
	return []byte("typed"), nil
}

func TestEnvStore(t *testing.T) {
	env := map[string]string{"POKEMIGRATE_SSH_PASSWORD": "s3cret", "POKEMIGRATE_EMPTY": ""}
	s := EnvStore{Lookup: func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}}

	got, err := String(s, SSHPassword)
	if err != nil || got != "s3cret" {
		t.Errorf("Get(ssh_password) = %q, %v; want s3cret", got, err)
	}
	if v, _ := s.Get("empty"); v != nil {
		t.Errorf("empty variable = %q, want nil", v)
	}
	if v, _ := s.Get("missing"); v != nil {
		t.Errorf("missing variable = %q, want nil", v)
	}
}

func TestEnvStore_Setenv(t *testing.T) {
	t.Setenv("POKEMIGRATE_POSTGRES_PASSWORD", "pw")
	got, err := String(EnvStore{}, PostgresPassword)
	if err != nil || got != "pw" {
		t.Errorf("Get(postgres_password) = %q, %v; want pw", got, err)
	}
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SSHPassword), []byte("from-file\n"), 0o600); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	s := FileStore{Dir: dir}

	got, err := String(s, SSHPassword)
	if err != nil || got != "from-file" {
		t.Errorf("Get(ssh_password) = %q, %v; want from-file", got, err)
	}
	if v, err := s.Get(MySQLPassword); v != nil || err != nil {
		t.Errorf("missing file = %q, %v; want nil, nil", v, err)
	}
	if _, err := s.Get("../etc/passwd"); err == nil {
		t.Error("path traversal key should fail")
	}
	if v, err := (FileStore{}).Get(SSHPassword); v != nil || err != nil {
		t.Errorf("FileStore without dir = %q, %v; want nil, nil", v, err)
	}
}

func TestPromptStore_NotATerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	if err != nil {
		t.Fatalf("CreateTemp error: %v", err)
	}
	defer f.Close()

	s := &PromptStore{In: f, Out: os.Stderr}
	if v, err := s.Get(SSHPassword); v != nil || err != nil {
		t.Errorf("Get on a regular file = %q, %v; want nil, nil", v, err)
	}
}

func TestChain(t *testing.T) {
	c := Chain{mapStore{}, mapStore{"a": "second"}, mapStore{"a": "third", "b": "only"}}

	if got, _ := String(c, "a"); got != "second" {
		t.Errorf("Get(a) = %q, want second", got)
	}
	if got, _ := String(c, "b"); got != "only" {
		t.Errorf("Get(b) = %q, want only", got)
	}
	if v, err := c.Get("c"); v != nil || err != nil {
		t.Errorf("Get(c) = %q, %v; want nil, nil", v, err)
	}
}

func TestMemo(t *testing.T) {
	inner := &countingStore{}
	m := &Memo{Store: inner}
	for i := 0; i < 3; i++ {
		if got, _ := String(m, SSHPassword); got != "typed" {
			t.Fatalf("Get = %q, want typed", got)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner store called %d times, want 1", inner.calls)
	}
}
