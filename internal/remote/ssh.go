// Package remote runs the generated SQL on the database host: it opens an
// SSH connection, uploads scripts over SFTP and runs psql there.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/Olivedu13/poke/pokemigrate/internal/logger"
)

// ErrNoHostKeyCheck is returned by Dial when neither a known_hosts file nor
// the explicit insecure opt-in is configured.
var ErrNoHostKeyCheck = errors.New("no host key verification configured: set a known_hosts file")

// Config describes the SSH connection. Password and KeyPassphrase are
// filled in at runtime from a secret store, never from a file.
type Config struct {
	Host string
	Port int
	User string

	Password string

	KeyFile       string
	KeyPassphrase string

	KnownHostsFile string

	// InsecureIgnoreHostKey accepts any host key. Only for throwaway hosts.
	InsecureIgnoreHostKey bool

	Timeout time.Duration
}

func (c Config) addr() string {
	port := c.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

func (c Config) authMethods() ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if c.KeyFile != "" {
		pem, err := os.ReadFile(c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		var signer ssh.Signer
		if c.KeyPassphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(pem, []byte(c.KeyPassphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(pem)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key %s: %w", c.KeyFile, err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if c.Password != "" {
		password := c.Password
		methods = append(methods,
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		)
	}

	if len(methods) == 0 {
		return nil, errors.New("no SSH credentials: need a private key or a password")
	}
	return methods, nil
}

func (c Config) hostKeyCallback() (ssh.HostKeyCallback, error) {
	switch {
	case c.KnownHostsFile != "":
		cb, err := knownhosts.New(c.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load known_hosts: %w", err)
		}
		return cb, nil
	case c.InsecureIgnoreHostKey:
		logger.Warning("SSH host key verification disabled", "host", c.Host)
		return ssh.InsecureIgnoreHostKey(), nil
	}
	return nil, ErrNoHostKeyCheck
}

// Result is the outcome of one remote command.
type Result struct {
	Stdout     string
	Stderr     string
	ExitStatus int
}

// Runner is what Psql needs from a connection.
type Runner interface {
	Run(ctx context.Context, cmd string) (*Result, error)
	Upload(path string, data []byte) error
	Remove(path string) error
}

// Client is an open SSH connection with a lazily opened SFTP session.
type Client struct {
	conn *ssh.Client
	sftp *sftp.Client
}

// Dial connects and authenticates.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	auth, err := cfg.authMethods()
	if err != nil {
		return nil, err
	}
	hostKey, err := cfg.hostKeyCallback()
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	sshConfig := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         timeout,
	}

	addr := cfg.addr()
	dialer := net.Dialer{Timeout: timeout}
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = netConn.SetDeadline(deadline)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, sshConfig)
	if err != nil {
		netConn.Close()
		return nil, fmt.Errorf("SSH handshake with %s failed: %w", addr, err)
	}
	_ = netConn.SetDeadline(time.Time{})

	logger.Info("Connected over SSH", "host", addr, "user", cfg.User)
	return &Client{conn: ssh.NewClient(sshConn, chans, reqs)}, nil
}

// Close ends the SFTP session and the connection.
func (c *Client) Close() error {
	if c.sftp != nil {
		c.sftp.Close()
	}
	return c.conn.Close()
}

// Run executes cmd and collects its output. Cancelling ctx kills the
// command and closes its session.
func (c *Client) Run(ctx context.Context, cmd string) (*Result, error) {
	session, err := c.conn.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to open SSH session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	if err := session.Start(cmd); err != nil {
		return nil, fmt.Errorf("failed to start remote command: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- session.Wait() }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		session.Close()
		return nil, ctx.Err()
	case err = <-done:
	}

	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *ssh.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitStatus = exitErr.ExitStatus()
	default:
		return res, fmt.Errorf("remote command failed: %w", err)
	}
	return res, nil
}

func (c *Client) sftpClient() (*sftp.Client, error) {
	if c.sftp == nil {
		s, err := sftp.NewClient(c.conn)
		if err != nil {
			return nil, fmt.Errorf("failed to start SFTP: %w", err)
		}
		c.sftp = s
	}
	return c.sftp, nil
}

// Upload writes data to path on the remote host.
func (c *Client) Upload(path string, data []byte) error {
	s, err := c.sftpClient()
	if err != nil {
		return err
	}
	f, err := s.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("failed to create remote %s: %w", path, err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		return fmt.Errorf("failed to upload %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to upload %s: %w", path, err)
	}
	// psql runs as another OS user and has to read the file.
	if err := s.Chmod(path, 0o644); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	return nil
}

// Remove deletes path on the remote host.
func (c *Client) Remove(path string) error {
	s, err := c.sftpClient()
	if err != nil {
		return err
	}
	if err := s.Remove(path); err != nil {
		return fmt.Errorf("failed to remove remote %s: %w", path, err)
	}
	return nil
}
