package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// ConnectionInfo identifies the remote host and how to authenticate.
type ConnectionInfo struct {
	Host           string
	Port           int
	Username       string
	Password       string
	KeyFile        string
	KnownHostsFile string
	Timeout        time.Duration
}

// Address returns host:port.
func (i ConnectionInfo) Address() string {
	port := i.Port
	if port < 1 || port > 65535 {
		port = 22
	}
	return net.JoinHostPort(i.Host, strconv.Itoa(port))
}

// CommandResult is the outcome of a single remote command.
type CommandResult struct {
	Command  string        `json:"command"`
	Stdout   []byte        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// Client runs non-interactive commands over one SSH connection.
type Client struct {
	info       ConnectionInfo
	connection *ssh.Client
	mutex      sync.Mutex
}

// NewClient returns an unconnected client.
func NewClient(info ConnectionInfo) *Client {
	return &Client{info: info}
}

// Address is the host:port this client talks to.
func (c *Client) Address() string {
	return c.info.Address()
}

// Connect dials the remote host. It is a no-op when already connected.
func (c *Client) Connect(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.connection != nil {
		return nil
	}

	sshConfig, err := c.clientConfig()
	if err != nil {
		return err
	}

	address := c.info.Address()
	dialer := &net.Dialer{Timeout: c.info.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", address, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, sshConfig)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create SSH connection to %s: %w", address, err)
	}
	c.connection = ssh.NewClient(sshConn, chans, reqs)
	return nil
}

func (c *Client) clientConfig() (*ssh.ClientConfig, error) {
	cfg := &ssh.ClientConfig{
		User:            c.info.Username,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         c.info.Timeout,
	}

	if c.info.KnownHostsFile != "" {
		cb, err := knownhosts.New(c.info.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts %s: %w", c.info.KnownHostsFile, err)
		}
		cfg.HostKeyCallback = cb
	}

	if c.info.KeyFile != "" {
		pem, err := os.ReadFile(c.info.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("failed to parse key file %s: %w", c.info.KeyFile, err)
		}
		cfg.Auth = append(cfg.Auth, ssh.PublicKeys(signer))
	}

	if c.info.Password != "" {
		password := c.info.Password
		cfg.Auth = append(cfg.Auth,
			ssh.Password(password),
			ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = password
				}
				return answers, nil
			}),
		)
	}

	if len(cfg.Auth) == 0 {
		return nil, fmt.Errorf("no SSH authentication method configured for %s", c.info.Username)
	}
	return cfg, nil
}

// Run executes command in a fresh session. A non-zero exit status is reported
// both in the result and as an *ssh.ExitError.
func (c *Client) Run(ctx context.Context, command string) (*CommandResult, error) {
	c.mutex.Lock()
	conn := c.connection
	c.mutex.Unlock()
	if conn == nil {
		return nil, fmt.Errorf("SSH connection not established")
	}

	session, err := conn.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return nil, ctx.Err()
	case err = <-done:
	}

	result := &CommandResult{
		Command:  command,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitStatus()
		} else {
			result.ExitCode = -1
		}
		return result, err
	}
	return result, nil
}

// Close tears down the connection.
func (c *Client) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.connection == nil {
		return nil
	}
	err := c.connection.Close()
	c.connection = nil
	return err
}
