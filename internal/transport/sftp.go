package transport

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/sftp"
	"github.com/pterm/pterm"
	"golang.org/x/crypto/ssh"
)

// SFTPFetcher downloads log files over SFTP. Connections are cached per
// host:port:user and rebuilt transparently when a cached session has died.
type SFTPFetcher struct {
	logger      *pterm.Logger
	dialTimeout time.Duration
	maxRetries  uint64

	mu      sync.Mutex
	clients map[string]*sftpSession
}

type sftpSession struct {
	ssh  *ssh.Client
	sftp *sftp.Client
}

func (s *sftpSession) close() {
	if s.sftp != nil {
		s.sftp.Close()
	}
	if s.ssh != nil {
		s.ssh.Close()
	}
}

// NewSFTPFetcher creates a fetcher with a shared connection cache.
func NewSFTPFetcher(logger *pterm.Logger, dialTimeout time.Duration, maxRetries int) *SFTPFetcher {
	if dialTimeout <= 0 {
		dialTimeout = 30 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &SFTPFetcher{
		logger:      logger,
		dialTimeout: dialTimeout,
		maxRetries:  uint64(maxRetries),
		clients:     make(map[string]*sftpSession),
	}
}

// Fetch downloads the file at desc.LogPath. Transient failures are retried
// with exponential backoff; a dead cached connection is dropped and redialed
// once before the attempt counts as failed.
func (f *SFTPFetcher) Fetch(ctx context.Context, desc SourceDescriptor) (string, error) {
	if !desc.Remote() {
		return "", &Error{Source: desc.Key(), Op: "fetch", Err: ErrNoContent}
	}

	var content string
	operation := func() error {
		var err error
		content, err = f.fetchOnce(ctx, desc)
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), f.maxRetries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return "", &Error{Source: desc.Key(), Op: "fetch", Err: err}
	}
	return content, nil
}

func (f *SFTPFetcher) fetchOnce(ctx context.Context, desc SourceDescriptor) (string, error) {
	session, err := f.session(desc)
	if err != nil {
		return "", err
	}

	content, err := f.readFile(session, desc.LogPath)
	if err != nil {
		// The cached session may be stale. Drop it and retry once with a
		// fresh connection before surfacing the error.
		f.drop(desc)
		session, dialErr := f.session(desc)
		if dialErr != nil {
			return "", dialErr
		}
		content, err = f.readFile(session, desc.LogPath)
		if err != nil {
			f.drop(desc)
			return "", err
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return content, nil
}

func (f *SFTPFetcher) readFile(session *sftpSession, path string) (string, error) {
	file, err := session.sftp.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// session returns the cached connection for the descriptor's endpoint,
// dialing a new one on first use.
func (f *SFTPFetcher) session(desc SourceDescriptor) (*sftpSession, error) {
	key := fmt.Sprintf("%s:%d:%s", desc.Host, desc.Port, desc.Username)

	f.mu.Lock()
	defer f.mu.Unlock()

	if session, ok := f.clients[key]; ok {
		return session, nil
	}

	f.logger.Debug("Dialing SFTP endpoint",
		f.logger.Args("host", desc.Host, "port", desc.Port, "user", desc.Username))

	sshConfig := &ssh.ClientConfig{
		User: desc.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(desc.Password),
		},
		// Game hosting panels rotate host keys on server migration, so
		// pinning breaks legitimate deployments.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         f.dialTimeout,
	}

	addr := fmt.Sprintf("%s:%d", desc.Host, desc.Port)
	sshClient, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", addr, err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("sftp subsystem %s: %w", addr, err)
	}

	session := &sftpSession{ssh: sshClient, sftp: sftpClient}
	f.clients[key] = session
	return session, nil
}

// drop evicts and closes the cached connection for the descriptor's endpoint.
func (f *SFTPFetcher) drop(desc SourceDescriptor) {
	key := fmt.Sprintf("%s:%d:%s", desc.Host, desc.Port, desc.Username)

	f.mu.Lock()
	defer f.mu.Unlock()

	if session, ok := f.clients[key]; ok {
		session.close()
		delete(f.clients, key)
	}
}

// Close closes every cached connection.
func (f *SFTPFetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for key, session := range f.clients {
		session.close()
		delete(f.clients, key)
	}
}
