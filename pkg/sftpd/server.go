// Package sftpd implements the SFTP server core: the SSH listener and
// session supervisor, password authentication against the identity store,
// the per-session path jail and the metered file handles that feed
// connection and transfer telemetry.
package sftpd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/hardikhari96/sftp-cloud-connector/internal/logger"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/metrics"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/models"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/store"
)

// Config contains the SFTP listener configuration. Defaults are filled in by
// the config layer before the server is constructed.
type Config struct {
	// Address is the bind address; empty means all interfaces.
	Address string `mapstructure:"address" yaml:"address"`

	// Port is the TCP port to listen on.
	Port int `mapstructure:"port" yaml:"port"`

	// Root is the shared directory containing all user home subtrees.
	Root string `mapstructure:"root" yaml:"root"`

	// HostKeyPath is where the RSA host key lives in PEM form. A missing
	// file is generated on first start.
	HostKeyPath string `mapstructure:"host_key" yaml:"host_key"`

	// ChannelTimeout caps the wait for the first channel after handshake.
	ChannelTimeout time.Duration `mapstructure:"channel_timeout" yaml:"channel_timeout"`
}

// Addr returns the host:port the listener binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}

// Server accepts SSH connections and supervises one session per client.
type Server struct {
	config    Config
	store     store.IdentityStore
	verifier  *Verifier
	tracker   *Tracker
	metrics   *metrics.Metrics
	sshConfig *ssh.ServerConfig

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
}

// New builds the server: host key, shared root and SSH configuration.
// Password is the only authentication method offered.
func New(config Config, st store.IdentityStore, m *metrics.Metrics, tracker *Tracker) (*Server, error) {
	if err := os.MkdirAll(config.Root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create shared root %s: %w", config.Root, err)
	}

	signer, err := LoadOrGenerateHostKey(config.HostKeyPath)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:   config,
		store:    st,
		verifier: NewVerifier(st),
		tracker:  tracker,
		metrics:  m,
		conns:    make(map[net.Conn]struct{}),
	}

	sshConfig := &ssh.ServerConfig{
		PasswordCallback: s.authenticate,
	}
	sshConfig.AddHostKey(signer)
	s.sshConfig = sshConfig
	return s, nil
}

// Tracker returns the live session registry.
func (s *Server) Tracker() *Tracker {
	return s.tracker
}

// ListenerAddr returns the bound listener address, or nil before Run has
// opened the socket. Useful when the configured port is 0.
func (s *Server) ListenerAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// authenticate is the SSH password callback. The authenticated user id is
// carried in the connection permissions; no error detail reaches the client.
func (s *Server) authenticate(conn ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
	user, err := s.verifier.Verify(context.Background(), conn.User(), string(password))
	if err != nil {
		s.metrics.AuthFailuresTotal.Inc()
		logger.Info("authentication rejected", "username", conn.User(), "remote", conn.RemoteAddr().String())
		return nil, ErrAuthFailed
	}
	logger.Info("authentication succeeded", "username", user.Username, "remote", conn.RemoteAddr().String())
	return &ssh.Permissions{
		Extensions: map[string]string{"user-id": user.ID},
	}, nil
}

// Run listens and serves until ctx is cancelled, then closes the listener
// and all live connections and waits for sessions to finalize.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr(), err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	logger.Info("starting SFTP server", "addr", s.config.Addr(), "root", s.config.Root)

	errCh := make(chan error, 1)
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				errCh <- fmt.Errorf("accept failed: %w", err)
				return
			}
			s.trackConn(conn, true)
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer s.trackConn(conn, false)
				s.handleConn(ctx, conn)
			}()
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("SFTP server shutting down")
	if err := listener.Close(); err != nil {
		logger.Warn("error closing listener", "error", err)
	}
	s.closeConns()
	s.wg.Wait()
	logger.Info("SFTP server stopped")
	return nil
}

func (s *Server) trackConn(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}

// handleConn drives one TCP connection through handshake, channel setup and
// session serving. Nothing that happens here may take down the server.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in connection handler",
				"remote", conn.RemoteAddr().String(), "panic", r, "stack", string(debug.Stack()))
		}
	}()

	sshConn, chans, reqs, err := ssh.NewServerConn(conn, s.sshConfig)
	if err != nil {
		s.metrics.ConnectionsTotal.WithLabelValues("handshake_failed").Inc()
		logger.Debug("SSH handshake failed", "remote", conn.RemoteAddr().String(), "error", err)
		return
	}
	defer sshConn.Close()

	// The callback stores only the user id; re-fetch the authoritative
	// record before any filesystem access.
	userID := sshConn.Permissions.Extensions["user-id"]
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		logger.Error("authenticated user vanished", "user_id", userID, "error", err)
		return
	}

	home, err := ResolveHome(s.config.Root, models.SanitizeHomeDir(user.HomeDir, user.Username))
	if err != nil {
		logger.Error("home resolution failed, closing session",
			"username", user.Username, "home_dir", user.HomeDir, "error", err)
		return
	}

	go ssh.DiscardRequests(reqs)

	// Only session channels are admitted, and only until the channel-open
	// timeout fires with no session established.
	timeout := time.NewTimer(s.config.ChannelTimeout)
	defer timeout.Stop()

	for {
		select {
		case <-timeout.C:
			s.metrics.ConnectionsTotal.WithLabelValues("rejected").Inc()
			logger.Debug("no channel opened before timeout", "remote", sshConn.RemoteAddr().String())
			return
		case <-ctx.Done():
			return
		case newChan, ok := <-chans:
			if !ok {
				return
			}
			if newChan.ChannelType() != "session" {
				_ = newChan.Reject(ssh.UnknownChannelType, "only session channels are supported")
				continue
			}
			channel, requests, err := newChan.Accept()
			if err != nil {
				logger.Warn("failed to accept channel", "remote", sshConn.RemoteAddr().String(), "error", err)
				continue
			}
			timeout.Stop()
			s.handleChannel(ctx, sshConn, channel, requests, user, home)
			return
		}
	}
}

// handleChannel waits for the sftp subsystem request and serves it. Any
// other request type is refused.
func (s *Server) handleChannel(ctx context.Context, sshConn *ssh.ServerConn, channel ssh.Channel, requests <-chan *ssh.Request, user *models.User, home string) {
	defer channel.Close()

	for req := range requests {
		if req.Type != "subsystem" || len(req.Payload) < 5 || string(req.Payload[4:]) != "sftp" {
			_ = req.Reply(false, nil)
			continue
		}
		_ = req.Reply(true, nil)
		s.serveSubsystem(ctx, sshConn, channel, user, home)
		return
	}
}

// serveSubsystem runs the SFTP request server for one session. The session
// is finalized on every exit path, panics included.
func (s *Server) serveSubsystem(ctx context.Context, sshConn *ssh.ServerConn, channel ssh.Channel, user *models.User, home string) {
	remoteAddr := sshConn.RemoteAddr().String()
	remoteIP := remoteAddr
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		remoteIP = host
	}

	sess := newSession(user, remoteAddr, NewJail(home), s.store, s.metrics, s.tracker)
	readOnly := sess.start(ctx, remoteIP)
	s.metrics.ConnectionsTotal.WithLabelValues("served").Inc()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in SFTP session",
				"username", user.Username, "remote", remoteAddr, "panic", r, "stack", string(debug.Stack()))
		}
		sess.finalize()
	}()

	logger.Info("SFTP session started", "username", user.Username, "remote", remoteAddr, "home", home)

	server := sftp.NewRequestServer(channel, newHandler(sess.jail, sess.log, user.Username, readOnly))
	err := server.Serve()
	_ = server.Close()
	if err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("SFTP session ended with error", "username", user.Username, "remote", remoteAddr, "error", err)
	}
}
