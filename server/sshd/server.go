// Copyright (C) 2024 Christian Rößner
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package sshd

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/croessner/honeyauth/server/checker"
	"github.com/croessner/honeyauth/server/config"
	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/errors"
	"github.com/croessner/honeyauth/server/log"
	"github.com/croessner/honeyauth/server/stats"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pires/go-proxyproto"
	"github.com/segmentio/ksuid"
	"golang.org/x/crypto/ssh"
)

// Settings is the part of the configuration that is fixed for the lifetime of a listener.
type Settings struct {
	Address          string
	Version          string
	MaxAuthTries     int
	AllowNoneAuth    bool
	ProxyProtocol    bool
	HandshakeTimeout time.Duration
	PromptTimeout    time.Duration
}

// SettingsFromConfig reads the ssh section.
func SettingsFromConfig(cfg *config.File) Settings {
	sshCfg := cfg.GetSSH()

	return Settings{
		Address:          sshCfg.GetAddress(),
		Version:          sshCfg.GetVersion(),
		MaxAuthTries:     sshCfg.GetMaxAuthTries(),
		AllowNoneAuth:    sshCfg.IsNoneAuthAllowed(),
		ProxyProtocol:    sshCfg.IsProxyProtocol(),
		HandshakeTimeout: sshCfg.GetHandshakeTimeout(),
		PromptTimeout:    sshCfg.GetPromptTimeout(),
	}
}

type checkerHolder struct {
	checker checker.Checker
}

// Server accepts SSH connections and maps every authentication callback to a checker.Credential. Sessions are never
// opened: channels of authenticated clients are rejected and the connection is closed.
type Server struct {
	settings Settings
	hostKeys []ssh.Signer
	checker  atomic.Pointer[checkerHolder]
	logger   kitlog.Logger
	wg       sync.WaitGroup
}

// New returns a Server. SetChecker must be called before connections are served.
func New(settings Settings, hostKeys []ssh.Signer, chk checker.Checker, logger kitlog.Logger) *Server {
	server := &Server{
		settings: settings,
		hostKeys: hostKeys,
		logger:   log.OrDefault(logger),
	}

	server.SetChecker(chk)

	return server
}

// SetChecker replaces the checker used for new authentication attempts.
func (s *Server) SetChecker(chk checker.Checker) {
	s.checker.Store(&checkerHolder{checker: chk})
}

func (s *Server) currentChecker() checker.Checker {
	return s.checker.Load().checker
}

// Listen opens the configured address, wrapped in a PROXY protocol listener if enabled.
func (s *Server) Listen() (net.Listener, error) {
	listener, err := net.Listen("tcp", s.settings.Address)
	if err != nil {
		return nil, err
	}

	if s.settings.ProxyProtocol {
		return &proxyproto.Listener{
			Listener: listener,
			ConnPolicy: func(_ proxyproto.ConnPolicyOptions) (proxyproto.Policy, error) {
				return proxyproto.REQUIRE, nil
			},
			ReadHeaderTimeout: s.settings.HandshakeTimeout,
		}, nil
	}

	return listener, nil
}

// Serve accepts connections until ctx is done. It waits for open connections before it returns.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		_ = listener.Close()
	})

	defer stop()

	level.Info(s.logger).Log(definitions.LogKeyMsg, "SSH listener started", definitions.LogKeyAddress, listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.wg.Wait()

				return nil
			}

			if stderrors.Is(err, net.ErrClosed) {
				s.wg.Wait()

				return err
			}

			level.Warn(s.logger).Log(definitions.LogKeyMsg, "accept failed", definitions.LogKeyError, err)

			continue
		}

		stats.SSHConnections.Inc()

		s.wg.Add(1)

		go func() {
			defer s.wg.Done()

			s.handleConn(ctx, conn)
		}()
	}
}

// ListenAndServe combines Listen and Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := s.Listen()
	if err != nil {
		return err
	}

	return s.Serve(ctx, listener)
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	ctx, cancel := context.WithCancel(ctx)

	defer cancel()

	session := ksuid.New().String()
	sourceAddress := remoteIP(conn.RemoteAddr())

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})

	defer stop()
	defer conn.Close()

	// The deadline bounds the whole login phase including keyboard-interactive prompts.
	if s.settings.HandshakeTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(s.settings.HandshakeTimeout))
	}

	level.Info(s.logger).Log(
		definitions.LogKeyMsg, "New connection",
		definitions.LogKeyGUID, session,
		definitions.LogKeyClientIP, sourceAddress,
		definitions.LogKeyClientPort, remotePort(conn.RemoteAddr()),
	)

	serverConn, chans, reqs, err := ssh.NewServerConn(conn, s.serverConfig(ctx, session, sourceAddress, cancel))
	if err != nil {
		level.Debug(s.logger).Log(
			definitions.LogKeyMsg, "Connection closed before authentication finished",
			definitions.LogKeyGUID, session,
			definitions.LogKeyError, err,
		)

		return
	}

	defer serverConn.Close()

	level.Info(s.logger).Log(
		definitions.LogKeyMsg, "Authenticated, rejecting session",
		definitions.LogKeyGUID, session,
		definitions.LogKeyUsername, serverConn.User(),
		definitions.LogKeyClientVersion, string(serverConn.ClientVersion()),
	)

	go ssh.DiscardRequests(reqs)

	if newChannel, ok := <-chans; ok {
		_ = newChannel.Reject(ssh.Prohibited, "administratively prohibited")
	}
}

func (s *Server) serverConfig(ctx context.Context, session string, sourceAddress string, abort func()) *ssh.ServerConfig {
	identity := func(meta ssh.ConnMetadata) checker.Identity {
		return checker.Identity{Username: meta.User(), SourceAddress: sourceAddress, Session: session}
	}

	decide := func(meta ssh.ConnMetadata, cred checker.Credential) (*ssh.Permissions, error) {
		outcome := s.currentChecker().Check(ctx, cred)

		level.Debug(s.logger).Log(
			definitions.LogKeyMsg, "Authentication attempt",
			definitions.LogKeyGUID, session,
			definitions.LogKeyUsername, meta.User(),
			definitions.LogKeyResult, outcome.String(),
		)

		switch outcome.Kind {
		case checker.OutcomeAccepted:
			return &ssh.Permissions{Extensions: map[string]string{definitions.LogKeyGUID: session}}, nil
		case checker.OutcomeRejected:
			return nil, errors.ErrUnauthorizedLogin
		default:
			return nil, fmt.Errorf("%w: %T", errors.ErrUnhandledCredential, cred)
		}
	}

	serverConfig := &ssh.ServerConfig{
		MaxAuthTries:  s.settings.MaxAuthTries,
		ServerVersion: s.settings.Version,
		PublicKeyCallback: func(meta ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			return decide(meta, &checker.PublicKey{Identity: identity(meta), Blob: key.Marshal()})
		},
		PasswordCallback: func(meta ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			return decide(meta, &checker.Password{Identity: identity(meta), Password: string(password)})
		},
		KeyboardInteractiveCallback: func(meta ssh.ConnMetadata, challenge ssh.KeyboardInteractiveChallenge) (*ssh.Permissions, error) {
			return decide(meta, &checker.Interactive{
				Identity: identity(meta),
				Conversation: &challengeConversation{
					challenge: challenge,
					user:      meta.User(),
					timeout:   s.settings.PromptTimeout,
					abort:     abort,
				},
			})
		},
	}

	if s.settings.AllowNoneAuth {
		serverConfig.NoClientAuth = true
		serverConfig.NoClientAuthCallback = func(meta ssh.ConnMetadata) (*ssh.Permissions, error) {
			return decide(meta, &checker.None{Identity: identity(meta)})
		}
	}

	for _, hostKey := range s.hostKeys {
		serverConfig.AddHostKey(hostKey)
	}

	return serverConfig
}

func remoteIP(addr net.Addr) string {
	if tcpAddr, ok := addr.(*net.TCPAddr); ok {
		return tcpAddr.IP.String()
	}

	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}

	return host
}

func remotePort(addr net.Addr) string {
	_, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return ""
	}

	return port
}
