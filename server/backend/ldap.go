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

package backend

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/croessner/honeyauth/server/config"
	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/errors"
	"github.com/croessner/honeyauth/server/log"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-ldap/ldap/v3"
)

// LDAP verifies credentials with a simple bind against a directory. Each check opens its own connection.
type LDAP struct {
	serverURI string
	bindDN    string
	startTLS  bool
	timeout   time.Duration
	tlsConfig *tls.Config
	logger    kitlog.Logger
}

// NewLDAP is the Factory of the ldap backend.
func NewLDAP(deps Deps) (Backend, error) {
	ldapCfg := deps.Cfg.GetLDAP()

	if ldapCfg.GetServerURI() == "" {
		return nil, errors.ErrLDAPConfig.WithDetail("ldap.server_uri is required")
	}

	if strings.Count(ldapCfg.GetBindDN(), "%s") != 1 {
		return nil, errors.ErrLDAPConfig.WithDetail("ldap.bind_dn must contain exactly one %s")
	}

	tlsConfig, err := newLDAPTLSConfig(ldapCfg)
	if err != nil {
		return nil, errors.ErrLDAPConfig.WithDetail(err.Error())
	}

	return &LDAP{
		serverURI: ldapCfg.GetServerURI(),
		bindDN:    ldapCfg.GetBindDN(),
		startTLS:  ldapCfg.IsStartTLS(),
		timeout:   ldapCfg.GetTimeout(),
		tlsConfig: tlsConfig,
		logger:    log.OrDefault(deps.Logger),
	}, nil
}

func newLDAPTLSConfig(ldapCfg *config.LDAPSection) (*tls.Config, error) {
	u, err := url.Parse(ldapCfg.GetServerURI())
	if err != nil {
		return nil, err
	}

	host := u.Host

	if strings.Contains(u.Host, ":") {
		host, _, err = net.SplitHostPort(u.Host)
		if err != nil {
			return nil, err
		}
	}

	return &tls.Config{
		InsecureSkipVerify: ldapCfg.IsTLSSkipVerify(),
		ServerName:         host,
	}, nil
}

// CheckLogin implements Backend.
func (l *LDAP) CheckLogin(ctx context.Context, username string, password string, _ string) bool {
	// An empty password would be an anonymous bind.
	if username == "" || password == "" {
		return false
	}

	conn, err := l.dial(ctx)
	if err != nil {
		level.Error(l.logger).Log(
			definitions.LogKeyMsg, "ldap connect failed",
			definitions.LogKeyError, errors.ErrLDAPConnect.WithDetail(err.Error()),
		)

		return false
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})

	defer func() {
		stop()

		_ = conn.Close()
	}()

	if err = conn.Bind(fmt.Sprintf(l.bindDN, ldap.EscapeDN(username)), password); err != nil {
		if !ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			level.Warn(l.logger).Log(
				definitions.LogKeyMsg, "ldap bind failed",
				definitions.LogKeyUsername, username,
				definitions.LogKeyError, err,
			)
		}

		return false
	}

	return true
}

func (l *LDAP) dial(ctx context.Context) (*ldap.Conn, error) {
	dialer := &net.Dialer{Timeout: l.timeout}

	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}

	options := []ldap.DialOpt{ldap.DialWithDialer(dialer)}

	if strings.HasPrefix(strings.ToLower(l.serverURI), "ldaps://") {
		options = append(options, ldap.DialWithTLSConfig(l.tlsConfig))
	}

	conn, err := ldap.DialURL(l.serverURI, options...)
	if err != nil {
		return nil, err
	}

	conn.SetTimeout(l.timeout)

	if l.startTLS {
		if err = conn.StartTLS(l.tlsConfig); err != nil {
			_ = conn.Close()

			return nil, err
		}
	}

	return conn, nil
}
