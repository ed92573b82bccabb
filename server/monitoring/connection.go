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

package monitoring

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/errors"
	"github.com/croessner/honeyauth/server/log"

	"github.com/go-kit/log/level"
	"github.com/pires/go-proxyproto"
)

// Monitor checks whether a listener is able to serve clients.
type Monitor interface {
	// CheckSSHListener connects to address and waits for the SSH identification line.
	CheckSSHListener(address string, proxyProtocol bool) error
}

// ConnMonitor dials the listener once. It does not retry and closes the connection before returning.
type ConnMonitor struct {
	Timeout time.Duration
}

var _ Monitor = (*ConnMonitor)(nil)

// NewMonitor returns a Monitor with the default timeout.
func NewMonitor() Monitor {
	return &ConnMonitor{Timeout: 5 * time.Second}
}

// CheckSSHListener connects to address, sends a PROXY v2 LOCAL header if the listener expects one and reads the
// server identification line.
func (m ConnMonitor) CheckSSHListener(address string, proxyProtocol bool) error {
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrSSHHealthcheck, err)
	}

	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(timeout))

	if proxyProtocol {
		if err = writeLocalHeader(conn); err != nil {
			return fmt.Errorf("%w: %w", errors.ErrSSHHealthcheck, err)
		}
	}

	return readBanner(bufio.NewReader(conn))
}

// readBanner skips pre-banner lines as allowed by RFC 4253 section 4.2.
func readBanner(r *bufio.Reader) error {
	for range 16 {
		line, err := r.ReadString('\n')
		if err != nil {
			return fmt.Errorf("%w: %w", errors.ErrSSHHealthcheck, err)
		}

		if strings.HasPrefix(line, "SSH-2.0-") {
			return nil
		}
	}

	return errors.ErrNoSSHBanner
}

func writeLocalHeader(conn net.Conn) error {
	header := &proxyproto.Header{
		Command:           proxyproto.LOCAL,
		Version:           2,
		TransportProtocol: proxyproto.UNSPEC,
	}

	_, err := header.WriteTo(conn)
	if err != nil {
		level.Error(log.Logger).Log(definitions.LogKeyMsg, "PROXY v2 header error", definitions.LogKeyError, err)
	}

	return err
}
