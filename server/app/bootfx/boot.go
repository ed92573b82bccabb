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

package bootfx

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/croessner/honeyauth/server/backend"
	"github.com/croessner/honeyauth/server/config"
	"github.com/croessner/honeyauth/server/errors"
	"github.com/croessner/honeyauth/server/monitoring"
	"github.com/croessner/honeyauth/server/pwcrypto"

	"github.com/spf13/pflag"
)

// PrivateKeyEnv holds the private key for --decrypt so that it never appears in the process list.
const PrivateKeyEnv = "HONEYAUTH_PW_PRIVKEY"

// Flags are the command line options.
type Flags struct {
	ConfigPath  string
	Verbosity   config.Verbosity
	LogJSON     bool
	Keygen      bool
	Decrypt     bool
	Healthcheck bool
	Version     bool
}

// ParseFlags parses args without the program name.
func ParseFlags(args []string) (*Flags, error) {
	flags := &Flags{}

	fs := pflag.NewFlagSet("honeyauth", pflag.ContinueOnError)

	fs.StringVarP(&flags.ConfigPath, "config", "c", "", "path to the configuration file")
	fs.Var(&flags.Verbosity, "log-level", "override server.log.level (none, error, warn, info, debug)")
	fs.BoolVar(&flags.LogJSON, "log-json", false, "log in JSON format")
	fs.BoolVar(&flags.Keygen, "keygen", false, "print a new pw_pubkey key pair and exit")
	fs.BoolVar(&flags.Decrypt, "decrypt", false, "decrypt encpassword values read from stdin with $"+PrivateKeyEnv+" and exit")
	fs.BoolVar(&flags.Healthcheck, "healthcheck", false, "check that the ssh listener answers and exit")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return flags, nil
}

// Command runs the one-shot modes of the binary.
type Command struct {
	Stdin   io.Reader
	Stdout  io.Writer
	Getenv  func(string) string
	Version string
	Monitor monitoring.Monitor
}

// NewCommand returns a Command bound to the process streams.
func NewCommand(version string) *Command {
	return &Command{
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Getenv:  os.Getenv,
		Version: version,
		Monitor: monitoring.NewMonitor(),
	}
}

// LoadConfig reads the configuration named by flags. Strict auth_class checks use the built-in backends.
func LoadConfig(flags *Flags) (*config.File, error) {
	return config.NewConfigFile(flags.ConfigPath, backend.NewDefaultRegistry().Has)
}

// Run executes a one-shot mode. It reports false if the server should be started instead.
func (c *Command) Run(flags *Flags) (bool, error) {
	switch {
	case flags.Version:
		_, err := fmt.Fprintf(c.Stdout, "honeyauth %s\n", c.Version)

		return true, err
	case flags.Keygen:
		return true, c.keygen()
	case flags.Decrypt:
		return true, c.decrypt(flags)
	case flags.Healthcheck:
		return true, c.healthcheck(flags)
	default:
		return false, nil
	}
}

func (c *Command) keygen() error {
	publicKey, privateKey, err := pwcrypto.GenerateKeyPair()
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(c.Stdout, "pw_pubkey: %s\n%s=%s\n", publicKey, PrivateKeyEnv, privateKey)

	return err
}

func (c *Command) decrypt(flags *Flags) error {
	cfg, err := LoadConfig(flags)
	if err != nil {
		return err
	}

	publicKey := cfg.GetHoneypot().GetPasswordPublicKey()
	if publicKey == "" {
		return fmt.Errorf("%w: honeypot.pw_pubkey is not set", errors.ErrCryptoConfig)
	}

	privateKey := c.Getenv(PrivateKeyEnv)
	if privateKey == "" {
		return fmt.Errorf("%w: $%s is not set", errors.ErrDecryption, PrivateKeyEnv)
	}

	scanner := bufio.NewScanner(c.Stdin)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		plain, err := pwcrypto.Decrypt(line, publicKey, privateKey)
		if err != nil {
			return err
		}

		if _, err = fmt.Fprintf(c.Stdout, "%s\n", plain); err != nil {
			return err
		}
	}

	return scanner.Err()
}

func (c *Command) healthcheck(flags *Flags) error {
	cfg, err := LoadConfig(flags)
	if err != nil {
		return err
	}

	sshCfg := cfg.GetSSH()

	return c.Monitor.CheckSSHListener(dialAddress(sshCfg.GetAddress()), sshCfg.IsProxyProtocol())
}

// dialAddress maps a wildcard listen address to loopback.
func dialAddress(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}

	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		if ip != nil && ip.To4() == nil {
			host = "::1"
		} else {
			host = "127.0.0.1"
		}
	}

	return net.JoinHostPort(host, port)
}
