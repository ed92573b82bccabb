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
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/errors"
	"github.com/croessner/honeyauth/server/log"
	"github.com/croessner/honeyauth/server/util/keygen"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/crypto/ssh"
)

const rsaHostKeyBits = 3072

// LoadHostKeys returns the ed25519 host key stored at path and the RSA host key stored at path + ".rsa". Missing
// keys are generated and written.
func LoadHostKeys(path string, logger kitlog.Logger) ([]ssh.Signer, error) {
	logger = log.OrDefault(logger)

	ed25519Key, err := loadOrCreate(path, keygen.GenerateEd25519Key, logger)
	if err != nil {
		return nil, err
	}

	rsaKey, err := loadOrCreate(path+".rsa", func() (string, error) { return keygen.GenerateRSAKey(rsaHostKeyBits) }, logger)
	if err != nil {
		return nil, err
	}

	return []ssh.Signer{ed25519Key, rsaKey}, nil
}

func loadOrCreate(path string, generate func() (string, error), logger kitlog.Logger) (ssh.Signer, error) {
	keyPEM, err := os.ReadFile(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		var generated string

		if generated, err = generate(); err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrHostKey, err)
		}

		if err = os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrHostKey, err)
		}

		if err = os.WriteFile(path, []byte(generated), 0o600); err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrHostKey, err)
		}

		level.Info(logger).Log(definitions.LogKeyMsg, "Generated new host key", "path", path)

		keyPEM = []byte(generated)
	} else if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrHostKey, err)
	}

	signer, err := ssh.ParsePrivateKey(keyPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrHostKey, path, err)
	}

	return signer, nil
}
