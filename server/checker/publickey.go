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

package checker

import (
	"context"
	"time"

	"github.com/croessner/honeyauth/server/audit"
	"github.com/croessner/honeyauth/server/config"
	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/errors"
	"github.com/croessner/honeyauth/server/log"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/crypto/ssh"
)

// PublicKeyChecker records the fingerprint of every offered key and rejects it, so clients fall back to password
// authentication.
type PublicKeyChecker struct {
	sink   audit.Sink
	sensor string
	logger kitlog.Logger
	now    func() time.Time
}

// NewPublicKeyChecker returns a PublicKeyChecker emitting to sink.
func NewPublicKeyChecker(cfg *config.File, sink audit.Sink, logger kitlog.Logger) *PublicKeyChecker {
	return &PublicKeyChecker{
		sink:   sink,
		sensor: cfg.GetHoneypot().GetSensorName(),
		logger: logger,
		now:    time.Now,
	}
}

func (p *PublicKeyChecker) Check(ctx context.Context, cred Credential) Outcome {
	publicKey, ok := cred.(*PublicKey)
	if !ok {
		return Unsupported()
	}

	logger := log.OrDefault(p.logger)

	key, err := ssh.ParsePublicKey(publicKey.Blob)
	if err != nil {
		level.Warn(logger).Log(
			definitions.LogKeyMsg, "unparseable public key",
			definitions.LogKeyGUID, publicKey.Session,
			definitions.LogKeyUsername, publicKey.Username,
			definitions.LogKeyClientIP, publicKey.SourceAddress,
			definitions.LogKeyError, errors.ErrMalformedKey,
			"reason", err,
		)

		return Rejected(definitions.ReasonMalformedKey)
	}

	fingerprint := ssh.FingerprintLegacyMD5(key)

	level.Debug(logger).Log(
		definitions.LogKeyMsg, "public key offered",
		definitions.LogKeyGUID, publicKey.Session,
		definitions.LogKeyFingerprint, fingerprint,
		definitions.LogKeyFingerprintSHA256, ssh.FingerprintSHA256(key),
		definitions.LogKeyKeyType, key.Type(),
	)

	err = p.sink.Emit(ctx, audit.Record{
		Kind:          definitions.EventFingerprintSeen,
		Session:       publicKey.Session,
		Username:      publicKey.Username,
		Fingerprint:   fingerprint,
		KeyType:       key.Type(),
		SourceAddress: publicKey.SourceAddress,
		Timestamp:     p.now(),
		Sensor:        p.sensor,
	})
	if err != nil {
		level.Error(logger).Log(
			definitions.LogKeyMsg, "audit record not written",
			definitions.LogKeyGUID, publicKey.Session,
			definitions.LogKeyError, err,
		)
	}

	return Rejected(definitions.ReasonSignatureRejected)
}

var _ Checker = (*PublicKeyChecker)(nil)
