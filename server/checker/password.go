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
	"github.com/croessner/honeyauth/server/backend"
	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/errors"
	"github.com/croessner/honeyauth/server/log"
	monittrace "github.com/croessner/honeyauth/server/monitoring/trace"
	"github.com/croessner/honeyauth/server/pwcrypto"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"go.opentelemetry.io/otel/attribute"
)

// PasswordChecker verifies password and keyboard-interactive credentials against the configured backend and emits
// one audit record per evaluated secret.
type PasswordChecker struct {
	backend     backend.Backend
	backendName string
	crypto      *pwcrypto.PasswordCrypto
	sink        audit.Sink
	sensor      string
	logger      kitlog.Logger
	tracer      monittrace.Tracer
	now         func() time.Time
}

// NewPasswordChecker resolves the backend of deps.Cfg and prepares password encryption if pw_pubkey is set. An
// invalid pw_pubkey returns errors.ErrCryptoConfig.
func NewPasswordChecker(deps backend.Deps, resolver *backend.Resolver, sink audit.Sink) (*PasswordChecker, error) {
	honeypot := deps.Cfg.GetHoneypot()

	var crypto *pwcrypto.PasswordCrypto

	if honeypot.GetPasswordPublicKey() != "" {
		var err error

		if crypto, err = pwcrypto.New(honeypot.GetPasswordPublicKey()); err != nil {
			return nil, err
		}
	}

	resolved, err := resolver.NewBackend(deps)
	if err != nil {
		return nil, err
	}

	return &PasswordChecker{
		backend:     resolved,
		backendName: resolved.Name,
		crypto:      crypto,
		sink:        sink,
		sensor:      honeypot.GetSensorName(),
		logger:      deps.Logger,
		tracer:      monittrace.New("honeyauth/checker"),
		now:         time.Now,
	}, nil
}

// BackendName returns the identifier of the resolved backend.
func (p *PasswordChecker) BackendName() string {
	return p.backendName
}

func (p *PasswordChecker) Check(ctx context.Context, cred Credential) Outcome {
	switch c := cred.(type) {
	case *Password:
		if p.Evaluate(ctx, c.Identity, c.Password) {
			return Accepted(c.Username)
		}

		return Rejected(definitions.ReasonUnauthorized)
	case *Interactive:
		return p.checkInteractive(ctx, c)
	default:
		return Unsupported()
	}
}

// checkInteractive issues a single password prompt. The answers are evaluated in order and the first accepted one
// wins. A failed conversation counts as no answers.
func (p *PasswordChecker) checkInteractive(ctx context.Context, cred *Interactive) Outcome {
	var responses []string

	if cred.Conversation != nil {
		var err error

		responses, err = cred.Conversation.Issue(ctx, []Prompt{{Text: definitions.PasswordPrompt, Echo: false}})
		if err != nil {
			level.Debug(log.OrDefault(p.logger)).Log(
				definitions.LogKeyMsg, "keyboard-interactive round ended without answers",
				definitions.LogKeyGUID, cred.Session,
				definitions.LogKeyError, errors.ErrConversation,
				"reason", err,
			)

			responses = nil
		}
	}

	for _, response := range responses {
		if p.Evaluate(ctx, cred.Identity, response) {
			return Accepted(cred.Username)
		}
	}

	return Rejected(definitions.ReasonUnauthorized)
}

// Evaluate checks one secret. With pw_pubkey configured the record carries the sealed secret only, otherwise the
// plaintext. If ctx is done before the backend answered, no record is emitted and false is returned.
func (p *PasswordChecker) Evaluate(ctx context.Context, identity Identity, secret string) bool {
	ctx, sp := p.tracer.Start(ctx, "checker.evaluate",
		attribute.String(definitions.LogKeyBackend, p.backendName),
		attribute.String(definitions.LogKeyGUID, identity.Session),
	)

	defer sp.End()

	logger := log.OrDefault(p.logger)

	record := audit.Record{
		Session:       identity.Session,
		Username:      identity.Username,
		SourceAddress: identity.SourceAddress,
		Sensor:        p.sensor,
	}

	if p.crypto != nil {
		encrypted, err := p.crypto.Encrypt([]byte(secret))
		if err != nil {
			level.Error(logger).Log(
				definitions.LogKeyMsg, "rejecting attempt, password could not be sealed",
				definitions.LogKeyGUID, identity.Session,
				definitions.LogKeyError, err,
			)

			monittrace.Abandoned(sp, err)

			return false
		}

		record.EncPassword = encrypted
	} else {
		record.Password = secret
	}

	if err := ctx.Err(); err != nil {
		monittrace.Abandoned(sp, err)

		return false
	}

	ok := p.backend.CheckLogin(ctx, identity.Username, secret, identity.SourceAddress)

	if err := ctx.Err(); err != nil {
		monittrace.Abandoned(sp, err)

		return false
	}

	record.Kind = definitions.EventLoginFailed
	if ok {
		record.Kind = definitions.EventLoginSuccess
	}

	record.Timestamp = p.now()

	if err := p.sink.Emit(ctx, record); err != nil {
		level.Error(logger).Log(
			definitions.LogKeyMsg, "audit record not written",
			definitions.LogKeyGUID, identity.Session,
			definitions.LogKeyError, err,
		)
	}

	monittrace.Result(sp, ok)

	return ok
}

var _ Checker = (*PasswordChecker)(nil)
