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
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/croessner/honeyauth/server/audit"
	"github.com/croessner/honeyauth/server/backend"
	"github.com/croessner/honeyauth/server/config"
	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/errors"
	"github.com/croessner/honeyauth/server/pwcrypto"

	kitlog "github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type call struct {
	username string
	password string
}

// fakeBackend accepts the configured pairs and records every call.
type fakeBackend struct {
	mu      sync.Mutex
	accept  map[call]bool
	calls   []call
	onCheck func(ctx context.Context)
}

func (f *fakeBackend) CheckLogin(ctx context.Context, username string, password string, _ string) bool {
	if f.onCheck != nil {
		f.onCheck(ctx)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call{username: username, password: password})

	return f.accept[call{username: username, password: password}]
}

func (f *fakeBackend) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]call(nil), f.calls...)
}

func newFakeBackend(pairs ...call) *fakeBackend {
	accept := make(map[call]bool)

	for _, pair := range pairs {
		accept[pair] = true
	}

	return &fakeBackend{accept: accept}
}

func newResolver(t *testing.T, fake *fakeBackend, logger kitlog.Logger) *backend.Resolver {
	t.Helper()

	registry := backend.NewRegistry()

	require.NoError(t, registry.Register(definitions.DefaultBackendName, func(_ backend.Deps) (backend.Backend, error) {
		return fake, nil
	}))

	return backend.NewResolver(registry, logger)
}

func newPasswordChecker(t *testing.T, cfg *config.File, fake *fakeBackend) (*PasswordChecker, *audit.Collector) {
	t.Helper()

	collector := &audit.Collector{}

	checker, err := NewPasswordChecker(backend.Deps{Cfg: cfg}, newResolver(t, fake, nil), collector)
	require.NoError(t, err)

	checker.now = func() time.Time { return fixedTime }

	return checker, collector
}

func identity(username string) Identity {
	return Identity{Username: username, SourceAddress: "192.0.2.1", Session: "2XYZ"}
}

func answers(responses ...string) ConversationFunc {
	return func(_ context.Context, prompts []Prompt) ([]string, error) {
		if len(prompts) != 1 || prompts[0].Text != definitions.PasswordPrompt || prompts[0].Echo {
			return nil, stderrors.New("unexpected prompts")
		}

		return responses, nil
	}
}

func TestPasswordAccepted(t *testing.T) {
	fake := newFakeBackend(call{"root", "letmein"})
	checker, collector := newPasswordChecker(t, &config.File{}, fake)

	outcome := checker.Check(context.Background(), &Password{Identity: identity("root"), Password: "letmein"})

	assert.Equal(t, Accepted("root"), outcome)

	records := collector.Records()
	require.Len(t, records, 1)

	assert.Equal(t, audit.Record{
		Kind:          definitions.EventLoginSuccess,
		Session:       "2XYZ",
		Username:      "root",
		Password:      "letmein",
		SourceAddress: "192.0.2.1",
		Timestamp:     fixedTime,
		Sensor:        definitions.DefaultSensorName,
	}, records[0])
}

func TestPasswordRejected(t *testing.T) {
	fake := newFakeBackend(call{"root", "letmein"})
	checker, collector := newPasswordChecker(t, &config.File{}, fake)

	outcome := checker.Check(context.Background(), &Password{Identity: identity("root"), Password: "wrong"})

	assert.Equal(t, Rejected(definitions.ReasonUnauthorized), outcome)

	records := collector.Records()
	require.Len(t, records, 1)

	assert.Equal(t, definitions.EventLoginFailed, records[0].Kind)
	assert.Equal(t, "wrong", records[0].Password)
	assert.Empty(t, records[0].EncPassword)
}

func TestUnknownUserAndWrongPasswordLookAlike(t *testing.T) {
	fake := newFakeBackend(call{"root", "letmein"})
	checker, _ := newPasswordChecker(t, &config.File{}, fake)
	ctx := context.Background()

	unknownUser := checker.Check(ctx, &Password{Identity: identity("nobody"), Password: "letmein"})
	wrongPassword := checker.Check(ctx, &Password{Identity: identity("root"), Password: "wrong"})

	assert.Equal(t, unknownUser, wrongPassword)
}

func TestInteractiveSecondResponseAccepted(t *testing.T) {
	fake := newFakeBackend(call{"root", "r2"})
	checker, collector := newPasswordChecker(t, &config.File{}, fake)

	outcome := checker.Check(context.Background(), &Interactive{Identity: identity("root"), Conversation: answers("r1", "r2")})

	assert.Equal(t, Accepted("root"), outcome)
	assert.Equal(t, []call{{"root", "r1"}, {"root", "r2"}}, fake.Calls())

	records := collector.Records()
	require.Len(t, records, 2)

	assert.Equal(t, definitions.EventLoginFailed, records[0].Kind)
	assert.Equal(t, "r1", records[0].Password)
	assert.Equal(t, definitions.EventLoginSuccess, records[1].Kind)
	assert.Equal(t, "r2", records[1].Password)
}

func TestInteractiveStopsAtFirstAccepted(t *testing.T) {
	fake := newFakeBackend(call{"root", "r1"}, call{"root", "r2"})
	checker, collector := newPasswordChecker(t, &config.File{}, fake)

	outcome := checker.Check(context.Background(), &Interactive{Identity: identity("root"), Conversation: answers("r1", "r2")})

	assert.Equal(t, Accepted("root"), outcome)
	assert.Equal(t, []call{{"root", "r1"}}, fake.Calls())
	assert.Len(t, collector.Records(), 1)
}

func TestInteractiveWithoutAnswers(t *testing.T) {
	tests := []struct {
		name         string
		conversation Conversation
	}{
		{name: "No responses", conversation: answers()},
		{name: "Conversation error", conversation: ConversationFunc(func(context.Context, []Prompt) ([]string, error) {
			return nil, context.DeadlineExceeded
		})},
		{name: "No conversation", conversation: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeBackend(call{"root", ""})
			checker, collector := newPasswordChecker(t, &config.File{}, fake)

			outcome := checker.Check(context.Background(), &Interactive{Identity: identity("root"), Conversation: tt.conversation})

			assert.Equal(t, Rejected(definitions.ReasonUnauthorized), outcome)
			assert.Empty(t, fake.Calls())
			assert.Empty(t, collector.Records())
		})
	}
}

func TestPasswordCheckerUnsupported(t *testing.T) {
	checker, collector := newPasswordChecker(t, &config.File{}, newFakeBackend())
	ctx := context.Background()

	assert.Equal(t, Unsupported(), checker.Check(ctx, &None{Identity: identity("root")}))
	assert.Equal(t, Unsupported(), checker.Check(ctx, &PublicKey{Identity: identity("root")}))
	assert.Empty(t, collector.Records())
}

func TestEvaluateIdempotent(t *testing.T) {
	fake := newFakeBackend(call{"root", "letmein"})
	checker, collector := newPasswordChecker(t, &config.File{}, fake)
	ctx := context.Background()

	first := checker.Evaluate(ctx, identity("root"), "letmein")
	second := checker.Evaluate(ctx, identity("root"), "letmein")

	assert.Equal(t, first, second)

	records := collector.Records()
	require.Len(t, records, 2)
	assert.Equal(t, records[0], records[1])
}

func TestEvaluateEncryptsPassword(t *testing.T) {
	publicKey, privateKey, err := pwcrypto.GenerateKeyPair()
	require.NoError(t, err)

	cfg := &config.File{Honeypot: &config.HoneypotSection{PasswordPublicKey: publicKey}}
	fake := newFakeBackend(call{"root", "letmein"})
	checker, collector := newPasswordChecker(t, cfg, fake)
	ctx := context.Background()

	for _, secret := range []string{"letmein", "letmein", "wrong", ""} {
		checker.Evaluate(ctx, identity("root"), secret)
	}

	records := collector.Records()
	require.Len(t, records, 4)

	// Ciphertext is randomized.
	assert.NotEqual(t, records[0].EncPassword, records[1].EncPassword)

	for i, secret := range []string{"letmein", "letmein", "wrong", ""} {
		assert.Empty(t, records[i].Password)
		require.NotEmpty(t, records[i].EncPassword)

		plain, err := pwcrypto.Decrypt(records[i].EncPassword, publicKey, privateKey)
		require.NoError(t, err)

		assert.Equal(t, secret, string(plain))
	}

	assert.Equal(t, definitions.EventLoginSuccess, records[0].Kind)
	assert.Equal(t, definitions.EventLoginFailed, records[2].Kind)
}

func TestNewPasswordCheckerInvalidKey(t *testing.T) {
	cfg := &config.File{Honeypot: &config.HoneypotSection{PasswordPublicKey: "bm90LWEta2V5"}}

	_, err := NewPasswordChecker(backend.Deps{Cfg: cfg}, newResolver(t, newFakeBackend(), nil), &audit.Collector{})

	assert.True(t, stderrors.Is(err, errors.ErrCryptoConfig))
}

func TestUnknownAuthClassFallsBack(t *testing.T) {
	var buf bytes.Buffer

	fake := newFakeBackend(call{"root", "letmein"})
	cfg := &config.File{Honeypot: &config.HoneypotSection{AuthClass: "nonexistent"}}
	collector := &audit.Collector{}

	checker, err := NewPasswordChecker(backend.Deps{Cfg: cfg}, newResolver(t, fake, kitlog.NewLogfmtLogger(&buf)), collector)
	require.NoError(t, err)

	assert.Equal(t, definitions.DefaultBackendName, checker.BackendName())
	assert.Contains(t, buf.String(), "auth_class not found")

	outcome := checker.Check(context.Background(), &Password{Identity: identity("root"), Password: "letmein"})

	assert.Equal(t, Accepted("root"), outcome)
	assert.Len(t, fake.Calls(), 1)
}

func TestEvaluateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	fake := newFakeBackend(call{"root", "letmein"})
	fake.onCheck = func(context.Context) { cancel() }

	checker, collector := newPasswordChecker(t, &config.File{}, fake)

	assert.False(t, checker.Evaluate(ctx, identity("root"), "letmein"))
	assert.Empty(t, collector.Records())

	// A context that is already done never reaches the backend.
	assert.False(t, checker.Evaluate(ctx, identity("root"), "letmein"))
	assert.Len(t, fake.Calls(), 1)
}

func newPublicKeyBlob(t *testing.T) []byte {
	t.Helper()

	public, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	key, err := ssh.NewPublicKey(public)
	require.NoError(t, err)

	return key.Marshal()
}

func TestPublicKeyChecker(t *testing.T) {
	collector := &audit.Collector{}
	checker := NewPublicKeyChecker(&config.File{}, collector, nil)
	blob := newPublicKeyBlob(t)
	ctx := context.Background()

	first := checker.Check(ctx, &PublicKey{Identity: identity("root"), Blob: blob})
	second := checker.Check(ctx, &PublicKey{Identity: identity("admin"), Blob: blob})

	assert.Equal(t, Rejected(definitions.ReasonSignatureRejected), first)
	assert.Equal(t, first, second)

	records := collector.Records()
	require.Len(t, records, 2)

	key, err := ssh.ParsePublicKey(blob)
	require.NoError(t, err)

	assert.Equal(t, definitions.EventFingerprintSeen, records[0].Kind)
	assert.Equal(t, ssh.FingerprintLegacyMD5(key), records[0].Fingerprint)
	assert.Equal(t, records[0].Fingerprint, records[1].Fingerprint)
	assert.Equal(t, ssh.KeyAlgoED25519, records[0].KeyType)
	assert.Equal(t, "root", records[0].Username)
	assert.Equal(t, "192.0.2.1", records[0].SourceAddress)
	assert.Regexp(t, `^([0-9a-f]{2}:){15}[0-9a-f]{2}$`, records[0].Fingerprint)
}

func TestPublicKeyCheckerMalformed(t *testing.T) {
	collector := &audit.Collector{}
	checker := NewPublicKeyChecker(&config.File{}, collector, nil)

	outcome := checker.Check(context.Background(), &PublicKey{Identity: identity("root"), Blob: []byte("garbage")})

	assert.Equal(t, Rejected(definitions.ReasonMalformedKey), outcome)
	assert.Empty(t, collector.Records())
	assert.Equal(t, Unsupported(), checker.Check(context.Background(), &Password{Identity: identity("root")}))
}

type failingSink struct{}

func (failingSink) Emit(_ context.Context, _ audit.Record) error {
	return stderrors.New("disk full")
}

func TestSinkErrorsAreLogged(t *testing.T) {
	var buf bytes.Buffer

	logger := kitlog.NewLogfmtLogger(&buf)
	fake := newFakeBackend(call{username: "root", password: "toor"})

	password, err := NewPasswordChecker(backend.Deps{Cfg: &config.File{}, Logger: logger}, newResolver(t, fake, logger), failingSink{})
	require.NoError(t, err)

	assert.True(t, password.Evaluate(context.Background(), identity("root"), "toor"))
	assert.Contains(t, buf.String(), "audit record not written")
	assert.Contains(t, buf.String(), "disk full")

	buf.Reset()

	publicKey := NewPublicKeyChecker(&config.File{}, failingSink{}, logger)

	outcome := publicKey.Check(context.Background(), &PublicKey{Identity: identity("root"), Blob: newPublicKeyBlob(t)})

	assert.Equal(t, Rejected(definitions.ReasonSignatureRejected), outcome)
	assert.Contains(t, buf.String(), "audit record not written")
}

func TestNoneChecker(t *testing.T) {
	ctx := context.Background()
	credentials := []Credential{
		&None{Identity: identity("root")},
		&Password{Identity: identity("root"), Password: "x"},
		&PublicKey{Identity: identity("root")},
		&Interactive{Identity: identity("root")},
	}

	for _, cred := range credentials {
		assert.Equal(t, Accepted("root"), NoneChecker{}.Check(ctx, cred))
	}
}

func TestChain(t *testing.T) {
	collector := &audit.Collector{}
	fake := newFakeBackend(call{"root", "letmein"})
	password, _ := newPasswordChecker(t, &config.File{}, fake)
	chain := NewChain(NewPublicKeyChecker(&config.File{}, collector, nil), Restrict(NoneChecker{}, IsNone), password)
	ctx := context.Background()

	assert.Equal(t, Accepted("root"), chain.Check(ctx, &None{Identity: identity("root")}))
	assert.Equal(t, Accepted("root"), chain.Check(ctx, &Password{Identity: identity("root"), Password: "letmein"}))
	assert.Equal(t, Rejected(definitions.ReasonUnauthorized), chain.Check(ctx, &Password{Identity: identity("root"), Password: "x"}))
	assert.Equal(t, Rejected(definitions.ReasonSignatureRejected), chain.Check(ctx, &PublicKey{Identity: identity("root"), Blob: newPublicKeyBlob(t)}))

	withoutNone := NewChain(password)

	assert.Equal(t, Unsupported(), withoutNone.Check(ctx, &None{Identity: identity("root")}))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "accepted(root)", Accepted("root").String())
	assert.Equal(t, "rejected(unauthorized)", Rejected(definitions.ReasonUnauthorized).String())
	assert.Equal(t, "unsupported", Unsupported().String())
	assert.True(t, Accepted("root").IsAccepted())
	assert.False(t, Rejected("x").IsAccepted())
}
