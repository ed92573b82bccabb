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

package audit

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/croessner/honeyauth/server/config"
	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/errors"
	"github.com/croessner/honeyauth/server/stats"

	kitlog "github.com/go-kit/log"
	"github.com/go-redis/redismock/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(kind definitions.EventKind) Record {
	return Record{
		Kind:          kind,
		Session:       "2XYZ",
		Username:      "root",
		Password:      "toor",
		SourceAddress: "192.0.2.1",
		Timestamp:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Sensor:        "sensor-1",
	}
}

type failingSink struct{}

func (failingSink) Emit(_ context.Context, _ Record) error {
	return stderrors.New("disk full")
}

func TestMultiSinkIsolatesFailures(t *testing.T) {
	var buf bytes.Buffer

	collector := &Collector{}
	multi := NewMultiSink(kitlog.NewLogfmtLogger(&buf))

	multi.Add("broken", failingSink{})
	multi.Add("memory", collector)

	before := testutil.ToFloat64(stats.AuditSinkErrors.WithLabelValues("broken"))

	assert.NoError(t, multi.Emit(context.Background(), testRecord(definitions.EventLoginFailed)))
	assert.Len(t, collector.Records(), 1)
	assert.Equal(t, 2, multi.Len())
	assert.Contains(t, buf.String(), "disk full")
	assert.Equal(t, before+1, testutil.ToFloat64(stats.AuditSinkErrors.WithLabelValues("broken")))
}

func TestRecordKeyVals(t *testing.T) {
	record := testRecord(definitions.EventLoginSuccess)

	record.Password = ""
	record.EncPassword = "c2VhbGVk"

	keyvals := record.KeyVals()

	assert.Equal(t, "c2VhbGVk", keyValue(t, keyvals, definitions.LogKeyEncPassword))
	assert.Equal(t, "", keyValue(t, keyvals, definitions.LogKeyPassword))
	assert.NotContains(t, keyvals, definitions.LogKeyFingerprint)
	assert.Equal(t, 0, len(keyvals)%2)

	fingerprint := Record{Kind: definitions.EventFingerprintSeen, Fingerprint: "aa:bb", KeyType: "ssh-ed25519"}

	keyvals = fingerprint.KeyVals()

	assert.NotContains(t, keyvals, definitions.LogKeyPassword)
	assert.NotContains(t, keyvals, definitions.LogKeyEncPassword)
	assert.Equal(t, "aa:bb", keyValue(t, keyvals, definitions.LogKeyFingerprint))
}

func keyValue(t *testing.T, keyvals []any, key string) any {
	t.Helper()

	for i := 0; i < len(keyvals)-1; i += 2 {
		if keyvals[i] == key {
			return keyvals[i+1]
		}
	}

	t.Fatalf("key %q not found", key)

	return nil
}

func TestEmptyPasswordKeepsSchema(t *testing.T) {
	record := testRecord(definitions.EventLoginFailed)
	record.Password = ""

	payload, err := encodeRecord(record)
	require.NoError(t, err)

	var decoded map[string]any

	require.NoError(t, json.Unmarshal([]byte(payload), &decoded))

	assert.Contains(t, decoded, "password")
	assert.Contains(t, decoded, "encpassword")
	assert.Equal(t, "", decoded["password"])
	assert.Equal(t, "", decoded["encpassword"])
	assert.NotContains(t, decoded, "fingerprint")

	var buf bytes.Buffer

	require.NoError(t, NewLogSink(kitlog.NewLogfmtLogger(&buf)).Emit(context.Background(), record))
	assert.Contains(t, buf.String(), "username=root password= encpassword= src_ip=192.0.2.1")
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer

	sink := NewLogSink(kitlog.NewLogfmtLogger(&buf))

	require.NoError(t, sink.Emit(context.Background(), testRecord(definitions.EventLoginSuccess)))

	out := buf.String()

	assert.Contains(t, out, "eventid=login.success")
	assert.Contains(t, out, "username=root")
	assert.Contains(t, out, "password=toor")
	assert.Contains(t, out, "src_ip=192.0.2.1")
	assert.Contains(t, out, "session=2XYZ")
}

func TestJSONSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.json")

	sink, err := NewJSONSink(path)
	require.NoError(t, err)

	fingerprint := Record{
		Kind:          definitions.EventFingerprintSeen,
		Session:       "2XYZ",
		Username:      "root",
		Fingerprint:   "aa:bb",
		KeyType:       "ssh-ed25519",
		SourceAddress: "192.0.2.1",
		Timestamp:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, sink.Emit(context.Background(), testRecord(definitions.EventLoginFailed)))
	require.NoError(t, sink.Emit(context.Background(), fingerprint))
	require.NoError(t, sink.Close())

	file, err := os.Open(path)
	require.NoError(t, err)

	defer file.Close()

	var lines []map[string]any

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := map[string]any{}

		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))

		lines = append(lines, line)
	}

	require.Len(t, lines, 2)

	assert.Equal(t, "login.failed", lines[0]["eventid"])
	assert.Equal(t, "toor", lines[0]["password"])
	assert.Equal(t, "2024-05-01T12:00:00Z", lines[0]["timestamp"])
	assert.Contains(t, lines[0], "encpassword")
	assert.Equal(t, "", lines[0]["encpassword"])

	assert.Equal(t, "client.fingerprint", lines[1]["eventid"])
	assert.Equal(t, "aa:bb", lines[1]["fingerprint"])
	assert.Equal(t, "ssh-ed25519", lines[1]["key_type"])
	assert.NotContains(t, lines[1], "password")
	assert.NotContains(t, lines[1], "encpassword")
}

func TestRedisSink(t *testing.T) {
	db, mock := redismock.NewClientMock()
	record := testRecord(definitions.EventLoginFailed)

	payload, err := encodeRecord(record)
	require.NoError(t, err)

	mock.ExpectRPush("test:"+RedisAuditKey, payload).SetVal(1)
	mock.ExpectPublish("test:events", payload).SetVal(0)

	sink := NewRedisSink(db, "test:", "events")

	assert.NoError(t, sink.Emit(context.Background(), record))
	assert.NoError(t, mock.ExpectationsWereMet())

	var decoded map[string]any

	require.NoError(t, json.Unmarshal([]byte(payload), &decoded))
	assert.Equal(t, "login.failed", decoded["eventid"])
	assert.Equal(t, "192.0.2.1", decoded["src_ip"])
}

func TestMetricsSink(t *testing.T) {
	accepted := testutil.ToFloat64(stats.LoginsCounter.WithLabelValues(definitions.PromAccept))
	rejected := testutil.ToFloat64(stats.LoginsCounter.WithLabelValues(definitions.PromReject))
	keys := testutil.ToFloat64(stats.FingerprintsCounter.WithLabelValues("ssh-rsa"))

	sink := MetricsSink{}
	ctx := context.Background()

	require.NoError(t, sink.Emit(ctx, testRecord(definitions.EventLoginSuccess)))
	require.NoError(t, sink.Emit(ctx, testRecord(definitions.EventLoginFailed)))
	require.NoError(t, sink.Emit(ctx, testRecord(definitions.EventLoginFailed)))
	require.NoError(t, sink.Emit(ctx, Record{Kind: definitions.EventFingerprintSeen, KeyType: "ssh-rsa"}))

	assert.Equal(t, accepted+1, testutil.ToFloat64(stats.LoginsCounter.WithLabelValues(definitions.PromAccept)))
	assert.Equal(t, rejected+2, testutil.ToFloat64(stats.LoginsCounter.WithLabelValues(definitions.PromReject)))
	assert.Equal(t, keys+1, testutil.ToFloat64(stats.FingerprintsCounter.WithLabelValues("ssh-rsa")))
}

func TestNew(t *testing.T) {
	multi, err := New(&config.File{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, multi.Len())

	_, err = New(&config.File{Audit: &config.AuditSection{Sinks: []string{"syslog"}}}, nil, nil)
	assert.True(t, stderrors.Is(err, errors.ErrUnknownSink))

	_, err = New(&config.File{Audit: &config.AuditSection{Sinks: []string{definitions.SinkJSON}}}, nil, nil)
	assert.True(t, stderrors.Is(err, errors.ErrUnknownSink))

	_, err = New(&config.File{Audit: &config.AuditSection{Sinks: []string{definitions.SinkRedis}}}, nil, nil)
	assert.True(t, stderrors.Is(err, errors.ErrUnknownSink))

	db, _ := redismock.NewClientMock()

	multi, err = New(&config.File{Audit: &config.AuditSection{
		Sinks:    []string{definitions.SinkRedis, definitions.SinkJSON},
		JSONFile: filepath.Join(t.TempDir(), "audit.json"),
	}}, nil, db)
	require.NoError(t, err)
	assert.Equal(t, 2, multi.Len())
	assert.NoError(t, multi.Close())
}

func TestNeedsRedis(t *testing.T) {
	assert.False(t, NeedsRedis(&config.File{}))
	assert.True(t, NeedsRedis(&config.File{Audit: &config.AuditSection{Sinks: []string{definitions.SinkRedis}}}))
	assert.True(t, NeedsRedis(&config.File{Honeypot: &config.HoneypotSection{AuthClass: "Redis"}}))
}
