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
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// JSONSink appends one JSON object per record to a file.
type JSONSink struct {
	logger *zap.Logger
	file   *os.File
}

// NewJSONSink opens path for appending.
func NewJSONSink(path string) (*JSONSink, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o640)
	if err != nil {
		return nil, err
	}

	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     "message",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.Lock(file), zapcore.InfoLevel)

	return &JSONSink{logger: zap.New(core), file: file}, nil
}

func (s *JSONSink) Emit(_ context.Context, record Record) error {
	e := record.event()

	fields := []zap.Field{
		zap.String("eventid", e.EventID),
		zap.String("session", e.Session),
		zap.String("username", e.Username),
	}

	if e.Password != nil {
		fields = append(fields, zap.String("password", *e.Password), zap.String("encpassword", *e.EncPassword))
	}

	if e.Fingerprint != "" {
		fields = append(fields, zap.String("fingerprint", e.Fingerprint), zap.String("key_type", e.KeyType))
	}

	fields = append(fields,
		zap.String("src_ip", e.SourceIP),
		zap.String("timestamp", e.Timestamp),
		zap.String("sensor", e.Sensor),
	)

	s.logger.Info(messageFor(record.Kind), fields...)

	return nil
}

// Close flushes and closes the file.
func (s *JSONSink) Close() error {
	_ = s.logger.Sync()

	return s.file.Close()
}
