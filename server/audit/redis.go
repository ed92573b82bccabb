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

	"github.com/croessner/honeyauth/server/rediscli"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

// RedisAuditKey is appended to the configured prefix and holds the list of all records.
const RedisAuditKey = "audit"

var json = jsoniter.ConfigFastest

// RedisSink appends every record to a list and publishes it on a channel.
type RedisSink struct {
	client  redis.UniversalClient
	key     string
	channel string
}

// NewRedisSink returns a RedisSink. The list key is prefix + RedisAuditKey and the channel is prefix + channel.
func NewRedisSink(client redis.UniversalClient, prefix string, channel string) *RedisSink {
	return &RedisSink{
		client:  client,
		key:     prefix + RedisAuditKey,
		channel: prefix + channel,
	}
}

func encodeRecord(record Record) (string, error) {
	payload, err := json.Marshal(record.event())
	if err != nil {
		return "", err
	}

	return string(payload), nil
}

func (s *RedisSink) Emit(ctx context.Context, record Record) error {
	payload, err := encodeRecord(record)
	if err != nil {
		return err
	}

	_, err = rediscli.ExecutePipeline(ctx, s.client, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, s.key, payload)
		pipe.Publish(ctx, s.channel, payload)

		return nil
	})

	return err
}
