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

package rediscli

import (
	"context"

	monittrace "github.com/croessner/honeyauth/server/monitoring/trace"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// PipelineFunc is a function that queues Redis commands on a pipeline.
type PipelineFunc func(pipe redis.Pipeliner) error

// ExecutePipeline runs the commands queued by fn in a single round trip.
func ExecutePipeline(ctx context.Context, client redis.UniversalClient, fn PipelineFunc) ([]redis.Cmder, error) {
	tr := monittrace.New("honeyauth/redis")
	pctx, sp := tr.Start(ctx, "redis.pipeline.exec")

	defer sp.End()

	pipe := client.Pipeline()

	if err := fn(pipe); err != nil {
		sp.RecordError(err)

		return nil, err
	}

	sp.SetAttributes(attribute.Int("op_count", pipe.Len()))

	cmds, err := pipe.Exec(pctx)
	if err != nil {
		sp.RecordError(err)
	}

	return cmds, err
}
