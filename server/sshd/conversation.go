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
	"context"
	"time"

	"github.com/croessner/honeyauth/server/checker"

	"golang.org/x/crypto/ssh"
)

// challengeConversation runs a keyboard-interactive round over the SSH connection.
type challengeConversation struct {
	challenge ssh.KeyboardInteractiveChallenge
	user      string
	timeout   time.Duration
	abort     func()
}

type challengeResult struct {
	answers []string
	err     error
}

// Issue sends the prompts and waits for the answers. If ctx is done or the timeout elapses first, abort is called
// to close the connection and the context error is returned.
func (c *challengeConversation) Issue(ctx context.Context, prompts []checker.Prompt) ([]string, error) {
	questions := make([]string, len(prompts))
	echos := make([]bool, len(prompts))

	for i, prompt := range prompts {
		questions[i] = prompt.Text
		echos[i] = prompt.Echo
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.timeout)

		defer cancel()
	}

	result := make(chan challengeResult, 1)

	go func() {
		answers, err := c.challenge(c.user, "", questions, echos)

		result <- challengeResult{answers: answers, err: err}
	}()

	select {
	case res := <-result:
		return res.answers, res.err
	case <-ctx.Done():
		// The reader goroutine is blocked on the transport. Closing the connection releases it.
		if c.abort != nil {
			c.abort()
		}

		return nil, ctx.Err()
	}
}

var _ checker.Conversation = (*challengeConversation)(nil)
