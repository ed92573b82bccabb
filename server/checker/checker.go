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

import "context"

// Checker evaluates one category of credentials.
type Checker interface {
	Check(ctx context.Context, cred Credential) Outcome
}

// Chain tries its checkers in order and returns the first outcome that is not unsupported.
type Chain []Checker

// NewChain returns a Chain of the given checkers.
func NewChain(checkers ...Checker) Chain {
	return checkers
}

func (c Chain) Check(ctx context.Context, cred Credential) Outcome {
	for _, checker := range c {
		if outcome := checker.Check(ctx, cred); outcome.Kind != OutcomeUnsupported {
			return outcome
		}
	}

	return Unsupported()
}

type restricted struct {
	checker Checker
	handles func(Credential) bool
}

func (r restricted) Check(ctx context.Context, cred Credential) Outcome {
	if !r.handles(cred) {
		return Unsupported()
	}

	return r.checker.Check(ctx, cred)
}

// Restrict limits checker to the credentials for which handles returns true. Other credentials are unsupported.
func Restrict(checker Checker, handles func(Credential) bool) Checker {
	return restricted{checker: checker, handles: handles}
}

// IsNone reports whether cred is a *None credential.
func IsNone(cred Credential) bool {
	_, ok := cred.(*None)

	return ok
}

var _ Checker = Chain(nil)
