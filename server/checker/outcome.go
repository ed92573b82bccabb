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

import "fmt"

// OutcomeKind is the decision of a checker.
type OutcomeKind uint8

const (
	// OutcomeUnsupported means the checker does not handle the credential variant.
	OutcomeUnsupported OutcomeKind = iota

	// OutcomeAccepted means the credential was accepted.
	OutcomeAccepted

	// OutcomeRejected means the credential was rejected.
	OutcomeRejected
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unsupported"
	}
}

// Outcome is returned by every checker. Username is set for accepted outcomes, Reason for rejected ones.
type Outcome struct {
	Kind     OutcomeKind
	Username string
	Reason   string
}

func Accepted(username string) Outcome {
	return Outcome{Kind: OutcomeAccepted, Username: username}
}

func Rejected(reason string) Outcome {
	return Outcome{Kind: OutcomeRejected, Reason: reason}
}

func Unsupported() Outcome {
	return Outcome{Kind: OutcomeUnsupported}
}

func (o Outcome) IsAccepted() bool {
	return o.Kind == OutcomeAccepted
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeAccepted:
		return fmt.Sprintf("accepted(%s)", o.Username)
	case OutcomeRejected:
		return fmt.Sprintf("rejected(%s)", o.Reason)
	default:
		return o.Kind.String()
	}
}
