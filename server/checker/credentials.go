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

// Identity is shared by all credential variants.
type Identity struct {
	Username      string
	SourceAddress string
	Session       string
}

// GetIdentity returns the identity of a credential.
func (i Identity) GetIdentity() Identity {
	return i
}

// Credential is one of *PublicKey, *None, *Password or *Interactive. The set is closed.
type Credential interface {
	GetIdentity() Identity
	isCredential()
}

// PublicKey is an offered public key in SSH wire format.
type PublicKey struct {
	Identity
	Blob []byte
}

// None is an attempt without any secret.
type None struct {
	Identity
}

// Password is a plaintext password attempt.
type Password struct {
	Identity
	Password string
}

// Interactive is a keyboard-interactive attempt. The responses are obtained through the Conversation.
type Interactive struct {
	Identity
	Conversation Conversation
}

func (*PublicKey) isCredential()   {}
func (*None) isCredential()        {}
func (*Password) isCredential()    {}
func (*Interactive) isCredential() {}

// Prompt is a single challenge of a keyboard-interactive round.
type Prompt struct {
	Text string
	Echo bool
}

// Conversation issues one round of prompts to the client and returns the answers in order. Implementations must
// return when ctx is done.
type Conversation interface {
	Issue(ctx context.Context, prompts []Prompt) ([]string, error)
}

// ConversationFunc adapts a function to the Conversation interface.
type ConversationFunc func(ctx context.Context, prompts []Prompt) ([]string, error)

func (f ConversationFunc) Issue(ctx context.Context, prompts []Prompt) ([]string, error) {
	return f(ctx, prompts)
}
