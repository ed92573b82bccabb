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

package backend

import "context"

// Static accepts every attempt. It turns the service into a pure capture sensor.
type Static struct{}

// NewStatic is the Factory of the static backend.
func NewStatic(_ Deps) (Backend, error) {
	return Static{}, nil
}

func (Static) CheckLogin(_ context.Context, _ string, _ string, _ string) bool {
	return true
}
