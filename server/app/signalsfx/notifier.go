// Copyright (C) 2025 Christian Rößner
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

package signalsfx

import (
	"os"
	"os/signal"
	"syscall"
)

// HandledSignals are the signals routed by the Controller.
var HandledSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

// Notifier delivers HandledSignals to a channel. Tests replace it to inject signals.
type Notifier interface {
	Subscribe(ch chan<- os.Signal)
	Unsubscribe(ch chan<- os.Signal)
}

type processNotifier struct {
	signals []os.Signal
}

// NewNotifier returns a Notifier for the signals of this process.
func NewNotifier() Notifier {
	return processNotifier{signals: HandledSignals}
}

func (n processNotifier) Subscribe(ch chan<- os.Signal) {
	signal.Notify(ch, n.signals...)
}

func (n processNotifier) Unsubscribe(ch chan<- os.Signal) {
	signal.Stop(ch)
}
