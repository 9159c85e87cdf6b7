// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/meridianchain/meridian/co"
)

func TestSignalKeptForNextWaiter(t *testing.T) {
	var sig co.Signal
	sig.Signal()

	<-sig.NewWaiter().C()
}

func TestSignalWakesWaiter(t *testing.T) {
	var sig co.Signal
	w := sig.NewWaiter()
	sig.Signal()
	<-w.C()
}

func TestBroadcastDoesNotWakeLaterWaiters(t *testing.T) {
	var sig co.Signal
	sig.Broadcast()

	for range 10 {
		select {
		case <-sig.NewWaiter().C():
			t.Fatal("woken by an earlier broadcast")
		default:
		}
	}
}

func TestBroadcastWakesAll(t *testing.T) {
	var sig co.Signal

	var ws []co.Waiter
	for range 10 {
		ws = append(ws, sig.NewWaiter())
	}
	sig.Broadcast()

	for _, w := range ws {
		_, ok := <-w.C()
		assert.False(t, ok)
	}
}

func TestWaiterFollowsGenerations(t *testing.T) {
	var sig co.Signal
	w := sig.NewWaiter()

	sig.Broadcast()
	<-w.C()

	select {
	case <-w.C():
		t.Fatal("woken without a new event")
	default:
	}

	sig.Broadcast()
	<-w.C()
}

func TestWait(t *testing.T) {
	var sig co.Signal
	w := sig.NewWaiter()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, co.Wait(ctx, w), context.DeadlineExceeded)

	var goes co.Goes
	goes.Go(func() { sig.Signal() })
	assert.NoError(t, co.Wait(context.Background(), w))
	goes.Wait()
}
