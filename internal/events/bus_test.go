/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package events

import (
	"sync"
	"testing"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventSnapshotPublished)

	bus.Publish(EventSnapshotPublished, Payload{"lang": "en"})

	select {
	case payload := <-sub:
		if payload["lang"] != "en" {
			t.Errorf("payload = %v", payload)
		}
	default:
		t.Fatal("no event delivered")
	}
}

func TestPublishDropsWhenSubscriberFull(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventCycleComplete)

	// Fill the buffer and one more; the overflow must be dropped, not
	// block the publisher.
	for i := 0; i < cap(sub)+1; i++ {
		bus.Publish(EventCycleComplete, Payload{"n": i})
	}

	if got := len(sub); got != cap(sub) {
		t.Errorf("buffered = %d, want %d", got, cap(sub))
	}
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				bus.Publish(EventSnapshotSkipped, Payload{"lang": "en"})
			}
		}
	}()

	// Unsubscribing while a publish is in flight must never panic with a
	// send on a closed channel.
	for i := 0; i < 200; i++ {
		sub := bus.Subscribe(EventSnapshotSkipped)
		bus.Unsubscribe(EventSnapshotSkipped, sub)
	}

	close(stop)
	wg.Wait()
}
