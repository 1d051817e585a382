package engine

import (
	"testing"

	"orb-scanner/src/models"
)

func TestQueueDropsNewestWhenFull(t *testing.T) {
	q := NewTickQueue(2)

	if !q.Offer(models.MRawTick{Token: "1"}) || !q.Offer(models.MRawTick{Token: "2"}) {
		t.Fatal("offers within capacity should be accepted")
	}
	if q.Offer(models.MRawTick{Token: "3"}) {
		t.Fatal("offer beyond capacity should be dropped")
	}

	if q.Received() != 3 || q.Dropped() != 1 {
		t.Errorf("received/dropped = %d/%d, want 3/1", q.Received(), q.Dropped())
	}

	// The queued ticks are the oldest two; the newest was discarded.
	first := <-q.C()
	second := <-q.C()
	if first.Token != "1" || second.Token != "2" {
		t.Errorf("queue kept %s,%s, want 1,2", first.Token, second.Token)
	}
}

func TestQueueDrainAfterDropAcceptsAgain(t *testing.T) {
	q := NewTickQueue(1)

	q.Offer(models.MRawTick{Token: "1"})
	q.Offer(models.MRawTick{Token: "2"})
	<-q.C()

	if !q.Offer(models.MRawTick{Token: "3"}) {
		t.Fatal("queue should accept once drained")
	}
}
