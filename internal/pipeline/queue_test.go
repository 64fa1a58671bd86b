package pipeline_test

import (
	"sync"
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/batch-files/internal/pipeline"
)

func TestWorkQueue_FIFOOffering(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	q := pipeline.NewWorkQueue()
	q.Enqueue("A")
	q.Enqueue("B")

	first, ok := q.Dequeue()
	g.Expect(ok).To(BeTrue())
	g.Expect(first).To(Equal("A"))

	second, ok := q.Dequeue()
	g.Expect(ok).To(BeTrue())
	g.Expect(second).To(Equal("B"))
}

func TestWorkQueue_EnqueueCountsDiscovered(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	q := pipeline.NewWorkQueue()

	total, ok := q.Enqueue("a")
	g.Expect(ok).To(BeTrue())
	g.Expect(total).To(Equal(int64(1)))

	total, _ = q.Enqueue("b")
	g.Expect(total).To(Equal(int64(2)))
	g.Expect(q.Len()).To(Equal(2))

	_, _ = q.Dequeue()
	g.Expect(q.Len()).To(Equal(1))
	g.Expect(q.Discovered()).To(Equal(int64(2)), "dequeue must not lower the discovered count")
}

func TestWorkQueue_DequeueBlocksUntilEnqueue(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	q := pipeline.NewWorkQueue()
	got := make(chan string, 1)

	go func() {
		item, _ := q.Dequeue()
		got <- item
	}()

	g.Consistently(got, 50*time.Millisecond).ShouldNot(Receive())

	q.Enqueue("late")

	g.Eventually(got).Should(Receive(Equal("late")))
}

func TestWorkQueue_MarkDiscoveryDoneWakesAllConsumers(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	q := pipeline.NewWorkQueue()

	const consumers = 4

	var wg sync.WaitGroup
	results := make(chan bool, consumers)

	for range consumers {
		wg.Go(func() {
			_, ok := q.Dequeue()
			results <- ok
		})
	}

	g.Consistently(results, 50*time.Millisecond).ShouldNot(Receive())

	q.MarkDiscoveryDone()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	g.Eventually(done).Should(BeClosed())
	close(results)

	for ok := range results {
		g.Expect(ok).To(BeFalse(), "an empty finished queue yields no item")
	}
}

func TestWorkQueue_CancelWakesAllConsumers(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	q := pipeline.NewWorkQueue()

	var wg sync.WaitGroup
	for range 3 {
		wg.Go(func() {
			_, _ = q.Dequeue()
		})
	}

	q.Cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	g.Eventually(done).Should(BeClosed())
	g.Expect(q.Cancelled()).To(BeTrue())
}

func TestWorkQueue_DrainsAfterDiscoveryDone(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	q := pipeline.NewWorkQueue()
	q.Enqueue("a")
	q.MarkDiscoveryDone()

	item, ok := q.Dequeue()
	g.Expect(ok).To(BeTrue())
	g.Expect(item).To(Equal("a"))

	_, ok = q.Dequeue()
	g.Expect(ok).To(BeFalse())
}

func TestWorkQueue_MarkDiscoveryDoneIsIdempotent(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	q := pipeline.NewWorkQueue()
	q.Enqueue("a")
	q.MarkDiscoveryDone()
	q.MarkDiscoveryDone()

	g.Expect(q.DiscoveryDone()).To(BeTrue())
	g.Expect(q.Len()).To(Equal(1), "marking twice must not disturb queued items")

	item, ok := q.Dequeue()
	g.Expect(ok).To(BeTrue())
	g.Expect(item).To(Equal("a"))

	_, ok = q.Dequeue()
	g.Expect(ok).To(BeFalse())
}

func TestWorkQueue_NoInsertAfterDiscoveryDone(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	q := pipeline.NewWorkQueue()
	q.MarkDiscoveryDone()

	total, ok := q.Enqueue("too-late")
	g.Expect(ok).To(BeFalse())
	g.Expect(total).To(Equal(int64(0)))
	g.Expect(q.Len()).To(Equal(0))
}

func TestWorkQueue_CancelIsMonotone(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	q := pipeline.NewWorkQueue()
	g.Expect(q.Cancelled()).To(BeFalse())

	q.Cancel()
	q.MarkDiscoveryDone()
	q.Cancel()

	g.Expect(q.Cancelled()).To(BeTrue())
}

func TestWorkQueue_CancelledQueueYieldsNothing(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	q := pipeline.NewWorkQueue()
	q.Enqueue("a")
	q.Enqueue("b")
	q.Cancel()

	_, ok := q.Dequeue()
	g.Expect(ok).To(BeFalse())
	g.Expect(q.Len()).To(Equal(2), "cancelled items stay queued")
}
