package pipeline_test

import (
	"sync"
	"sync/atomic"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/batch-files/internal/pipeline"
)

func TestTracker_FiresOnceWhenLastWorkerExits(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var fired atomic.Int32
	tracker := pipeline.NewTracker(func() { fired.Add(1) })

	first := tracker.Register(pipeline.RoleDiscovery)
	second := tracker.Register(pipeline.RoleProcessing)

	g.Expect(first).NotTo(Equal(second), "each worker gets its own handle")
	g.Expect(tracker.Live()).To(Equal(2))

	g.Expect(tracker.Deregister(first)).To(BeFalse())
	g.Expect(fired.Load()).To(BeZero())

	g.Expect(tracker.Deregister(second)).To(BeTrue())
	g.Expect(fired.Load()).To(Equal(int32(1)))
	g.Expect(tracker.Finished()).To(BeTrue())
}

func TestTracker_ConcurrentDeregistrationFiresExactlyOnce(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	for range 50 {
		var fired atomic.Int32
		tracker := pipeline.NewTracker(func() { fired.Add(1) })

		handles := make([]pipeline.WorkerHandle, 16)
		for i := range handles {
			handles[i] = tracker.Register(pipeline.RoleProcessing)
		}

		var (
			wg    sync.WaitGroup
			lasts atomic.Int32
			start = make(chan struct{})
		)

		for _, handle := range handles {
			wg.Go(func() {
				<-start
				if tracker.Deregister(handle) {
					lasts.Add(1)
				}
			})
		}

		close(start)
		wg.Wait()

		g.Expect(fired.Load()).To(Equal(int32(1)))
		g.Expect(lasts.Load()).To(Equal(int32(1)))
		g.Expect(tracker.Live()).To(BeZero())
	}
}

func TestTracker_IgnoresUnknownAndRepeatedHandles(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var fired atomic.Int32
	tracker := pipeline.NewTracker(func() { fired.Add(1) })

	handle := tracker.Register(pipeline.RoleDiscovery)

	g.Expect(tracker.Deregister(pipeline.WorkerHandle(999))).To(BeFalse())
	g.Expect(tracker.Live()).To(Equal(1))

	g.Expect(tracker.Deregister(handle)).To(BeTrue())
	g.Expect(tracker.Deregister(handle)).To(BeFalse())
	g.Expect(fired.Load()).To(Equal(int32(1)))
}

func TestTracker_LiveByRole(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	tracker := pipeline.NewTracker(nil)
	discovery := tracker.Register(pipeline.RoleDiscovery)
	tracker.Register(pipeline.RoleProcessing)
	tracker.Register(pipeline.RoleProcessing)

	g.Expect(tracker.LiveByRole(pipeline.RoleDiscovery)).To(Equal(1))
	g.Expect(tracker.LiveByRole(pipeline.RoleProcessing)).To(Equal(2))

	tracker.Deregister(discovery)
	g.Expect(tracker.LiveByRole(pipeline.RoleDiscovery)).To(BeZero())
	g.Expect(tracker.Finished()).To(BeFalse())
}
