package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/skillmatch/internal/domain/model"
)

func task(i int) Task {
	return model.PairTask{
		UserProfileID: fmt.Sprintf("u%d", i),
		ItemProfileID: "o1",
		Method:        model.ScoreMethodRawSimilarity,
	}
}

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a queue with capacity 2", t, func() {
		q := NewInMemoryQueue(WithCapacity(2))
		ctx := context.Background()

		Convey("When tasks are enqueued and dequeued", func() {
			So(q.Enqueue(ctx, task(1)), ShouldBeNil)
			So(q.Len(), ShouldEqual, 1)

			got := <-q.Dequeue(ctx)

			Convey("Then the task comes out intact", func() {
				So(got, ShouldResemble, task(1))
			})
		})

		Convey("When the queue is full", func() {
			So(q.Enqueue(ctx, task(1)), ShouldBeNil)
			So(q.Enqueue(ctx, task(2)), ShouldBeNil)

			Convey("Then the next enqueue is rejected", func() {
				So(errors.Is(q.Enqueue(ctx, task(3)), ErrFull), ShouldBeTrue)
				So(q.Len(), ShouldEqual, 2)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then enqueue reports the cancellation", func() {
				So(errors.Is(q.Enqueue(cctx, task(1)), context.Canceled), ShouldBeTrue)
			})
		})

		Convey("When the queue is closed with tasks buffered", func() {
			So(q.Enqueue(ctx, task(1)), ShouldBeNil)
			So(q.Enqueue(ctx, task(2)), ShouldBeNil)
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then new tasks are rejected but buffered ones drain", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(errors.Is(q.Enqueue(ctx, task(3)), ErrClosed), ShouldBeTrue)

				var drained []Task
				for t := range q.Dequeue(ctx) {
					drained = append(drained, t)
				}
				So(drained, ShouldResemble, []Task{task(1), task(2)})
			})
		})

		Convey("When the consumer context ends", func() {
			cctx, cancel := context.WithCancel(ctx)
			ch := q.Dequeue(cctx)
			cancel()

			Convey("Then the channel closes without Close", func() {
				select {
				case _, ok := <-ch:
					So(ok, ShouldBeFalse)
				case <-time.After(time.Second):
					So("dequeue channel still open", ShouldBeEmpty)
				}
			})
		})
	})
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	Convey("Given producers and consumers running together", t, func() {
		const total = 1000
		q := NewInMemoryQueue(WithCapacity(total))
		ctx := context.Background()

		var wg sync.WaitGroup
		for p := range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := p; i < total; i += 4 {
					_ = q.Enqueue(ctx, task(i))
				}
			}()
		}

		var mu sync.Mutex
		seen := make(map[string]bool)
		var consumers sync.WaitGroup
		for range 3 {
			consumers.Add(1)
			go func() {
				defer consumers.Done()
				for t := range q.Dequeue(ctx) {
					mu.Lock()
					seen[t.Key()] = true
					mu.Unlock()
				}
			}()
		}

		wg.Wait()
		So(q.Close(), ShouldBeNil)
		consumers.Wait()

		So(len(seen), ShouldEqual, total)
	})
}
