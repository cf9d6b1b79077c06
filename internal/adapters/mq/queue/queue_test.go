package queue_test

import (
	"context"
	"testing"

	queue "github.com/okian/duelo/internal/adapters/mq/queue"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue with capacity two", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		Convey("Jobs flow through in order", func() {
			So(q.Enqueue(ctx, queue.Job{ItemID: "a"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{ItemID: "b"}), ShouldBeTrue)
			So(q.Len(ctx), ShouldEqual, 2)

			jobs := q.Dequeue(ctx)
			So((<-jobs).ItemID, ShouldEqual, "a")
			So((<-jobs).ItemID, ShouldEqual, "b")
		})

		Convey("A full queue refuses instead of blocking", func() {
			So(q.Enqueue(ctx, queue.Job{ItemID: "a"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{ItemID: "b"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{ItemID: "c"}), ShouldBeFalse)
		})

		Convey("A closed queue refuses new jobs and closes the channel", func() {
			So(q.Enqueue(ctx, queue.Job{ItemID: "a"}), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)
			So(q.IsClosed(), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{ItemID: "b"}), ShouldBeFalse)

			jobs := q.Dequeue(ctx)
			So((<-jobs).ItemID, ShouldEqual, "a")
			_, open := <-jobs
			So(open, ShouldBeFalse)

			Convey("And closing again is a no-op", func() {
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}
