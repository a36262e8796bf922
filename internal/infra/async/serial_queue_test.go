package async_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"turret-server/internal/infra/async"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SerialQueue", func() {
	var queue *async.SerialQueue
	var ctx context.Context

	BeforeEach(func() {
		queue = async.NewSerialQueue()
		ctx = context.TODO()
	})

	Context("Submit", func() {
		When("a single task is submitted", func() {
			It("should return the task result", func() {
				result, err := queue.Submit(ctx, "yaw", func(context.Context) (any, error) {
					return 42, nil
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(result).To(Equal(42))
			})
		})

		When("tasks are submitted for the same key", func() {
			It("should run them strictly one at a time", func() {
				var mu sync.Mutex
				inFlight := 0
				maxInFlight := 0

				var wg sync.WaitGroup
				for i := 0; i < 16; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						queue.Submit(ctx, "yaw", func(context.Context) (any, error) {
							mu.Lock()
							inFlight++
							if inFlight > maxInFlight {
								maxInFlight = inFlight
							}
							mu.Unlock()

							time.Sleep(time.Millisecond)

							mu.Lock()
							inFlight--
							mu.Unlock()
							return nil, nil
						})
					}()
				}
				wg.Wait()

				Expect(maxInFlight).To(Equal(1))
			})

			It("should preserve submission order", func() {
				var mu sync.Mutex
				var observed []int

				release := make(chan struct{})
				var wg sync.WaitGroup
				wg.Add(1)
				go func() {
					defer wg.Done()
					queue.Submit(ctx, "yaw", func(context.Context) (any, error) {
						<-release
						mu.Lock()
						observed = append(observed, 0)
						mu.Unlock()
						return nil, nil
					})
				}()

				// The remaining tasks are submitted sequentially while the
				// head task is still blocked, so their chain positions are
				// claimed in a known order.
				for i := 1; i < 6; i++ {
					i := i
					wg.Add(1)
					go func() {
						defer wg.Done()
						queue.Submit(ctx, "yaw", func(context.Context) (any, error) {
							mu.Lock()
							observed = append(observed, i)
							mu.Unlock()
							return nil, nil
						})
					}()
					// Give the goroutine time to claim its chain position
					// before spawning the next submitter.
					time.Sleep(10 * time.Millisecond)
				}

				close(release)
				wg.Wait()

				Expect(observed).To(Equal([]int{0, 1, 2, 3, 4, 5}))
			})
		})

		When("a task fails", func() {
			It("should not block subsequently queued tasks", func() {
				_, err := queue.Submit(ctx, "yaw", func(context.Context) (any, error) {
					return nil, errors.New("halt rejected")
				})
				Expect(err).To(MatchError("halt rejected"))

				result, err := queue.Submit(ctx, "yaw", func(context.Context) (any, error) {
					return "still running", nil
				})
				Expect(err).NotTo(HaveOccurred())
				Expect(result).To(Equal("still running"))
			})
		})

		When("a task panics", func() {
			It("should surface an error and keep the chain alive", func() {
				_, err := queue.Submit(ctx, "yaw", func(context.Context) (any, error) {
					panic("boom")
				})
				Expect(err).To(HaveOccurred())

				_, err = queue.Submit(ctx, "yaw", func(context.Context) (any, error) {
					return nil, nil
				})
				Expect(err).NotTo(HaveOccurred())
			})
		})

		When("tasks target different keys", func() {
			It("should run them independently", func() {
				yawBlocked := make(chan struct{})
				release := make(chan struct{})

				go queue.Submit(ctx, "yaw", func(context.Context) (any, error) {
					close(yawBlocked)
					<-release
					return nil, nil
				})

				<-yawBlocked
				result, err := queue.Submit(ctx, "pitch", func(context.Context) (any, error) {
					return "independent", nil
				})
				close(release)

				Expect(err).NotTo(HaveOccurred())
				Expect(result).To(Equal("independent"))
			})
		})
	})
})
