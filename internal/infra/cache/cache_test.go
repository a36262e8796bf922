package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"turret-server/internal/infra/cache"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Cache", func() {
	var (
		cacheInstance cache.Cache
		ctx           context.Context
	)

	ginkgo.BeforeEach(func() {
		var err error
		cacheInstance, err = cache.New(nil)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		ctx = context.Background()
	})

	ginkgo.Context("GetSet", func() {
		ginkgo.It("should store and retrieve the value correctly", func() {
			success := cacheInstance.Set(ctx, "status:yaw", "payload", 0)
			gomega.Expect(success).To(gomega.BeTrue())

			// Small delay for Ristretto to process the value
			time.Sleep(10 * time.Millisecond)

			retrieved, found := cacheInstance.Get(ctx, "status:yaw")
			gomega.Expect(found).To(gomega.BeTrue())
			gomega.Expect(retrieved).To(gomega.Equal("payload"))
		})

		ginkgo.It("should expire the value after TTL", func() {
			success := cacheInstance.Set(ctx, "status:pitch", "payload", 50*time.Millisecond)
			gomega.Expect(success).To(gomega.BeTrue())
			time.Sleep(10 * time.Millisecond)

			_, found := cacheInstance.Get(ctx, "status:pitch")
			gomega.Expect(found).To(gomega.BeTrue())

			gomega.Eventually(func() bool {
				_, found := cacheInstance.Get(ctx, "status:pitch")
				return found
			}, time.Second, 20*time.Millisecond).Should(gomega.BeFalse())
		})
	})

	ginkgo.Context("Delete", func() {
		ginkgo.It("should remove the value", func() {
			cacheInstance.Set(ctx, "status:yaw", "payload", 0)
			time.Sleep(10 * time.Millisecond)

			cacheInstance.Delete(ctx, "status:yaw")
			time.Sleep(10 * time.Millisecond)

			_, found := cacheInstance.Get(ctx, "status:yaw")
			gomega.Expect(found).To(gomega.BeFalse())
		})
	})

	ginkgo.Context("GetOrSet", func() {
		ginkgo.It("should load the value once for concurrent callers", func() {
			var loads atomic.Int32
			loader := func() (any, error) {
				loads.Add(1)
				time.Sleep(20 * time.Millisecond)
				return "loaded", nil
			}

			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					value, err := cacheInstance.GetOrSet(ctx, "status:all", time.Second, loader)
					gomega.Expect(err).NotTo(gomega.HaveOccurred())
					gomega.Expect(value).To(gomega.Equal("loaded"))
				}()
			}
			wg.Wait()

			gomega.Expect(loads.Load()).To(gomega.Equal(int32(1)))
		})

		ginkgo.It("should propagate loader errors without caching them", func() {
			loader := func() (any, error) {
				return nil, errors.New("controller not found")
			}

			_, err := cacheInstance.GetOrSet(ctx, "status:roll", time.Second, loader)
			gomega.Expect(err).To(gomega.MatchError("controller not found"))

			_, found := cacheInstance.Get(ctx, "status:roll")
			gomega.Expect(found).To(gomega.BeFalse())
		})
	})
})
