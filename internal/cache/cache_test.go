package cache_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"efb/internal/cache"
	e "efb/internal/errors"
	"efb/internal/metrics"
	"efb/internal/models"
	"efb/internal/testhelpers"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/types"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// fakeSource hands out queued results in order, repeating the last one.
type fakeSource struct {
	mu      sync.Mutex
	calls   atomic.Int32
	results []result
}

type result struct {
	snapshot *models.Snapshot
	err      error
}

func (f *fakeSource) Fetch(ctx context.Context) (*models.Snapshot, error) {
	n := int(f.calls.Add(1)) - 1

	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.results[min(n, len(f.results)-1)]
	return r.snapshot, r.err
}

func holding(s *models.Snapshot) types.GomegaMatcher {
	return HaveField("DataDate", s.DataDate)
}

func lookups(m *metrics.Metrics, result string) float64 {
	var out dto.Metric
	Expect(m.CacheLookups.WithLabelValues(result).Write(&out)).To(Succeed())
	return out.GetCounter().GetValue()
}

var _ = Describe("Cache", func() {
	var (
		t0     time.Time
		first  *models.Snapshot
		second *models.Snapshot
		src    *fakeSource
		m      *metrics.Metrics
		c      *cache.Cache
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		t0 = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
		first = testhelpers.NewSnapshot(func(s *models.Snapshot) {
			s.Registered = []models.CompanyRecord{testhelpers.NewCompany(nil)}
		})
		second = testhelpers.NewSnapshot(func(s *models.Snapshot) {
			s.FetchedAt = t0.Add(-48 * time.Hour)
			s.DataDate = "2024-06-02"
		})
		src = &fakeSource{results: []result{{snapshot: first}, {snapshot: second}}}
		m = metrics.New(prometheus.NewRegistry())
		c = cache.New(src, cache.WithMetrics(m))
	})

	It("is empty before the first fetch", func() {
		Expect(c.Peek()).To(BeNil())
		Expect(c.TTL()).To(Equal(cache.DefaultTTL))
		Expect(src.calls.Load()).To(BeZero())
	})

	It("fetches on first use", func() {
		s, err := c.GetAt(ctx, false, t0)
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(holding(first))
		Expect(c.Peek()).To(holding(first))
		Expect(src.calls.Load()).To(Equal(int32(1)))
		Expect(lookups(m, "miss")).To(Equal(1.0))
	})

	It("stamps the stored snapshot with the lookup time", func() {
		s, err := c.GetAt(ctx, false, t0)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.FetchedAt).To(Equal(t0))
		Expect(c.Peek()).To(BeIdenticalTo(s))
		Expect(first.FetchedAt).To(Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))

		s, err = c.GetAt(ctx, true, t0.Add(time.Hour))
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(holding(second))
		Expect(s.FetchedAt).To(Equal(t0.Add(time.Hour)))
	})

	It("returns the held snapshot itself on a hit", func() {
		held, err := c.GetAt(ctx, false, t0)
		Expect(err).NotTo(HaveOccurred())

		s, err := c.GetAt(ctx, false, t0.Add(time.Minute))
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(BeIdenticalTo(held))
	})

	It("serves the held snapshot within the TTL", func() {
		_, err := c.GetAt(ctx, false, t0)
		Expect(err).NotTo(HaveOccurred())

		s, err := c.GetAt(ctx, false, t0.Add(6*time.Hour-time.Second))
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(holding(first))
		Expect(src.calls.Load()).To(Equal(int32(1)))
		Expect(lookups(m, "hit")).To(Equal(1.0))
	})

	It("refetches once the TTL has elapsed", func() {
		_, err := c.GetAt(ctx, false, t0)
		Expect(err).NotTo(HaveOccurred())

		s, err := c.GetAt(ctx, false, t0.Add(6*time.Hour))
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(holding(second))
		Expect(src.calls.Load()).To(Equal(int32(2)))
		Expect(lookups(m, "expired")).To(Equal(1.0))
	})

	It("refetches on a forced refresh even when fresh", func() {
		_, err := c.GetAt(ctx, false, t0)
		Expect(err).NotTo(HaveOccurred())

		s, err := c.GetAt(ctx, true, t0.Add(time.Minute))
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(holding(second))
		Expect(lookups(m, "forced")).To(Equal(1.0))
	})

	It("keeps the previous snapshot when a refresh fails", func() {
		failure := e.New(e.ErrLinkNotFound, "링크 없음")
		src.results = []result{{snapshot: first}, {err: failure}}

		_, err := c.GetAt(ctx, false, t0)
		Expect(err).NotTo(HaveOccurred())

		s, err := c.GetAt(ctx, true, t0.Add(time.Minute))
		Expect(s).To(BeNil())
		Expect(err).To(BeIdenticalTo(failure))
		Expect(c.Peek()).To(holding(first))

		s, err = c.GetAt(ctx, false, t0.Add(2*time.Minute))
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(holding(first))
	})

	It("stays empty when the first fetch fails", func() {
		src.results = []result{{err: e.New(e.ErrPortalUnavailable, "포털 오류")}}

		_, err := c.Get(ctx, false)
		Expect(err).To(MatchError(e.ErrPortalUnavailable))
		Expect(c.Peek()).To(BeNil())

		_, err = c.Get(ctx, false)
		Expect(err).To(HaveOccurred())
		Expect(src.calls.Load()).To(Equal(int32(2)))
	})

	It("uses the injected clock and TTL", func() {
		now := t0
		c = cache.New(src,
			cache.WithTTL(time.Minute),
			cache.WithClock(func() time.Time { return now }),
		)

		_, err := c.Get(ctx, false)
		Expect(err).NotTo(HaveOccurred())

		now = t0.Add(59 * time.Second)
		s, err := c.Get(ctx, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(holding(first))

		now = t0.Add(time.Minute)
		s, err = c.Get(ctx, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(holding(second))
	})

	It("is safe for concurrent readers", func() {
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				s, err := c.GetAt(ctx, false, t0)
				Expect(err).NotTo(HaveOccurred())
				Expect(s).NotTo(BeNil())
			}()
		}
		wg.Wait()

		Expect(c.Peek()).NotTo(BeNil())
		Expect(src.calls.Load()).To(BeNumerically(">=", 1))
	})

	It("accepts a plain function as source", func() {
		c = cache.New(cache.SourceFunc(func(context.Context) (*models.Snapshot, error) {
			return first, nil
		}))

		s, err := c.GetAt(ctx, false, t0)
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(holding(first))
	})
})
