package experiment

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sort"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/doesim/internal/dynamo"
	"github.com/san-kum/doesim/internal/factorial"
	"github.com/san-kum/doesim/internal/models"
)

// zeroRand always picks the first index.
type zeroRand struct{}

func (zeroRand) Intn(int) int { return 0 }

func runs(items []Item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.Run
	}
	return out
}

func byRun(items []Item) []Item {
	sorted := append([]Item(nil), items...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Run < sorted[j].Run })
	return sorted
}

var _ = Describe("Experiment", func() {
	var cfg Config

	BeforeEach(func() {
		cfg = DefaultConfig()
		cfg.Seed = 42
	})

	Context("with the default 2-level, 4-factor design", func() {
		var batch *Batch

		BeforeEach(func() {
			var err error
			batch, err = New(cfg).Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
		})

		It("produces one finite item per placement", func() {
			Expect(batch.Items).To(HaveLen(16))
			for _, it := range batch.Items {
				Expect(math.IsNaN(it.S) || math.IsInf(it.S, 0)).To(BeFalse(), "run %d", it.Run)
				Expect(it.S).To(BeNumerically(">", 0))
			}
		})

		It("numbers runs as a permutation of 1..16", func() {
			got := runs(batch.Items)
			sort.Ints(got)
			want := make([]int, 16)
			for i := range want {
				want[i] = i + 1
			}
			Expect(got).To(Equal(want))
		})

		It("maps each run to its placement in generation order", func() {
			placements, err := factorial.Generate(2, 4)
			Expect(err).NotTo(HaveOccurred())

			for _, it := range byRun(batch.Items) {
				Expect(it.Placement).To(Equal(placements[it.Run-1]))
			}
		})

		It("resolves levels to factor minimum and maximum", func() {
			items := byRun(batch.Items)

			first := items[0].Params
			Expect(first.K).To(Equal(0.8))
			Expect(first.L).To(Equal(6.4))
			Expect(first.M).To(Equal(1.6))
			Expect(first.N).To(Equal(5.6))

			last := items[15].Params
			Expect(last.K).To(Equal(1.2))
			Expect(last.L).To(Equal(9.6))
			Expect(last.M).To(Equal(2.4))
			Expect(last.N).To(Equal(8.4))

			Expect(last.K1).To(Equal(cfg.Base.K1))
			Expect(last.DeltaMax).To(Equal(cfg.Base.DeltaMax))
		})

		It("computes the area of the pitch-rate channel", func() {
			items := byRun(batch.Items)
			Expect(items[0].S).To(BeNumerically("~", 0.15346350, 1e-6))
			Expect(items[1].S).To(BeNumerically("~", 0.20967451, 1e-6))
			Expect(items[15].S).To(BeNumerically("~", 0.12954771, 1e-6))
		})

		It("reports supplementary metrics", func() {
			for _, it := range batch.Items {
				Expect(it.Metrics).To(HaveKey("area"))
				Expect(it.Metrics).To(HaveKey("saturation"))
				Expect(it.Metrics).To(HaveKey("effort"))
				Expect(it.Metrics["area"]).To(Equal(it.S))
			}
		})

		It("fits a first-order regression", func() {
			Expect(batch.Regression).NotTo(BeNil())
			Expect(batch.Regression.Coefficients).To(HaveLen(5))

			mean := 0.0
			for _, it := range batch.Items {
				mean += it.S
			}
			mean /= float64(len(batch.Items))
			Expect(batch.Regression.Coefficients[0]).To(BeNumerically("~", mean, 1e-12))
		})

		It("lays out rows in presentation order", func() {
			Expect(batch.Factors).To(Equal(DefaultDesignFactors()))

			rows := batch.Rows()
			Expect(rows).To(HaveLen(16))
			for i, row := range rows {
				it := batch.Items[i]
				Expect(row).To(Equal([]any{it.Run, it.Params.K, it.Params.L, it.Params.M, it.Params.N, it.S}))
			}
		})

		It("tags the batch", func() {
			Expect(batch.ID.String()).NotTo(BeEmpty())
		})
	})

	It("is reproducible for a fixed seed", func() {
		a, err := New(cfg).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		b, err := New(cfg).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(runs(a.Items)).To(Equal(runs(b.Items)))
		Expect(byRun(a.Items)).To(Equal(byRun(b.Items)))
	})

	It("does not let the shuffle change computed values", func() {
		shuffled, err := New(cfg).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		fixed, err := New(cfg, WithRand(zeroRand{})).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(byRun(shuffled.Items)).To(Equal(byRun(fixed.Items)))
	})

	It("uses the injected random source", func() {
		batch, err := New(cfg, WithRand(zeroRand{})).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		want := make([]int, 16)
		for i := range want {
			want[i] = i + 2
		}
		want[15] = 1
		Expect(runs(batch.Items)).To(Equal(want))
	})

	It("supports other level and factor counts", func() {
		cfg.Levels = 3
		cfg.FactorCount = 2

		batch, err := New(cfg).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(batch.Items).To(HaveLen(9))

		for _, it := range batch.Items {
			Expect(it.Placement).To(HaveLen(2))
			Expect(it.Params.K).To(BeElementOf(0.8, 1.0, 1.2))
			Expect(it.Params.M).To(Equal(cfg.Base.M))
			Expect(it.Params.N).To(Equal(cfg.Base.N))
		}
	})

	It("lays out rows from the configured design", func() {
		cfg.Factors = []factorial.Factor{
			{Name: "s", Min: 100, Max: 300},
			{Name: "i1", Min: 5, Max: 15},
			{Name: "i2", Min: 1, Max: 3},
			{Name: "k1", Min: 60, Max: 120},
		}

		batch, err := New(cfg).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		for i, row := range batch.Rows() {
			it := batch.Items[i]
			Expect(row).To(Equal([]any{it.Run, it.Params.S, it.Params.I1, it.Params.I2, it.Params.K1, it.S}))
			Expect(row[1]).To(BeElementOf(100.0, 300.0))
			Expect(row[2]).To(BeElementOf(5.0, 15.0))
			Expect(it.Params.K).To(Equal(cfg.Base.K))
		}
	})

	It("rejects a step that would exceed the step limit", func() {
		cfg.Step = 1e-12

		_, err := New(cfg).Run(context.Background())
		Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue(), "got %v", err)
	})

	It("skips the regression for a single-level design", func() {
		cfg.Levels = 1

		batch, err := New(cfg).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(batch.Items).To(HaveLen(1))
		Expect(batch.Regression).To(BeNil())
	})

	DescribeTable("rejects invalid configs",
		func(mutate func(*Config), target error) {
			mutate(&cfg)
			_, err := New(cfg).Run(context.Background())
			Expect(errors.Is(err, target)).To(BeTrue(), "got %v", err)
		},
		Entry("zero levels", func(c *Config) { c.Levels = 0 }, factorial.ErrInvalidDesign),
		Entry("negative factors", func(c *Config) { c.FactorCount = -1 }, factorial.ErrInvalidDesign),
		Entry("more factors than defined", func(c *Config) { c.FactorCount = 5 }, ErrInvalidConfig),
		Entry("unknown factor", func(c *Config) { c.Factors[0].Name = "gamma" }, ErrInvalidConfig),
		Entry("zero step", func(c *Config) { c.Step = 0 }, dynamo.ErrParameterBounds),
		Entry("channel out of range", func(c *Config) { c.Channel = 5 }, ErrInvalidConfig),
		Entry("zero horizon", func(c *Config) { c.Base.T = 0 }, dynamo.ErrParameterBounds),
	)

	It("fails the whole batch in strict mode when a run diverges", func() {
		cfg.Base.B = 400
		cfg.Base.T = 1
		cfg.ValidateState = true

		batch, err := New(cfg).Run(context.Background())
		Expect(batch).To(BeNil())
		Expect(errors.Is(err, dynamo.ErrInvalidState)).To(BeTrue(), "got %v", err)
	})

	It("stops when the context is canceled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := New(cfg).Run(ctx)
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})

	It("resolves placements against the baseline", func() {
		params, err := New(cfg).Params(factorial.Placement{1, 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(params).To(Equal(models.DefaultParams().WithFactors(1.2, 6.4, 2, 7)))
	})
})

var _ = Describe("Shuffle", func() {
	It("keeps every element exactly once", func() {
		items := make([]int, 50)
		for i := range items {
			items[i] = i
		}

		r := rand.New(rand.NewSource(7))
		for round := 0; round < 20; round++ {
			Shuffle(items, r)
			seen := make(map[int]int)
			for _, v := range items {
				seen[v]++
			}
			Expect(seen).To(HaveLen(50))
			for _, count := range seen {
				Expect(count).To(Equal(1))
			}
		}
	})

	It("handles empty and single-element slices", func() {
		var empty []int
		Shuffle(empty, zeroRand{})
		Expect(empty).To(BeEmpty())

		one := []int{1}
		Shuffle(one, zeroRand{})
		Expect(one).To(Equal([]int{1}))
	})

	It("reaches every permutation of a short slice", func() {
		r := rand.New(rand.NewSource(1))
		seen := make(map[[3]int]bool)
		for i := 0; i < 600; i++ {
			items := []int{1, 2, 3}
			Shuffle(items, r)
			seen[[3]int{items[0], items[1], items[2]}] = true
		}
		Expect(seen).To(HaveLen(6))
	})
})
