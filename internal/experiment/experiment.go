// Package experiment runs the autopilot over a full-factorial design and
// reduces every run to a single response.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/san-kum/doesim/internal/dynamo"
	"github.com/san-kum/doesim/internal/factorial"
	"github.com/san-kum/doesim/internal/metrics"
	"github.com/san-kum/doesim/internal/models"
)

const (
	DefaultLevels  = 2
	DefaultFactors = 4
	DefaultStep    = 0.01
)

var ErrInvalidConfig = errors.New("experiment: invalid config")

type Config struct {
	Levels        int
	FactorCount   int
	Step          float64
	Base          models.Params
	Factors       []factorial.Factor
	Channel       int
	Seed          int64
	ValidateState bool
}

// DefaultDesignFactors are the ±20% ranges around the baseline k, l, m, n.
func DefaultDesignFactors() []factorial.Factor {
	return []factorial.Factor{
		{Name: "k", Min: 0.8, Max: 1.2},
		{Name: "l", Min: 6.4, Max: 9.6},
		{Name: "m", Min: 1.6, Max: 2.4},
		{Name: "n", Min: 5.6, Max: 8.4},
	}
}

func DefaultConfig() Config {
	return Config{
		Levels:      DefaultLevels,
		FactorCount: DefaultFactors,
		Step:        DefaultStep,
		Base:        models.DefaultParams(),
		Factors:     DefaultDesignFactors(),
		Channel:     models.PitchRate,
	}
}

func (c Config) Validate() error {
	if _, err := factorial.Count(c.Levels, c.FactorCount); err != nil {
		return err
	}
	if c.FactorCount > len(c.Factors) {
		return fmt.Errorf("%w: %d factors requested, %d defined", ErrInvalidConfig, c.FactorCount, len(c.Factors))
	}
	for _, f := range c.Factors {
		if _, ok := c.Base.Get(f.Name); !ok {
			return fmt.Errorf("%w: factor %q is not a parameter", ErrInvalidConfig, f.Name)
		}
	}
	if !(c.Step > 0) {
		return fmt.Errorf("%w: step must be positive, got %v", dynamo.ErrParameterBounds, c.Step)
	}
	if c.Channel < 0 || c.Channel >= len(models.InitialState()) {
		return fmt.Errorf("%w: channel %d out of range", ErrInvalidConfig, c.Channel)
	}
	if err := c.Base.Validate(); err != nil {
		return err
	}
	if steps := math.Ceil(c.Base.T / c.Step); !(steps <= dynamo.MaxSteps) {
		return fmt.Errorf("%w: %g steps per run exceed the limit of %d", dynamo.ErrParameterBounds, steps, dynamo.MaxSteps)
	}
	return nil
}

// Item is the outcome of one design point. Run is the 1-based position of
// its placement in generation order.
type Item struct {
	Run       int
	Placement factorial.Placement
	Params    models.Params
	S         float64
	Metrics   map[string]float64
}

// Row is the spreadsheet layout of an item: the run, the value of every
// design factor in order, then S. With the default design that is
// run, k, l, m, n, S.
func (it Item) Row(factors []factorial.Factor) []any {
	row := make([]any, 0, len(factors)+2)
	row = append(row, it.Run)
	for _, f := range factors {
		v, _ := it.Params.Get(f.Name)
		row = append(row, v)
	}
	return append(row, it.S)
}

// Rows lays out the items in their current order.
func (b *Batch) Rows() [][]any {
	rows := make([][]any, len(b.Items))
	for i, it := range b.Items {
		rows[i] = it.Row(b.Factors)
	}
	return rows
}

// Batch is a completed experiment. Items are in presentation (shuffled)
// order; Regression is fitted in generation order and is nil when the
// design cannot support one. Factors is the design the items were run on.
type Batch struct {
	ID         uuid.UUID
	Factors    []factorial.Factor
	Items      []Item
	Regression *factorial.Regression
	Elapsed    time.Duration
}

// Rand is the randomness the shuffle needs. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

type Experiment struct {
	cfg Config
	log *zap.Logger
	rng Rand
}

type Option func(*Experiment)

func WithLogger(log *zap.Logger) Option {
	return func(e *Experiment) { e.log = log }
}

func WithRand(r Rand) Option {
	return func(e *Experiment) { e.rng = r }
}

// New builds an experiment. Without WithRand the shuffle is seeded from
// cfg.Seed, or from the clock when the seed is zero.
func New(cfg Config, opts ...Option) *Experiment {
	e := &Experiment{cfg: cfg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		e.rng = rand.New(rand.NewSource(seed))
	}
	return e
}

func (e *Experiment) Config() Config { return e.cfg }

// Run executes every design point sequentially, then shuffles the items.
// Nothing is returned unless all runs complete.
func (e *Experiment) Run(ctx context.Context) (*Batch, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	batch := &Batch{
		ID:      uuid.New(),
		Factors: append([]factorial.Factor(nil), e.cfg.Factors...),
	}
	log := e.log.With(zap.String("batch", batch.ID.String()))

	placements, err := factorial.Generate(e.cfg.Levels, e.cfg.FactorCount)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(placements))
	responses := make([]float64, 0, len(placements))
	for j, p := range placements {
		item, err := e.runPlacement(ctx, j+1, p)
		if err != nil {
			return nil, fmt.Errorf("run %d %v: %w", j+1, p, err)
		}
		fields := []zap.Field{zap.Int("run", item.Run), zap.Ints("placement", item.Placement)}
		for _, f := range e.cfg.Factors {
			v, _ := item.Params.Get(f.Name)
			fields = append(fields, zap.Float64(f.Name, v))
		}
		log.Debug("run complete", append(fields, zap.Float64("area", item.S))...)
		items = append(items, item)
		responses = append(responses, item.S)
	}

	if reg, err := factorial.Regress(placements, e.cfg.Levels, responses); err == nil {
		batch.Regression = reg
	} else {
		log.Debug("regression skipped", zap.Error(err))
	}

	Shuffle(items, e.rng)
	batch.Items = items
	batch.Elapsed = time.Since(start)

	log.Info("experiment complete",
		zap.Int("runs", len(items)),
		zap.Int("levels", e.cfg.Levels),
		zap.Int("factors", e.cfg.FactorCount),
		zap.Duration("elapsed", batch.Elapsed),
	)
	return batch, nil
}

// Params resolves a placement against the baseline. Factors past the
// placement length keep their baseline values.
func (e *Experiment) Params(p factorial.Placement) (models.Params, error) {
	values, err := factorial.Values(p, e.cfg.Factors, e.cfg.Levels)
	if err != nil {
		return models.Params{}, err
	}

	params := e.cfg.Base
	for i, v := range values {
		params, err = params.With(e.cfg.Factors[i].Name, v)
		if err != nil {
			return models.Params{}, err
		}
	}
	return params, nil
}

func (e *Experiment) runPlacement(ctx context.Context, run int, p factorial.Placement) (Item, error) {
	params, err := e.Params(p)
	if err != nil {
		return Item{}, err
	}

	result, err := models.Simulate(ctx, params,
		dynamo.Config{Dt: e.cfg.Step, ValidateState: e.cfg.ValidateState},
		metrics.NewTrapezoidArea(e.cfg.Channel),
		metrics.NewSaturation(models.Elevator, params.DeltaMax),
		metrics.NewEffort(models.Elevator),
	)
	if err != nil {
		return Item{}, err
	}

	return Item{
		Run:       run,
		Placement: p,
		Params:    params,
		S:         result.Metrics["area"],
		Metrics:   result.Metrics,
	}, nil
}

// Shuffle permutes items uniformly in place (Fisher-Yates).
func Shuffle[T any](items []T, r Rand) {
	for i := len(items) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
