package geocode

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/thirstee-app/thirstee/internal/logging"
)

const (
	minQueryLength = 3

	defaultPredictionTTL   = 5 * time.Minute
	defaultDetailsTTL      = 60 * time.Minute
	defaultDebounceDelay   = 300 * time.Millisecond
	defaultMinCallInterval = 100 * time.Millisecond
	defaultSweepInterval   = 10 * time.Minute
)

// ErrSuperseded is returned when a newer lookup arrived while this one was
// waiting out its debounce delay. The superseded result is discarded.
var ErrSuperseded = errors.New("lookup superseded")

// Clock abstracts time for deterministic TTL tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Options configures a Service. Zero values take defaults.
type Options struct {
	Clock           Clock
	PredictionTTL   time.Duration
	DetailsTTL      time.Duration
	DebounceDelay   time.Duration
	MinCallInterval time.Duration
	SweepInterval   time.Duration
	// Sleep is the wait primitive used for debouncing and call spacing.
	// Tests inject one that advances a fake clock.
	Sleep func(ctx context.Context, d time.Duration) error
}

type predictionEntry struct {
	predictions []Prediction
	fetchedAt   time.Time
}

type detailsEntry struct {
	details   PlaceDetails
	fetchedAt time.Time
}

// Service memoizes places lookups in front of a Client. Predictions are
// debounced (last call wins) and network calls are self-spaced; both
// empty and failed prediction responses are cached so repeated doomed
// queries don't hammer the API. Construct one per process and pass it by
// reference; there is no package-level instance.
type Service struct {
	client Client
	clock  Clock
	sleep  func(ctx context.Context, d time.Duration) error

	predictionTTL   time.Duration
	detailsTTL      time.Duration
	debounceDelay   time.Duration
	minCallInterval time.Duration

	deb debouncer

	mu          sync.Mutex
	lastCall    time.Time
	predictions map[string]predictionEntry
	details     map[string]detailsEntry

	done      chan struct{}
	closeOnce sync.Once
}

func NewService(client Client, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if opts.PredictionTTL <= 0 {
		opts.PredictionTTL = defaultPredictionTTL
	}
	if opts.DetailsTTL <= 0 {
		opts.DetailsTTL = defaultDetailsTTL
	}
	if opts.DebounceDelay < 0 {
		opts.DebounceDelay = 0
	} else if opts.DebounceDelay == 0 {
		opts.DebounceDelay = defaultDebounceDelay
	}
	if opts.MinCallInterval == 0 {
		opts.MinCallInterval = defaultMinCallInterval
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = defaultSweepInterval
	}

	s := &Service{
		client:          client,
		clock:           opts.Clock,
		sleep:           opts.Sleep,
		predictionTTL:   opts.PredictionTTL,
		detailsTTL:      opts.DetailsTTL,
		debounceDelay:   opts.DebounceDelay,
		minCallInterval: opts.MinCallInterval,
		predictions:     make(map[string]predictionEntry),
		details:         make(map[string]detailsEntry),
		done:            make(chan struct{}),
	}
	if s.sleep == nil {
		s.sleep = defaultSleep
	}

	go s.sweepLoop(opts.SweepInterval)

	return s
}

func defaultSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Predictions returns autocomplete suggestions for the input. Inputs
// shorter than three characters resolve to an empty slice without
// touching the client. Client errors also resolve to an empty slice (and
// are cached), so callers never branch on errors from the lookup itself;
// only supersession and context cancellation surface as errors.
func (s *Service) Predictions(ctx context.Context, input string, opts PredictionOptions) ([]Prediction, error) {
	trimmed := strings.TrimSpace(input)
	if utf8.RuneCountInString(trimmed) < minQueryLength {
		return []Prediction{}, nil
	}

	key := strings.ToLower(trimmed) + "|" + opts.cacheSuffix()

	s.mu.Lock()
	if entry, ok := s.predictions[key]; ok && s.clock.Now().Sub(entry.fetchedAt) < s.predictionTTL {
		out := clonePredictions(entry.predictions)
		s.mu.Unlock()
		return out, nil
	}
	s.mu.Unlock()

	token := s.deb.arm()
	if err := s.sleep(ctx, s.debounceDelay); err != nil {
		return nil, err
	}
	if !s.deb.current(token) {
		return nil, ErrSuperseded
	}

	if err := s.waitForCallSlot(ctx); err != nil {
		return nil, err
	}

	predictions, err := s.client.Predictions(ctx, trimmed, opts)
	if err != nil {
		logging.Warn("Place predictions lookup failed", map[string]interface{}{"error": err.Error()})
		predictions = nil
	}
	if predictions == nil {
		predictions = []Prediction{}
	}

	s.mu.Lock()
	s.predictions[key] = predictionEntry{predictions: predictions, fetchedAt: s.clock.Now()}
	s.mu.Unlock()

	return clonePredictions(predictions), nil
}

// waitForCallSlot enforces the minimum spacing between real client calls,
// sleeping the difference when the previous call was too recent.
func (s *Service) waitForCallSlot(ctx context.Context) error {
	s.mu.Lock()
	wait := s.minCallInterval - s.clock.Now().Sub(s.lastCall)
	s.mu.Unlock()

	if wait > 0 {
		if err := s.sleep(ctx, wait); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.lastCall = s.clock.Now()
	s.mu.Unlock()
	return nil
}

// Details resolves a place id, caching successes for the details TTL.
// Failures are logged and return nil rather than an error.
func (s *Service) Details(ctx context.Context, placeID string) (*PlaceDetails, error) {
	if placeID == "" {
		return nil, nil
	}

	s.mu.Lock()
	if entry, ok := s.details[placeID]; ok && s.clock.Now().Sub(entry.fetchedAt) < s.detailsTTL {
		out := entry.details
		s.mu.Unlock()
		return &out, nil
	}
	s.mu.Unlock()

	details, err := s.client.Details(ctx, placeID)
	if err != nil {
		logging.Warn("Place details lookup failed", map[string]interface{}{"error": err.Error(), "place_id": placeID})
		return nil, nil
	}
	if details == nil {
		return nil, nil
	}

	s.mu.Lock()
	s.details[placeID] = detailsEntry{details: *details, fetchedAt: s.clock.Now()}
	s.mu.Unlock()

	out := *details
	return &out, nil
}

func (s *Service) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictExpired()
		case <-s.done:
			return
		}
	}
}

func (s *Service) evictExpired() {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.predictions {
		if now.Sub(entry.fetchedAt) >= s.predictionTTL {
			delete(s.predictions, key)
		}
	}
	for key, entry := range s.details {
		if now.Sub(entry.fetchedAt) >= s.detailsTTL {
			delete(s.details, key)
		}
	}
}

// Close stops the sweeper, invalidates in-flight debounced lookups, and
// clears both caches.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.deb.cancel()

		s.mu.Lock()
		s.predictions = make(map[string]predictionEntry)
		s.details = make(map[string]detailsEntry)
		s.mu.Unlock()
	})
}

func clonePredictions(in []Prediction) []Prediction {
	out := make([]Prediction, len(in))
	copy(out, in)
	return out
}
