package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"StockLens/internal/cache"
	"StockLens/internal/collector"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func TestRegisterAll(t *testing.T) {
	c := cache.New()
	prices := collector.NewPriceFetcher(&collector.MockFetcher{}, c, time.Minute, zerolog.Nop())

	tests := []struct {
		name      string
		dir       DirectoryRefresher
		sweep     string
		warm      string
		wantErr   bool
		wantTasks int
	}{
		{"sweep only", prices, "0 * * * * *", "", false, 1},
		{"sweep and warm", prices, "0 * * * * *", "*/50 * * * * *", false, 2},
		{"bad sweep expression", prices, "every minute", "", true, 0},
		{"bad warm expression", prices, "0 * * * * *", "soon", true, 1},
		{"warm without source", nil, "0 * * * * *", "*/50 * * * * *", true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(context.Background(), c, tt.dir, zerolog.Nop())
			err := s.RegisterAll(tt.sweep, tt.warm)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RegisterAll() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := len(s.Cron.Entries()); got != tt.wantTasks {
				t.Errorf("expected %d tasks, got %d", tt.wantTasks, got)
			}
		})
	}
}

func TestSweepNow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)}
	c := cache.New(cache.WithClock(clock.Now))
	c.Set("NVDA:5", "short", 30*time.Second)
	c.Set("AAPL:5", "long", 2*time.Minute)

	s := NewScheduler(context.Background(), c, nil, zerolog.Nop())

	if n := s.SweepNow(); n != 0 {
		t.Fatalf("nothing should expire yet, removed %d", n)
	}
	clock.now = clock.now.Add(time.Minute)
	if n := s.SweepNow(); n != 1 {
		t.Fatalf("expected 1 removal, got %d", n)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 remaining entry, got %d", c.Len())
	}
}

func TestWarmTaskRefreshesDirectory(t *testing.T) {
	f := &collector.MockFetcher{}
	c := cache.New()
	prices := collector.NewPriceFetcher(f, c, time.Minute, zerolog.Nop())

	if _, err := prices.ResolveDirectory(context.Background()); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	s := NewScheduler(context.Background(), c, prices, zerolog.Nop())
	s.warmTask()

	if f.DirectoryCalls() != 2 {
		t.Errorf("warm-up should bypass the fresh entry, got %d directory calls", f.DirectoryCalls())
	}
	if _, ok := c.Get(collector.DirectoryCacheKey); !ok {
		t.Error("directory should be cached after warm-up")
	}
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(context.Background(), cache.New(), nil, zerolog.Nop())
	if err := s.RegisterAll("* * * * * *", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	s.Start()
	s.Stop()
}
