package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/wonny/capm-optimizer/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{Enabled: false})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on disabled client = %v", err)
	}
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	ctx := context.Background()

	if err := cache.Set(ctx, "key", "value", TTLShort); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var result string
	found, err := cache.Get(ctx, "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}
	if err := cache.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestPriceTableKey(t *testing.T) {
	from := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

	a := PriceTableKey([]string{"AAA", "BBB"}, from, to)
	b := PriceTableKey([]string{"AAA", "BBB"}, from, to)
	c := PriceTableKey([]string{"BBB", "AAA"}, from, to)

	if a != b {
		t.Errorf("Expected stable key, got %s and %s", a, b)
	}
	if a == c {
		t.Error("Expected symbol order to change the key")
	}
	if got := a[len(a)-17:]; got != "20240102:20240628" {
		t.Errorf("Expected date window suffix, got %s", got)
	}
}

func TestCache_RoundTrip(t *testing.T) {
	if os.Getenv("REDIS_HOST") == "" {
		t.Skip("REDIS_HOST not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := New(ctx, config.RedisConfig{
		Host:    os.Getenv("REDIS_HOST"),
		Port:    "6379",
		Enabled: true,
	})
	if err != nil {
		t.Skipf("redis unreachable: %v", err)
	}
	defer client.Close()

	cache := NewCache(client, "capm-test")
	if err := cache.Set(ctx, "k", map[string]float64{"AAA": 1.5}, TTLShort); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got map[string]float64
	found, err := cache.Get(ctx, "k", &got)
	if err != nil || !found {
		t.Fatalf("Get() found=%v err=%v", found, err)
	}
	if got["AAA"] != 1.5 {
		t.Errorf("Expected 1.5, got %v", got["AAA"])
	}
	_ = cache.Delete(ctx, "k")
}
