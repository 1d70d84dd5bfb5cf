package cli

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/SmitUplenchwar2687/tsmr/internal/config"
	"github.com/SmitUplenchwar2687/tsmr/internal/generate"
	"github.com/SmitUplenchwar2687/tsmr/internal/impair"
)

func simOptions() generate.Options {
	return generate.Options{
		Count:    100,
		Tracks:   3,
		Duration: 10 * time.Second,
		Pattern:  generate.PatternSteady,
		StartMS:  1_000_000,
		Seed:     1,
	}
}

func TestRunSimulation_FastConsumerLosesNothing(t *testing.T) {
	result, err := runSimulation(context.Background(), config.Default(), simOptions(), nil)
	if err != nil {
		t.Fatalf("runSimulation() error = %v", err)
	}

	s := result.Summary
	if s.Inserted != 100 || s.Overwritten != 0 || s.Rejected != 0 {
		t.Errorf("summary = %+v, want 100 inserts and no losses", s)
	}
	if s.Extracted != 100 || s.Remaining != 0 {
		t.Errorf("extracted %d, remaining %d; want 100 and 0", s.Extracted, s.Remaining)
	}
	if result.Lost != 0 || result.LossRate != 0 {
		t.Errorf("lost = %d (%.2f), want 0", result.Lost, result.LossRate)
	}
	if !result.InOrder {
		t.Error("in-order stream should be delivered in order")
	}
}

func TestRunSimulation_SlowConsumerOverwrites(t *testing.T) {
	cfg := config.Default()
	cfg.Ring.Capacity = 8
	cfg.Consumer.Rate = 1
	cfg.Consumer.Window = time.Second
	cfg.Consumer.Burst = 1

	result, err := runSimulation(context.Background(), cfg, simOptions(), nil)
	if err != nil {
		t.Fatalf("runSimulation() error = %v", err)
	}

	s := result.Summary
	if s.Overwritten == 0 {
		t.Fatal("a consumer taking one record per second should fall behind a 10Hz stream")
	}
	// Every inserted record is either extracted or evicted once the run
	// flushes.
	if s.Extracted+s.Overwritten != s.Inserted {
		t.Errorf("extracted %d + overwritten %d != inserted %d", s.Extracted, s.Overwritten, s.Inserted)
	}
	if s.Remaining != 0 {
		t.Errorf("remaining = %d, want 0 after flush", s.Remaining)
	}
	if result.LossRate <= 0 || result.LossRate >= 1 {
		t.Errorf("loss rate = %.2f, want in (0, 1)", result.LossRate)
	}
}

func TestRunSimulation_JitterDrops(t *testing.T) {
	cfg := config.Default()
	cfg.Ring.OrderPolicy = "reject"
	imp := impair.Options{Mode: impair.ModeJitter, SigmaMS: 30, DropP: 0.5, Seed: 3}

	result, err := runSimulation(context.Background(), cfg, simOptions(), &imp)
	if err != nil {
		t.Fatalf("runSimulation() error = %v", err)
	}

	if result.Impaired != impair.ModeJitter {
		t.Errorf("impaired = %q, want jitter", result.Impaired)
	}
	if result.Streamed >= result.Generated {
		t.Errorf("streamed %d of %d, want drops", result.Streamed, result.Generated)
	}
	// The impaired stream arrives sorted by its new timestamps.
	if result.Summary.Rejected != 0 || !result.InOrder {
		t.Errorf("rejected = %d, in order = %v", result.Summary.Rejected, result.InOrder)
	}
}

func TestRunSimulation_InvalidImpairment(t *testing.T) {
	imp := impair.Options{Mode: "teleport"}
	if _, err := runSimulation(context.Background(), config.Default(), simOptions(), &imp); err == nil {
		t.Fatal("expected error for unknown impairment mode")
	}
}

func TestSimulateCmd_JSON(t *testing.T) {
	out, err := execute(t, "simulate", "--count", "50", "--seed", "9", "--correction-rate", "0.2", "--json")
	if err != nil {
		t.Fatalf("simulate failed: %v\n%s", err, out)
	}

	var got SimulationResult
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, out)
	}
	if got.Summary == nil || got.Summary.Inserted != 50 {
		t.Fatalf("summary = %+v, want 50 inserts", got.Summary)
	}
	if got.Generated <= 50 {
		t.Errorf("generated = %d, want corrections on top of 50 detections", got.Generated)
	}
	if got.Capacity != 256 || got.Order != "accept" {
		t.Errorf("ring = %d/%s, want defaults", got.Capacity, got.Order)
	}
}
