package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

const samplePolicy = `
version: "1"
engine:
  workers: 4
  custom_dialect: expr
rules:
  - id: auto-small
    name: Auto-approve small orders
    priority: 10
    conditions:
      - type: amount_less_than
        value: 500
    action:
      type: auto_approve
  - id: wholesale-gold
    priority: 15
    is_active: false
    conditions:
      - type: custom
        value: 'customData.channel == "wholesale" AND customData.tier in ["gold"]'
    action:
      type: require_multi_approval
      approver_ids: [ops_lead, finance]
      required_approvals: 2
limits:
  monthly-store:
    max_amount: 10000
    period: monthly
    soft_limit_percentage: 80
accounts:
  store-42: monthly-store
`

func writePolicy(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "policy.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParse_DefaultsAndConversion(t *testing.T) {
	cfg, err := Parse([]byte(samplePolicy))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Engine.Workers != 4 {
		t.Errorf("workers = %d, want 4", cfg.Engine.Workers)
	}
	if cfg.Engine.QueueDepth != DefaultQueueDepth || cfg.Engine.EvalTimeoutMs != DefaultEvalTimeoutMs {
		t.Errorf("defaults not applied: %+v", cfg.Engine)
	}

	auto := cfg.Rules[0].ApprovalRule()
	if !auto.IsActive {
		t.Error("omitted is_active should mean active")
	}
	if v, ok := auto.Conditions[0].Value.(int); !ok || v != 500 {
		t.Errorf("condition value = %#v", auto.Conditions[0].Value)
	}
	if cfg.Rules[1].ApprovalRule().IsActive {
		t.Error("is_active: false should be honoured")
	}

	limit := cfg.Limits["monthly-store"].LimitConfig()
	if limit.MaxAmount != 10000 || limit.Period != "monthly" || limit.SoftLimitPercentage != 80 {
		t.Errorf("limit = %+v", limit)
	}
}

func TestLoader_ReloadKeepsPreviousOnError(t *testing.T) {
	path := writePolicy(t, t.TempDir(), samplePolicy)
	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	var calls int
	l.OnChange(func(*PolicyConfig) error { calls++; return nil })

	if err := os.WriteFile(path, []byte("version: \"1\"\nrules:\n  - id: x\n    action: {type: launch}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if l.Config().Engine.Workers != 4 || calls != 0 {
		t.Errorf("previous config should stay active, calls=%d", calls)
	}

	if err := os.WriteFile(path, []byte(strings.Replace(samplePolicy, "workers: 4", "workers: 6", 1)), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := l.Reload()
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if cfg.Engine.Workers != 6 || calls != 1 {
		t.Errorf("workers = %d calls = %d", cfg.Engine.Workers, calls)
	}
}

func TestLoader_RejectedByCallback(t *testing.T) {
	path := writePolicy(t, t.TempDir(), samplePolicy)
	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	var later int
	l.OnChange(func(c *PolicyConfig) error {
		if c.Engine.Workers == 6 {
			return errors.New("not today")
		}
		return nil
	})
	l.OnChange(func(*PolicyConfig) error { later++; return nil })

	if err := os.WriteFile(path, []byte(strings.Replace(samplePolicy, "workers: 4", "workers: 6", 1)), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Reload(); err == nil || !strings.Contains(err.Error(), "not today") {
		t.Fatalf("err = %v, want callback rejection", err)
	}
	if l.Config().Engine.Workers != 4 || later != 0 {
		t.Errorf("rejected config must not become current: workers=%d later=%d", l.Config().Engine.Workers, later)
	}

	if err := os.WriteFile(path, []byte(strings.Replace(samplePolicy, "workers: 4", "workers: 7", 1)), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if l.Config().Engine.Workers != 7 || later != 1 {
		t.Errorf("workers=%d later=%d", l.Config().Engine.Workers, later)
	}
}

func TestNewLoader_MissingFile(t *testing.T) {
	if _, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoader_WatchHotReload(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := writePolicy(t, t.TempDir(), samplePolicy)
	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	changed := make(chan *PolicyConfig, 4)
	l.OnChange(func(c *PolicyConfig) error { changed <- c; return nil })

	stop, err := l.Watch()
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	writePolicy(t, filepath.Dir(path), strings.Replace(samplePolicy, "workers: 4", "workers: 9", 1))

	select {
	case c := <-changed:
		if c.Engine.Workers != 9 {
			t.Errorf("workers = %d, want 9", c.Engine.Workers)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}
	stop()
}
