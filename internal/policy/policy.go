// Package policy compiles a validated policy file into the immutable snapshot
// the engine evaluates against. A reload builds a new Policy and swaps it in
// whole; a Policy is never mutated after Build.
package policy

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/spendguard/internal/config"
	"github.com/gyaneshwarpardhi/spendguard/internal/custom"
	"github.com/gyaneshwarpardhi/spendguard/internal/rules"
	"github.com/gyaneshwarpardhi/spendguard/internal/spending"
)

// ErrUnknownAccount is returned when an account has no limit assigned.
var ErrUnknownAccount = errors.New("unknown account")

// Policy is a compiled rule set plus the spending limits it governs.
type Policy struct {
	version     string
	engine      *rules.Engine
	limits      map[string]spending.LimitConfig
	accounts    map[string]string
	fingerprint string
	settings    config.EngineConf
}

// Build constructs a Policy from a validated PolicyConfig. eval decides
// custom conditions; nil selects the evaluator for the configured dialect.
// Every custom condition is compiled here so evaluation never parses.
func Build(cfg *config.PolicyConfig, eval custom.Evaluator) (*Policy, error) {
	if eval == nil {
		var err error
		eval, err = custom.New(custom.Dialect(cfg.Engine.CustomDialect))
		if err != nil {
			return nil, err
		}
	}

	rs := make([]rules.ApprovalRule, len(cfg.Rules))
	for i, def := range cfg.Rules {
		rs[i] = def.ApprovalRule()
		for j, c := range rs[i].Conditions {
			if c.Type != rules.ConditionCustom {
				continue
			}
			if err := eval.Check(c.Value); err != nil {
				return nil, fmt.Errorf("rule %s: condition %d: %w", def.ID, j, err)
			}
		}
	}

	limits := make(map[string]spending.LimitConfig, len(cfg.Limits))
	for name, def := range cfg.Limits {
		limits[name] = def.LimitConfig()
	}
	accounts := make(map[string]string, len(cfg.Accounts))
	for id, limit := range cfg.Accounts {
		if _, ok := limits[limit]; !ok {
			return nil, fmt.Errorf("account %s: unknown limit %q", id, limit)
		}
		accounts[id] = limit
	}

	fp, err := Fingerprint(cfg)
	if err != nil {
		return nil, err
	}
	return &Policy{
		version:     cfg.Version,
		engine:      rules.NewEngine(rs, rules.WithCustomEvaluator(eval)),
		limits:      limits,
		accounts:    accounts,
		fingerprint: fp,
		settings:    cfg.Engine,
	}, nil
}

// FromRules wraps a bare rule set, such as rules.DefaultApprovalRules, in a
// Policy with no spending limits.
func FromRules(rs []rules.ApprovalRule, eval custom.Evaluator) (*Policy, error) {
	if eval == nil {
		eval = custom.KeyEvaluator{}
	}
	fp, err := fingerprint(rs)
	if err != nil {
		return nil, err
	}
	cfg := config.PolicyConfig{}
	cfg.SetDefaults()
	return &Policy{
		version:     "builtin",
		engine:      rules.NewEngine(rs, rules.WithCustomEvaluator(eval)),
		limits:      map[string]spending.LimitConfig{},
		accounts:    map[string]string{},
		fingerprint: fp,
		settings:    cfg.Engine,
	}, nil
}

// Fingerprint hashes the canonical YAML form of cfg. Two configs with the
// same content share a fingerprint regardless of key order in the source.
func Fingerprint(cfg *config.PolicyConfig) (string, error) {
	return fingerprint(cfg)
}

func fingerprint(v any) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("policy fingerprint: %w", err)
	}
	h := xxhash.New()
	_, _ = h.Write(data)
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// Evaluate runs the rule set against ctx.
func (p *Policy) Evaluate(ctx rules.RuleEvaluationContext) rules.RuleEvaluationResult {
	return p.engine.Evaluate(ctx)
}

// Rules returns the rules in evaluation order.
func (p *Policy) Rules() []rules.ApprovalRule { return p.engine.Rules() }

// Version is the policy file's version string.
func (p *Policy) Version() string { return p.version }

// Fingerprint identifies the policy content.
func (p *Policy) Fingerprint() string { return p.fingerprint }

// Settings returns the engine tuning the policy was loaded with.
func (p *Policy) Settings() config.EngineConf { return p.settings }

// EvalTimeout is the per-request evaluation budget.
func (p *Policy) EvalTimeout() time.Duration {
	return time.Duration(p.settings.EvalTimeoutMs) * time.Millisecond
}

// Limit returns the named limit.
func (p *Policy) Limit(name string) (spending.LimitConfig, bool) {
	l, ok := p.limits[name]
	return l, ok
}

// LimitFor returns the limit assigned to account.
func (p *Policy) LimitFor(account string) (spending.LimitConfig, error) {
	name, ok := p.accounts[account]
	if !ok {
		return spending.LimitConfig{}, fmt.Errorf("%w: %s", ErrUnknownAccount, account)
	}
	return p.limits[name], nil
}

// Limits returns a copy of the named limits.
func (p *Policy) Limits() map[string]spending.LimitConfig {
	out := make(map[string]spending.LimitConfig, len(p.limits))
	for k, v := range p.limits {
		out[k] = v
	}
	return out
}

// Accounts returns the configured account ids, sorted.
func (p *Policy) Accounts() []string {
	out := make([]string, 0, len(p.accounts))
	for id := range p.accounts {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
