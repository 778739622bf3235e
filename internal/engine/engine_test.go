package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go-goodhr-automation/internal/ai"
	"go-goodhr-automation/internal/models"
	"go-goodhr-automation/internal/quota"
	"go-goodhr-automation/internal/sampling"
	"go-goodhr-automation/internal/scanner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const user = "13800138000"

var today = models.Date{Year: 2026, Month: time.October, Day: 19}

type fakeRules struct {
	mu       sync.Mutex
	position string
	sets     map[string]models.KeywordRuleSet
	click    models.ClickPolicyConfig
	maxGreet int
	err      error
}

func (f *fakeRules) Snapshot(ctx context.Context, userID string) (models.RuleSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.RuleSnapshot{}, f.err
	}
	snap := models.RuleSnapshot{Position: f.position, Click: f.click, MaxGreet: f.maxGreet}
	if f.position == "" {
		return snap, nil
	}
	rs, ok := f.sets[f.position]
	if !ok {
		return snap, models.ErrRuleSetNotFound
	}
	snap.Rules = &rs
	return snap, nil
}

func (f *fakeRules) setInclude(position string, include ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets[position] = models.KeywordRuleSet{Include: include, Relation: models.RelationAny}
}

type fakeQuotas struct {
	state    *models.QuotaState
	saves    int
	failNext int
	loadErr  error
}

func (f *fakeQuotas) QuotaState(ctx context.Context, userID string) (*models.QuotaState, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.state.Clone(), nil
}

func (f *fakeQuotas) SaveQuotaState(ctx context.Context, userID string, state *models.QuotaState) error {
	if f.failNext > 0 {
		f.failNext--
		return errors.New("disk full")
	}
	f.saves++
	f.state = state.Clone()
	return nil
}

func (f *fakeQuotas) free() *models.VersionQuota {
	return f.state.Versions[models.TierFree]
}

type fakeActuator struct {
	clicks [][2]int
	err    error
}

func (f *fakeActuator) MoveAndClick(ctx context.Context, x, y int) error {
	f.clicks = append(f.clicks, [2]int{x, y})
	return f.err
}

type fakeScreener struct {
	greet  map[string]bool
	tokens int
	err    error
	calls  []string
	descs  []string
}

func (f *fakeScreener) Screen(ctx context.Context, candidateText, jobDescription string) (ai.Verdict, error) {
	f.calls = append(f.calls, candidateText)
	f.descs = append(f.descs, jobDescription)
	if f.err != nil {
		return ai.Verdict{}, f.err
	}
	for name, yes := range f.greet {
		if strings.HasPrefix(candidateText, name) {
			answer := "否"
			if yes {
				answer = "是"
			}
			return ai.Verdict{Greet: yes, Answer: answer, TotalTokens: f.tokens}, nil
		}
	}
	return ai.Verdict{Answer: "否", TotalTokens: f.tokens}, nil
}

type fakeSeen map[string]bool

func (f fakeSeen) IsSeen(key string) bool { return f[key] }
func (f fakeSeen) Mark(keys ...string) {
	for _, k := range keys {
		f[k] = true
	}
}

type recordingReporter struct {
	matches []Outcome
	stops   []Summary
	errs    []error
}

func (r *recordingReporter) ReportMatch(ctx context.Context, out Outcome) error {
	r.matches = append(r.matches, out)
	return nil
}

func (r *recordingReporter) ReportStop(ctx context.Context, sum Summary) error {
	r.stops = append(r.stops, sum)
	return nil
}

func (r *recordingReporter) ReportError(ctx context.Context, err error) error {
	r.errs = append(r.errs, err)
	return nil
}

type fixture struct {
	rules  *fakeRules
	quotas *fakeQuotas
	act    *fakeActuator
	engine *Engine
}

func newFixture(t *testing.T, remaining int) *fixture {
	t.Helper()
	state := models.DefaultQuotaState(today)
	state.Versions[models.TierFree].RemainingQuota = remaining
	state.Versions[models.TierFree].GreetCount = models.FreeDailyQuota - remaining

	f := &fixture{
		rules: &fakeRules{
			position: "销售",
			sets: map[string]models.KeywordRuleSet{
				"销售": {Include: []string{"本科"}, Exclude: []string{"电话销售"}, Relation: models.RelationAny},
			},
			click: models.ClickPolicyConfig{Enabled: true, FrequencyPerTen: 10, ViewDuration: models.DurationRange{Min: 3, Max: 5}},
		},
		quotas: &fakeQuotas{state: state},
		act:    &fakeActuator{},
	}
	f.engine = New(f.rules, f.quotas, f.act,
		WithPolicy(sampling.NewSeeded(1)),
		WithClock(func() models.Date { return today }),
	)
	return f
}

func candidate(name, description string) scanner.Item {
	return scanner.Item{
		Record: models.CandidateRecord{Name: name, Age: models.IntPtr(28), Education: "本科", Description: description},
		Target: &models.Point{X: 100, Y: 200},
		Key:    name,
	}
}

func start(t *testing.T, f *fixture) State {
	t.Helper()
	st, err := f.engine.Start(context.Background(), user)
	require.NoError(t, err)
	return st
}

func TestStep_MatchGreetsAndClicks(t *testing.T) {
	f := newFixture(t, 10)
	st := start(t, f)

	st, out, err := f.engine.Step(context.Background(), st, candidate("张三", "三年销售经验"))
	require.NoError(t, err)

	assert.True(t, out.Matched)
	assert.True(t, out.Allowed)
	assert.True(t, out.Clicked)
	assert.Equal(t, []string{"本科"}, out.Verdict.Hits)
	assert.GreaterOrEqual(t, out.Dwell, 3*time.Second)
	assert.LessOrEqual(t, out.Dwell, 5*time.Second)
	assert.Equal(t, [][2]int{{100, 200}}, f.act.clicks)

	assert.Equal(t, 1, st.Greeted)
	assert.False(t, st.PendingPersist)
	assert.Equal(t, 9, f.quotas.free().RemainingQuota, "saved right after the greeting")
	assert.Equal(t, 1, f.quotas.saves)
}

func TestStep_ExcludedCandidate(t *testing.T) {
	f := newFixture(t, 10)
	st := start(t, f)

	st, out, err := f.engine.Step(context.Background(), st, candidate("李四", "做过电话销售"))
	require.NoError(t, err)

	assert.False(t, out.Matched)
	assert.Equal(t, "电话销售", out.Verdict.Vetoed)
	assert.Equal(t, 1, st.Scanned)
	assert.Equal(t, 0, st.Matched)
	assert.Empty(t, f.act.clicks)
	assert.Equal(t, 10, f.quotas.free().RemainingQuota)
}

func TestStep_NoClickWithoutTarget(t *testing.T) {
	f := newFixture(t, 10)
	st := start(t, f)
	item := candidate("张三", "")
	item.Target = nil

	_, out, err := f.engine.Step(context.Background(), st, item)
	require.NoError(t, err)
	assert.True(t, out.Allowed)
	assert.False(t, out.Clicked)
	assert.Zero(t, out.Dwell)
}

func TestStep_ActuatorFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, 10)
	f.act.err = errors.New("connection refused")
	st := start(t, f)

	st, out, err := f.engine.Step(context.Background(), st, candidate("张三", ""))
	require.NoError(t, err)
	assert.True(t, out.Allowed)
	assert.False(t, out.Clicked)
	assert.Error(t, out.ActuatorErr)
	assert.Equal(t, 1, st.Greeted)
	assert.Equal(t, 0, st.Clicked)
}

func TestStep_FreeQuotaExhausted(t *testing.T) {
	f := newFixture(t, 1)
	st := start(t, f)

	st, out, err := f.engine.Step(context.Background(), st, candidate("a", ""))
	require.NoError(t, err)
	assert.True(t, out.Allowed)
	assert.Equal(t, StopNone, st.Stop)

	st, out, err = f.engine.Step(context.Background(), st, candidate("b", ""))
	require.NoError(t, err)
	assert.True(t, out.Matched)
	assert.False(t, out.Allowed)
	assert.Equal(t, StopFreeExhausted, st.Stop)
	assert.Equal(t, 0, st.Quota.Active().RemainingQuota)
	assert.Equal(t, 100, st.Quota.Active().GreetCount)
}

func TestStart_EnterpriseExhausted(t *testing.T) {
	f := newFixture(t, 10)
	f.quotas.state.Version = models.TierEnterprise

	st := start(t, f)
	assert.Equal(t, StopEnterpriseExhausted, st.Stop)
}

func TestStart_DailyResetIsSaved(t *testing.T) {
	f := newFixture(t, 0)
	f.quotas.state.Versions[models.TierFree].LastResetDate = today.AddDays(-1)

	st := start(t, f)
	assert.Equal(t, StopNone, st.Stop)
	assert.True(t, st.PendingPersist)
	assert.Equal(t, 100, st.Quota.Active().RemainingQuota)

	st, _, err := f.engine.Step(context.Background(), st, candidate("a", ""))
	require.NoError(t, err)
	assert.Equal(t, 99, f.quotas.free().RemainingQuota)
	assert.Equal(t, today, f.quotas.free().LastResetDate)
}

func TestStart_InvalidQuota(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"missing user", models.ErrUserNotFound},
		{"malformed", models.ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 10)
			f.quotas.loadErr = tt.err
			_, err := f.engine.Start(context.Background(), user)
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, StopInvalidQuota, ce.Reason)
		})
	}

	f := newFixture(t, 10)
	f.quotas.state.Versions = nil
	_, err := f.engine.Start(context.Background(), user)
	assert.ErrorIs(t, err, quota.ErrInvalidState)
}

func TestStep_MissingRuleSet(t *testing.T) {
	f := newFixture(t, 10)
	st := start(t, f)
	f.rules.position = "司机"

	_, _, err := f.engine.Step(context.Background(), st, candidate("a", ""))
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, StopNoRules, ce.Reason)
	assert.ErrorIs(t, err, models.ErrRuleSetNotFound)
}

func TestStep_NoPositionMatchesAll(t *testing.T) {
	f := newFixture(t, 10)
	f.rules.position = ""
	st := start(t, f)

	_, out, err := f.engine.Step(context.Background(), st, candidate("李四", "做过电话销售"))
	require.NoError(t, err)
	assert.True(t, out.Matched)
	assert.True(t, out.Verdict.NoRules)
}

func TestStep_RulesHotSwap(t *testing.T) {
	f := newFixture(t, 10)
	st := start(t, f)
	item := candidate("王五", "golang")
	item.Record.Education = "大专"

	st, out, err := f.engine.Step(context.Background(), st, item)
	require.NoError(t, err)
	assert.False(t, out.Matched)

	f.rules.setInclude("销售", "golang")
	item.Key = "王五-2"
	_, out, err = f.engine.Step(context.Background(), st, item)
	require.NoError(t, err)
	assert.True(t, out.Matched, "new rules apply to the next candidate")
}

func TestStep_PersistFailureRetriedWithoutDoubleCount(t *testing.T) {
	f := newFixture(t, 10)
	st := start(t, f)
	f.quotas.failNext = 2

	st, out, err := f.engine.Step(context.Background(), st, candidate("a", ""))
	require.NoError(t, err)
	assert.True(t, out.Allowed)
	assert.Error(t, out.PersistErr)
	assert.True(t, st.PendingPersist)
	assert.Equal(t, 9, st.Quota.Active().RemainingQuota)

	//second save attempt also fails: the candidate is not consumed
	next, _, err := f.engine.Step(context.Background(), st, candidate("b", ""))
	require.Error(t, err)
	assert.True(t, IsPersistenceError(err))
	assert.Equal(t, st.Scanned, next.Scanned)
	assert.Equal(t, 9, next.Quota.Active().RemainingQuota)

	//third attempt saves the pending state, then charges b once
	next, out, err = f.engine.Step(context.Background(), next, candidate("b", ""))
	require.NoError(t, err)
	assert.True(t, out.Allowed)
	assert.Equal(t, 8, next.Quota.Active().RemainingQuota)
	assert.Equal(t, 8, f.quotas.free().RemainingQuota)
	assert.Equal(t, 2, f.quotas.saves)
}

func TestStep_SkipsSeenCandidates(t *testing.T) {
	f := newFixture(t, 10)
	seen := fakeSeen{"张三": true}
	f.engine = New(f.rules, f.quotas, f.act, WithSeenCache(seen),
		WithPolicy(sampling.NewSeeded(1)), WithClock(func() models.Date { return today }))
	st := start(t, f)

	st, out, err := f.engine.Step(context.Background(), st, candidate("张三", ""))
	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.Equal(t, 1, st.Skipped)
	assert.Equal(t, 10, f.quotas.free().RemainingQuota)

	_, out, err = f.engine.Step(context.Background(), st, candidate("李四", ""))
	require.NoError(t, err)
	assert.True(t, out.Allowed)
	assert.True(t, seen["李四"], "greeted candidates are remembered")
}

func TestStep_GreetLimit(t *testing.T) {
	f := newFixture(t, 10)
	f.rules.maxGreet = 1
	st := start(t, f)

	st, _, err := f.engine.Step(context.Background(), st, candidate("a", ""))
	require.NoError(t, err)
	assert.Equal(t, StopGreetLimit, st.Stop)
}

func TestSession_RunUntilFeedEnds(t *testing.T) {
	f := newFixture(t, 10)
	f.rules.click.Enabled = false
	rep := &recordingReporter{}
	stats := NewStats()
	sess := NewSession(f.engine, user, rep, stats)

	feed := scanner.NewSliceFeed(
		candidate("张三", "三年销售经验"),
		candidate("李四", "做过电话销售"),
		candidate("王五", ""),
	)
	sum, err := sess.Run(context.Background(), feed)
	require.NoError(t, err)

	assert.Equal(t, StopFeedDone, sum.Reason)
	assert.Equal(t, 3, sum.Scanned)
	assert.Equal(t, 2, sum.Matched)
	assert.Equal(t, 2, sum.Greeted)
	assert.Equal(t, 8, sum.Remaining)
	assert.Len(t, rep.matches, 2)
	require.Len(t, rep.stops, 1)
	assert.Empty(t, rep.errs)

	snap := stats.Snapshot()
	assert.False(t, snap.Running)
	assert.Equal(t, 2, snap.Greeted)
	assert.Len(t, snap.Matches, 2)
	assert.Equal(t, "张三", snap.Matches[0].Name)
}

func TestSession_StopsOnExhaustion(t *testing.T) {
	f := newFixture(t, 1)
	f.rules.click.Enabled = false
	sess := NewSession(f.engine, user, nil, nil)

	sum, err := sess.Run(context.Background(), scanner.NewSliceFeed(candidate("a", ""), candidate("b", ""), candidate("c", "")))
	require.NoError(t, err)
	assert.Equal(t, StopFreeExhausted, sum.Reason)
	assert.Equal(t, 1, sum.Greeted)
	assert.Equal(t, 2, sum.Scanned)
}

func TestSession_ConfigErrorHalts(t *testing.T) {
	f := newFixture(t, 10)
	f.rules.position = "司机"
	rep := &recordingReporter{}
	sess := NewSession(f.engine, user, rep, nil)

	sum, err := sess.Run(context.Background(), scanner.NewSliceFeed(candidate("a", "")))
	assert.True(t, IsConfigError(err))
	assert.Equal(t, StopNoRules, sum.Reason)
	assert.Len(t, rep.errs, 1)
}

func TestSession_FinalFlushAfterCancel(t *testing.T) {
	f := newFixture(t, 10)
	f.rules.click.ViewDuration = models.DurationRange{Min: 60, Max: 60}
	f.quotas.failNext = 1
	sess := NewSession(f.engine, user, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	sum, err := sess.Run(ctx, scanner.NewSliceFeed(candidate("a", ""), candidate("b", "")))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StopCancelled, sum.Reason)
	assert.Equal(t, 1, sum.Greeted)
	assert.Equal(t, 9, f.quotas.free().RemainingQuota, "pending save flushed on the way out")
}

func TestSession_PersistRetries(t *testing.T) {
	f := newFixture(t, 10)
	f.rules.click.Enabled = false
	f.quotas.failNext = 2
	sess := NewSession(f.engine, user, nil, nil)
	sess.PersistBackoff = time.Millisecond

	sum, err := sess.Run(context.Background(), scanner.NewSliceFeed(candidate("a", ""), candidate("b", "")))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Greeted)
	assert.Equal(t, 8, f.quotas.free().RemainingQuota)
}

func newEnterpriseFixture(t *testing.T, balance int, sc *fakeScreener) *fixture {
	t.Helper()
	f := newFixture(t, 10)
	f.quotas.state.Version = models.TierEnterprise
	f.quotas.state.Versions[models.TierEnterprise].RemainingQuota = balance
	f.rules.sets["销售"] = models.KeywordRuleSet{
		Include:     []string{"本科"},
		Exclude:     []string{"电话销售"},
		Relation:    models.RelationAny,
		Description: "招聘销售经理，三年以上经验",
	}
	f.engine = New(f.rules, f.quotas, f.act,
		WithScreener(sc),
		WithPolicy(sampling.NewSeeded(1)),
		WithClock(func() models.Date { return today }),
	)
	return f
}

func (f *fixture) enterprise() *models.VersionQuota {
	return f.quotas.state.Versions[models.TierEnterprise]
}

func TestStep_EnterpriseScreenedGreet(t *testing.T) {
	sc := &fakeScreener{greet: map[string]bool{"张三": true}, tokens: 150}
	f := newEnterpriseFixture(t, 5, sc)
	st := start(t, f)

	//keyword rules would exclude this candidate; the AI decides instead
	st, out, err := f.engine.Step(context.Background(), st, candidate("张三", "做过电话销售"))
	require.NoError(t, err)
	assert.True(t, out.Screened)
	assert.True(t, out.Matched)
	assert.True(t, out.Allowed)
	assert.Equal(t, 150, out.Tokens)
	assert.Equal(t, []string{"招聘销售经理，三年以上经验"}, sc.descs)
	assert.Equal(t, "张三 28 本科 做过电话销售", sc.calls[0])

	assert.Equal(t, 1, st.Greeted)
	assert.Equal(t, StopNone, st.Stop)
	assert.Equal(t, 4, f.enterprise().RemainingQuota)
	assert.Equal(t, 1, f.enterprise().GreetCount)
	assert.Equal(t, 150, f.enterprise().TokensUsed)
	assert.Equal(t, 10, f.quotas.free().RemainingQuota, "free tier untouched")
}

func TestStep_EnterpriseScreenedRejectStillCharged(t *testing.T) {
	sc := &fakeScreener{tokens: 80}
	f := newEnterpriseFixture(t, 5, sc)
	st := start(t, f)

	st, out, err := f.engine.Step(context.Background(), st, candidate("李四", "三年销售经验"))
	require.NoError(t, err)
	assert.True(t, out.Screened)
	assert.False(t, out.Matched)
	assert.False(t, out.Allowed)
	assert.Empty(t, f.act.clicks)

	assert.Equal(t, 0, st.Greeted)
	assert.False(t, st.PendingPersist, "charge saved right away")
	assert.Equal(t, 4, f.enterprise().RemainingQuota)
	assert.Equal(t, 0, f.enterprise().GreetCount)
	assert.Equal(t, 80, f.enterprise().TokensUsed)
}

func TestStep_EnterpriseLastAnalysisGreetsThenStops(t *testing.T) {
	sc := &fakeScreener{greet: map[string]bool{"张三": true}, tokens: 10}
	f := newEnterpriseFixture(t, 1, sc)
	st := start(t, f)

	st, out, err := f.engine.Step(context.Background(), st, candidate("张三", ""))
	require.NoError(t, err)
	assert.True(t, out.Allowed)
	assert.True(t, out.Clicked)
	assert.Equal(t, StopEnterpriseExhausted, st.Stop)
	assert.Equal(t, 0, f.enterprise().RemainingQuota)
	assert.Equal(t, 1, f.enterprise().GreetCount)
}

func TestStep_EnterpriseRejectOnLastAnalysisStops(t *testing.T) {
	sc := &fakeScreener{tokens: 10}
	f := newEnterpriseFixture(t, 1, sc)
	st := start(t, f)

	st, _, err := f.engine.Step(context.Background(), st, candidate("李四", ""))
	require.NoError(t, err)
	assert.Equal(t, StopEnterpriseExhausted, st.Stop)
	assert.Equal(t, 0, f.enterprise().RemainingQuota)
}

func TestStep_EnterpriseScreenFailureIsFree(t *testing.T) {
	sc := &fakeScreener{err: errors.New("502 bad gateway")}
	f := newEnterpriseFixture(t, 5, sc)
	st := start(t, f)

	st, out, err := f.engine.Step(context.Background(), st, candidate("张三", ""))
	require.NoError(t, err)
	assert.Error(t, out.ScreenErr)
	assert.False(t, out.Screened)
	assert.False(t, out.Matched)
	assert.Equal(t, StopNone, st.Stop)
	assert.Equal(t, 5, f.enterprise().RemainingQuota)
	assert.Zero(t, f.quotas.saves)
}

func TestStep_EnterpriseNeedsDescription(t *testing.T) {
	sc := &fakeScreener{}
	f := newEnterpriseFixture(t, 5, sc)
	f.rules.setInclude("销售", "本科")
	st := start(t, f)

	_, _, err := f.engine.Step(context.Background(), st, candidate("张三", ""))
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, StopNoDescription, ce.Reason)
	assert.Empty(t, sc.calls)

	f.rules.position = ""
	_, _, err = f.engine.Step(context.Background(), st, candidate("张三", ""))
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, StopNoDescription, ce.Reason)
}

func TestStep_FreeTierIgnoresScreener(t *testing.T) {
	sc := &fakeScreener{greet: map[string]bool{"李四": true}}
	f := newEnterpriseFixture(t, 5, sc)
	f.quotas.state.Version = models.TierFree
	st := start(t, f)

	_, out, err := f.engine.Step(context.Background(), st, candidate("李四", "做过电话销售"))
	require.NoError(t, err)
	assert.False(t, out.Matched, "keywords still exclude on the free tier")
	assert.Equal(t, "电话销售", out.Verdict.Vetoed)
	assert.Empty(t, sc.calls)
}

func TestStep_EnterpriseWithoutScreenerUsesKeywords(t *testing.T) {
	f := newFixture(t, 10)
	f.quotas.state.Version = models.TierEnterprise
	f.quotas.state.Versions[models.TierEnterprise].RemainingQuota = 5
	st := start(t, f)

	_, out, err := f.engine.Step(context.Background(), st, candidate("张三", "三年销售经验"))
	require.NoError(t, err)
	assert.True(t, out.Allowed)
	assert.False(t, out.Screened)
	assert.Equal(t, []string{"本科"}, out.Verdict.Hits)
	assert.Equal(t, 5, f.enterprise().RemainingQuota, "greetings alone do not spend the balance")
	assert.Equal(t, 1, f.enterprise().GreetCount)
}

func TestSession_EnterpriseScreeningRunsDownBalance(t *testing.T) {
	sc := &fakeScreener{greet: map[string]bool{"a": true, "c": true}, tokens: 5}
	f := newEnterpriseFixture(t, 2, sc)
	f.rules.click.Enabled = false
	rep := &recordingReporter{}
	sess := NewSession(f.engine, user, rep, nil)

	sum, err := sess.Run(context.Background(), scanner.NewSliceFeed(candidate("a", ""), candidate("b", ""), candidate("c", "")))
	require.NoError(t, err)
	assert.Equal(t, StopEnterpriseExhausted, sum.Reason)
	assert.Equal(t, 2, sum.Scanned)
	assert.Equal(t, 1, sum.Greeted)
	assert.Len(t, rep.matches, 1)
	assert.Equal(t, 0, f.enterprise().RemainingQuota)
	assert.Equal(t, 10, f.enterprise().TokensUsed)
}

func TestStep_PositionSwitchReadsOneSnapshot(t *testing.T) {
	f := newFixture(t, 10)
	st := start(t, f)

	//position switched and the old one removed in one edit
	f.rules.mu.Lock()
	f.rules.position = "golang"
	f.rules.sets = map[string]models.KeywordRuleSet{"golang": {Include: []string{"golang"}, Relation: models.RelationAny}}
	f.rules.mu.Unlock()

	item := candidate("王五", "golang")
	item.Record.Education = "大专"
	st, out, err := f.engine.Step(context.Background(), st, item)
	require.NoError(t, err)
	assert.True(t, out.Matched)
	assert.Equal(t, "golang", st.Position)
}
