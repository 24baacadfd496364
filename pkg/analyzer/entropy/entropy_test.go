package entropy

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/software-gardening/almanack/internal/vcs"
)

var historyFiles = []string{"a.md", "b.md", "c.md"}

// buildHistoryRepo creates a repository with three commits:
//   - baseline content in a.md, b.md and c.md
//   - ten minutes later, one line appended to a.md and b.md
//   - three hours after that, one line appended to b.md and c.md
//
// Returns the repo path and the three commit hashes oldest-first.
func buildHistoryRepo(t *testing.T) (string, [3]string) {
	t.Helper()
	repoPath := t.TempDir()
	repo, err := git.PlainInit(repoPath, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	w, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	var hashes [3]string
	hashes[0] = commitFiles(t, w, repoPath, map[string]string{
		"a.md": "a1\n",
		"b.md": "b1\n",
		"c.md": "c1\n",
	}, "baseline", base)

	hashes[1] = commitFiles(t, w, repoPath, map[string]string{
		"a.md": "a1\na2\n",
		"b.md": "b1\nb2\n",
	}, "first burst", base.Add(10*time.Minute))

	hashes[2] = commitFiles(t, w, repoPath, map[string]string{
		"b.md": "b1\nb2\nb3\n",
		"c.md": "c1\nc2\n",
	}, "second burst", base.Add(10*time.Minute+3*time.Hour))

	return repoPath, hashes
}

func commitFiles(t *testing.T, w *git.Worktree, repoPath string, files map[string]string, msg string, when time.Time) string {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(repoPath, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := w.Add(name); err != nil {
			t.Fatal(err)
		}
	}
	hash, err := w.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  when,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return hash.String()
}

func TestNormalizedEntropy_TwoCommitRange(t *testing.T) {
	repoPath, hashes := buildHistoryRepo(t)
	a := New()

	result, err := a.NormalizedEntropy(context.Background(), repoPath, hashes[0], hashes[2], historyFiles)
	if err != nil {
		t.Fatalf("NormalizedEntropy() error = %v", err)
	}

	// a.md gained 1 line, b.md 2 lines, c.md 1 line: p = 0.25, 0.5, 0.25.
	want := map[string]float64{
		"a.md": 0.5, // -0.25*log2(0.25)
		"b.md": 0.5, // -0.5*log2(0.5)
		"c.md": 0.5,
	}
	for name, wantV := range want {
		if got, ok := result[name]; !ok || math.Abs(got-wantV) > 1e-9 {
			t.Errorf("entropy[%s] = %v, want %f", name, result[name], wantV)
		}
	}
}

func TestAggregateEntropy(t *testing.T) {
	repoPath, hashes := buildHistoryRepo(t)
	a := New()

	got, err := a.AggregateEntropy(context.Background(), repoPath, hashes[0], hashes[2], historyFiles)
	if err != nil {
		t.Fatalf("AggregateEntropy() error = %v", err)
	}
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("AggregateEntropy() = %f, want 0.5", got)
	}
}

func TestAggregateEntropy_UntouchedFileLowersAggregate(t *testing.T) {
	repoPath, hashes := buildHistoryRepo(t)
	a := New()

	files := append([]string{"never-changed.md"}, historyFiles...)
	got, err := a.AggregateEntropy(context.Background(), repoPath, hashes[0], hashes[2], files)
	if err != nil {
		t.Fatalf("AggregateEntropy() error = %v", err)
	}
	// Same entropy mass divided over four requested names instead of three.
	if math.Abs(got-1.5/4) > 1e-9 {
		t.Errorf("AggregateEntropy() = %f, want %f", got, 1.5/4)
	}
}

func TestAggregateEntropy_EmptyFileNames(t *testing.T) {
	repoPath, hashes := buildHistoryRepo(t)
	a := New()

	got, err := a.AggregateEntropy(context.Background(), repoPath, hashes[0], hashes[2], nil)
	if err != nil {
		t.Fatalf("AggregateEntropy() error = %v", err)
	}
	if got != 0.0 {
		t.Errorf("AggregateEntropy() with no files = %f, want 0.0", got)
	}
}

func TestHistoryComplexityWithDecay_EndToEnd(t *testing.T) {
	repoPath, hashes := buildHistoryRepo(t)
	a := New()

	result, err := a.HistoryComplexityWithDecay(context.Background(), repoPath, hashes[0], hashes[2], historyFiles, DefaultConfig())
	if err != nil {
		t.Fatalf("HistoryComplexityWithDecay() error = %v", err)
	}

	// Two periods: the ten-minute-later commit merges with nothing (the
	// baseline is the excluded source), and the three-hour-later commit
	// starts a fresh period. Each period splits changes evenly across two
	// files, so both carry entropy 1.0. The old period is 3 hours older
	// than the reference time.
	oldWeight := math.Exp(-(3.0 / DefaultDecayFactor))
	want := map[string]float64{
		"a.md": oldWeight,
		"b.md": oldWeight + 1.0,
		"c.md": 1.0,
	}
	for name, wantV := range want {
		if math.Abs(result[name]-wantV) > 1e-9 {
			t.Errorf("hcm[%s] = %f, want %f", name, result[name], wantV)
		}
	}

	if !(result["b.md"] > result["a.md"] && result["b.md"] > result["c.md"]) {
		t.Errorf("b.md participates in both bursts and must outscore a.md and c.md: %v", result)
	}
}

func TestHistoryComplexityWithDecay_KeySetMatchesRequest(t *testing.T) {
	repoPath, hashes := buildHistoryRepo(t)
	a := New()

	files := []string{"a.md", "missing.md", "also-missing.txt"}
	result, err := a.HistoryComplexityWithDecay(context.Background(), repoPath, hashes[0], hashes[2], files, DefaultConfig())
	if err != nil {
		t.Fatalf("HistoryComplexityWithDecay() error = %v", err)
	}
	if len(result) != len(files) {
		t.Fatalf("result has %d entries, want %d", len(result), len(files))
	}
	for _, name := range files {
		if _, ok := result[name]; !ok {
			t.Errorf("missing key %q in result", name)
		}
	}
	if result["missing.md"] != 0.0 || result["also-missing.txt"] != 0.0 {
		t.Errorf("untouched files must score 0.0: %v", result)
	}
}

func TestHistoryComplexityWithDecay_QuietWindowCollapse(t *testing.T) {
	repoPath, hashes := buildHistoryRepo(t)
	a := New()

	cfg := Config{DecayFactor: 10.0, QuietTime: 7 * 24 * 3600}
	result, err := a.HistoryComplexityWithDecay(context.Background(), repoPath, hashes[0], hashes[2], historyFiles, cfg)
	if err != nil {
		t.Fatalf("HistoryComplexityWithDecay() error = %v", err)
	}

	// One merged period {a:1, b:2, c:1}: entropy 1.5, decay weight 1.
	for _, name := range historyFiles {
		if math.Abs(result[name]-1.5) > 1e-9 {
			t.Errorf("hcm[%s] = %f, want 1.5 with a collapsed window", name, result[name])
		}
	}
}

func TestHistoryComplexityWithDecay_DecayFactorSensitivity(t *testing.T) {
	repoPath, hashes := buildHistoryRepo(t)
	a := New()
	ctx := context.Background()

	slow, err := a.HistoryComplexityWithDecay(ctx, repoPath, hashes[0], hashes[2], historyFiles, Config{DecayFactor: 100.0, QuietTime: 3600})
	if err != nil {
		t.Fatal(err)
	}
	fast, err := a.HistoryComplexityWithDecay(ctx, repoPath, hashes[0], hashes[2], historyFiles, Config{DecayFactor: 1.0, QuietTime: 3600})
	if err != nil {
		t.Fatal(err)
	}

	// a.md only changed in the old burst; shrinking the decay factor must
	// strictly shrink its score. c.md changed only in the newest period and
	// is unaffected by decay.
	if !(fast["a.md"] < slow["a.md"]) {
		t.Errorf("a.md: fast decay %f should be below slow decay %f", fast["a.md"], slow["a.md"])
	}
	if math.Abs(fast["c.md"]-slow["c.md"]) > 1e-9 {
		t.Errorf("c.md should be unaffected by decay factor: %f vs %f", fast["c.md"], slow["c.md"])
	}
}

func TestHistoryComplexityWithDecay_SourceEqualsTarget(t *testing.T) {
	repoPath, hashes := buildHistoryRepo(t)
	a := New()

	result, err := a.HistoryComplexityWithDecay(context.Background(), repoPath, hashes[2], hashes[2], historyFiles, DefaultConfig())
	if err != nil {
		t.Fatalf("HistoryComplexityWithDecay() error = %v", err)
	}
	for _, name := range historyFiles {
		if result[name] != 0.0 {
			t.Errorf("empty range must score 0.0, got hcm[%s] = %f", name, result[name])
		}
	}
}

func TestHistoryComplexityWithDecay_InvalidConfiguration(t *testing.T) {
	a := New()

	// Validation happens before any repository work, so even a bogus path
	// must surface the configuration error.
	_, err := a.HistoryComplexityWithDecay(context.Background(), "/nonexistent", "HEAD~1", "HEAD", historyFiles, Config{DecayFactor: 0, QuietTime: 3600})
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestAggregateHistoryComplexityWithDecay(t *testing.T) {
	repoPath, hashes := buildHistoryRepo(t)
	a := New()

	got, err := a.AggregateHistoryComplexityWithDecay(context.Background(), repoPath, hashes[0], hashes[2], historyFiles, DefaultConfig())
	if err != nil {
		t.Fatalf("AggregateHistoryComplexityWithDecay() error = %v", err)
	}

	oldWeight := math.Exp(-(3.0 / DefaultDecayFactor))
	want := (oldWeight + (oldWeight + 1.0) + 1.0) / 3
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("aggregate = %f, want %f", got, want)
	}
}

func TestAggregateHistoryComplexityWithDecay_EmptyFileNames(t *testing.T) {
	repoPath, hashes := buildHistoryRepo(t)
	a := New()

	got, err := a.AggregateHistoryComplexityWithDecay(context.Background(), repoPath, hashes[0], hashes[2], nil, DefaultConfig())
	if err != nil {
		t.Fatalf("AggregateHistoryComplexityWithDecay() error = %v", err)
	}
	if got != 0.0 {
		t.Errorf("aggregate with no files = %f, want 0.0", got)
	}
}

func TestIdempotence(t *testing.T) {
	repoPath, hashes := buildHistoryRepo(t)
	a := New()
	ctx := context.Background()

	first, err := a.HistoryComplexityWithDecay(ctx, repoPath, hashes[0], hashes[2], historyFiles, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.HistoryComplexityWithDecay(ctx, repoPath, hashes[0], hashes[2], historyFiles, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	for name := range first {
		if first[name] != second[name] {
			t.Errorf("hcm[%s] differs across identical calls: %v vs %v", name, first[name], second[name])
		}
	}
}

func TestNormalizedEntropy_RepositoryNotFound(t *testing.T) {
	a := New()
	_, err := a.NormalizedEntropy(context.Background(), t.TempDir(), "HEAD~1", "HEAD", historyFiles)
	if !errors.Is(err, vcs.ErrRepositoryNotFound) {
		t.Errorf("error = %v, want ErrRepositoryNotFound", err)
	}
}

func TestNormalizedEntropy_RevisionNotFound(t *testing.T) {
	repoPath, hashes := buildHistoryRepo(t)
	a := New()

	_, err := a.NormalizedEntropy(context.Background(), repoPath, "no-such-revision", hashes[2], historyFiles)
	if !errors.Is(err, vcs.ErrRevisionNotFound) {
		t.Errorf("error = %v, want ErrRevisionNotFound", err)
	}
}

func TestEditedFiles(t *testing.T) {
	repoPath, hashes := buildHistoryRepo(t)
	a := New()

	names, err := a.EditedFiles(context.Background(), repoPath, hashes[0], hashes[2])
	if err != nil {
		t.Fatalf("EditedFiles() error = %v", err)
	}
	if len(names) != 3 {
		t.Fatalf("EditedFiles() = %v, want 3 entries", names)
	}
	seen := make(map[string]bool)
	for _, n := range names {
		seen[n] = true
	}
	for _, want := range historyFiles {
		if !seen[want] {
			t.Errorf("EditedFiles() missing %s", want)
		}
	}
}

func TestHistoryComplexityWithDecay_ContextCancelled(t *testing.T) {
	repoPath, hashes := buildHistoryRepo(t)
	a := New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.HistoryComplexityWithDecay(ctx, repoPath, hashes[0], hashes[2], historyFiles, DefaultConfig())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
