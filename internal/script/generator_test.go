package script

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

type fakeStore struct {
	recent []string
	dups   map[string]bool
	added  []string
}

func (f *fakeStore) Recent(ctx context.Context, topic string, limit int) ([]string, error) {
	return f.recent, nil
}

func (f *fakeStore) IsDuplicate(ctx context.Context, topic, fact string) (bool, error) {
	return f.dups[fact], nil
}

func (f *fakeStore) Add(ctx context.Context, topic, fact string) error {
	f.added = append(f.added, fact)
	return nil
}

func staticCompleter(raw string) CompleteFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		return raw, nil
	}
}

func TestGenerateAssemblesScript(t *testing.T) {
	store := &fakeStore{dups: map[string]bool{}}
	g := NewWithCompleter([]string{"space"}, store, staticCompleter(
		`{"hook":"Did you know this?","fact":"Venus spins backwards.","explanation":"A massive ancient impact likely flipped its rotation.","cta":"Follow for more!"}`,
	))

	script, err := g.Generate(context.Background(), "space", rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if script.Topic != "space" {
		t.Errorf("topic = %q, want space", script.Topic)
	}
	want := "Did you know this? Venus spins backwards. A massive ancient impact likely flipped its rotation. Follow for more!"
	if script.FullText != want {
		t.Errorf("full text = %q, want %q", script.FullText, want)
	}
	if script.WordCount != len(strings.Fields(want)) {
		t.Errorf("word count = %d, want %d", script.WordCount, len(strings.Fields(want)))
	}
	if script.EstimatedDuration <= 0 {
		t.Errorf("estimated duration = %f, want > 0", script.EstimatedDuration)
	}
	if len(store.added) != 1 || store.added[0] != "Venus spins backwards." {
		t.Errorf("stored facts = %v, want the accepted fact", store.added)
	}
}

func TestGeneratePicksRandomTopic(t *testing.T) {
	topics := []string{"space", "ocean", "history"}
	store := &fakeStore{dups: map[string]bool{}}
	g := NewWithCompleter(topics, store, staticCompleter(
		`{"hook":"Hook here","fact":"A fact.","explanation":"Because.","cta":"Follow!"}`,
	))

	script, err := g.Generate(context.Background(), "", rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	found := false
	for _, topic := range topics {
		if script.Topic == topic {
			found = true
		}
	}
	if !found {
		t.Errorf("topic %q not in configured list", script.Topic)
	}
}

func TestGenerateRejectsDuplicates(t *testing.T) {
	responses := []string{
		`{"hook":"H","fact":"old fact","explanation":"E","cta":"C"}`,
		`{"hook":"H","fact":"fresh fact","explanation":"E","cta":"C"}`,
	}
	call := 0
	complete := func(ctx context.Context, prompt string) (string, error) {
		raw := responses[call]
		call++
		return raw, nil
	}
	store := &fakeStore{dups: map[string]bool{"old fact": true}}
	g := NewWithCompleter([]string{"space"}, store, complete)

	script, err := g.Generate(context.Background(), "space", rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if script.Fact != "fresh fact" {
		t.Errorf("fact = %q, want fresh fact", script.Fact)
	}
	if call != 2 {
		t.Errorf("completion calls = %d, want 2", call)
	}
}

func TestGenerateExhaustsAttempts(t *testing.T) {
	store := &fakeStore{dups: map[string]bool{"same fact": true}}
	g := NewWithCompleter([]string{"space"}, store, staticCompleter(
		`{"hook":"H","fact":"same fact","explanation":"E","cta":"C"}`,
	))

	_, err := g.Generate(context.Background(), "space", rand.New(rand.NewSource(1)))
	if !errors.Is(err, ErrContentGeneration) {
		t.Fatalf("err = %v, want ErrContentGeneration", err)
	}
}

func TestGenerateSkipsMalformedResponse(t *testing.T) {
	responses := []string{
		`not json at all`,
		`{"hook":"H","fact":"good fact","explanation":"E","cta":"C"}`,
	}
	call := 0
	complete := func(ctx context.Context, prompt string) (string, error) {
		raw := responses[call]
		call++
		return raw, nil
	}
	store := &fakeStore{dups: map[string]bool{}}
	g := NewWithCompleter([]string{"space"}, store, complete)

	script, err := g.Generate(context.Background(), "space", rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if script.Fact != "good fact" {
		t.Errorf("fact = %q, want good fact", script.Fact)
	}
}

func TestGenerateNoTopicsConfigured(t *testing.T) {
	g := NewWithCompleter(nil, &fakeStore{dups: map[string]bool{}}, staticCompleter(`{}`))
	_, err := g.Generate(context.Background(), "", rand.New(rand.NewSource(1)))
	if !errors.Is(err, ErrContentGeneration) {
		t.Fatalf("err = %v, want ErrContentGeneration", err)
	}
}

func TestPromptIncludesRecentFacts(t *testing.T) {
	var captured string
	complete := func(ctx context.Context, prompt string) (string, error) {
		captured = prompt
		return `{"hook":"H","fact":"F","explanation":"E","cta":"C"}`, nil
	}
	store := &fakeStore{recent: []string{"octopuses have three hearts"}, dups: map[string]bool{}}
	g := NewWithCompleter([]string{"ocean"}, store, complete)

	if _, err := g.Generate(context.Background(), "ocean", rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(captured, "octopuses have three hearts") {
		t.Errorf("prompt missing recent fact:\n%s", captured)
	}
	if !strings.Contains(captured, "ocean") {
		t.Errorf("prompt missing topic:\n%s", captured)
	}
}
