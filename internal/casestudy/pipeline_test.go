package casestudy

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"destinpq/internal/domain"
	apperrors "destinpq/pkg/errors"
)

// countingStrategy wraps fetch and counts invocations.
func countingStrategy(name string, calls *int, fetch func() ([]domain.CaseStudy, error)) Strategy {
	return Strategy{Name: name, Fetch: func(context.Context) ([]domain.CaseStudy, error) {
		*calls++
		return fetch()
	}}
}

func oneStudy(title string) []domain.CaseStudy {
	return []domain.CaseStudy{{Title: title, Client: "c", Description: "d", Image: domain.PlaceholderImage, Results: []string{}}}
}

func TestPipelineStopsAtFirstSuccess(t *testing.T) {
	calls := make([]int, 3)
	p := NewPipeline(zaptest.NewLogger(t),
		countingStrategy("first", &calls[0], func() ([]domain.CaseStudy, error) { return oneStudy("A"), nil }),
		countingStrategy("second", &calls[1], func() ([]domain.CaseStudy, error) { return oneStudy("B"), nil }),
		countingStrategy("third", &calls[2], func() ([]domain.CaseStudy, error) { return oneStudy("C"), nil }),
	)

	got := p.FetchCaseStudies(context.Background())

	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, []int{1, 0, 0}, calls)
}

func TestPipelineFallsThroughFailuresAndEmptyResults(t *testing.T) {
	calls := make([]int, 3)
	p := NewPipeline(zaptest.NewLogger(t),
		countingStrategy("down", &calls[0], func() ([]domain.CaseStudy, error) {
			return nil, apperrors.New(apperrors.ErrCodeUpstream, "503")
		}),
		countingStrategy("empty", &calls[1], func() ([]domain.CaseStudy, error) { return []domain.CaseStudy{}, nil }),
		countingStrategy("ok", &calls[2], func() ([]domain.CaseStudy, error) { return oneStudy("C"), nil }),
	)

	res, err := p.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Source)
	assert.Equal(t, []int{1, 1, 1}, calls)
	require.Len(t, res.Failures, 2)
	assert.True(t, apperrors.IsUpstream(res.Failures[0].Err))
	assert.True(t, apperrors.IsEmpty(res.Failures[1].Err))
}

func TestPipelineReturnsFallbackWhenEverythingFails(t *testing.T) {
	p := NewPipeline(zaptest.NewLogger(t),
		Strategy{Name: "down", Fetch: func(context.Context) ([]domain.CaseStudy, error) {
			return nil, errors.New("network unreachable")
		}},
		Strategy{Name: "panics", Fetch: func(context.Context) ([]domain.CaseStudy, error) {
			panic("unexpected shape")
		}},
	)

	got := p.FetchCaseStudies(context.Background())

	require.NotEmpty(t, got)
	if diff := cmp.Diff(Fallback(), got); diff != "" {
		t.Errorf("FetchCaseStudies() mismatch (-want +got):\n%s", diff)
	}
}

func TestPipelineResolveNeverSubstitutesFallback(t *testing.T) {
	p := NewPipeline(nil, Strategy{Name: "down", Fetch: func(context.Context) ([]domain.CaseStudy, error) {
		return nil, apperrors.New(apperrors.ErrCodeParse, "bad json")
	}})

	res, err := p.Resolve(context.Background())
	require.ErrorIs(t, err, ErrExhausted)
	assert.Empty(t, res.Studies)
	assert.Empty(t, res.Source)
}

func TestPipelineHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := make([]int, 2)
	p := NewPipeline(zaptest.NewLogger(t),
		countingStrategy("cancels", &calls[0], func() ([]domain.CaseStudy, error) {
			cancel()
			return nil, context.Canceled
		}),
		countingStrategy("never", &calls[1], func() ([]domain.CaseStudy, error) { return oneStudy("B"), nil }),
	)

	_, err := p.Resolve(ctx)
	require.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int{1, 0}, calls)

	assert.Equal(t, Fallback(), p.FetchCaseStudies(ctx))
}
