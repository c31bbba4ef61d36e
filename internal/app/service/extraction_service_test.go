package service

import (
	"context"
	"errors"
	"testing"

	"intervue/internal/common"
	"intervue/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const acmeNarrative = `I interviewed at Acme for an SDE role. First round was DSA,
they asked Two Sum. Offer was 12 LPA.`

const acmeExtraction = `{
  "title": "SDE Interview at Acme",
  "company_name": "Acme",
  "package_ctc": "12 LPA",
  "role": "SDE",
  "job_type": "FULL_TIME",
  "difficulty_level": "MEDIUM",
  "rounds": [
    {
      "round_order": 1,
      "round_name": "DSA Round",
      "description": null,
      "coding_problems": [
        {"title": "Two Sum", "link": null, "description": null, "constraints": null, "sample_testcases": null}
      ],
      "technical_questions": []
    }
  ]
}`

const failureSentinel = `{"title": null, "company_name": null, "package_ctc": null, "role": null, "job_type": null, "difficulty_level": null, "rounds": []}`

func newTestExtractionService(store *fakeStore, completion *fakeCompletion) *ExtractionService {
	experience := newTestExperienceService(store, nil)
	return NewExtractionService(completion, experience, zap.NewNop())
}

func TestExtractionService_CreateFromText(t *testing.T) {
	ctx := context.Background()

	t.Run("well-formed output lands as a pending aggregate", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestExtractionService(store, &fakeCompletion{response: acmeExtraction})

		exp, err := svc.CreateFromText(ctx, alice, acmeNarrative)
		require.NoError(t, err)

		assert.Equal(t, "SDE Interview at Acme", exp.Title)
		assert.Equal(t, "Acme", exp.CompanyName)
		assert.Equal(t, "12 LPA", *exp.PackageCTC)
		assert.Equal(t, model.StatusPending, exp.Status)
		assert.Equal(t, alice.ID, exp.UserID)
		assert.Equal(t, 1, exp.RoundsCount)
		require.Len(t, exp.Rounds, 1)
		require.Len(t, exp.Rounds[0].CodingProblems, 1)
		assert.Equal(t, "Two Sum", *exp.Rounds[0].CodingProblems[0].Title)
	})

	t.Run("failure sentinel persists nothing", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestExtractionService(store, &fakeCompletion{response: failureSentinel})

		_, err := svc.CreateFromText(ctx, alice, "a recipe for banana bread")
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrExtraction)

		var extractionErr *ExtractionError
		require.True(t, errors.As(err, &extractionErr))
		assert.Equal(t, ReasonIncompleteExtraction, extractionErr.Reason)
		assert.Empty(t, store.experiences)
	})

	t.Run("empty text never reaches the model", func(t *testing.T) {
		completion := &fakeCompletion{response: acmeExtraction}
		svc := newTestExtractionService(newFakeStore(), completion)

		_, err := svc.CreateFromText(ctx, alice, "   \n\t ")
		assert.ErrorIs(t, err, common.ErrValidation)
		assert.Empty(t, completion.prompts)
	})

	t.Run("completion failure is not an extraction failure", func(t *testing.T) {
		svc := newTestExtractionService(newFakeStore(), &fakeCompletion{err: errors.New("rate limited")})

		_, err := svc.CreateFromText(ctx, alice, acmeNarrative)
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrExtraction)
	})
}

func TestExtract_StrictParsing(t *testing.T) {
	ctx := context.Background()

	malformed := []struct {
		name string
		raw  string
	}{
		{"not json at all", "Sure! Here is the JSON you asked for."},
		{"markdown fenced", "```json\n" + acmeExtraction + "\n```"},
		{"trailing prose", acmeExtraction + "\nHope that helps!"},
		{"unknown field", `{"title": "t", "company_name": "c", "package_ctc": "p", "role": null, "job_type": null, "difficulty_level": null, "rounds": [], "confidence": 0.9}`},
		{"truncated", acmeExtraction[:len(acmeExtraction)/2]},
	}

	for _, tt := range malformed {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := newTestExtractionService(store, &fakeCompletion{response: tt.raw})

			_, err := svc.Extract(ctx, acmeNarrative)
			require.Error(t, err)

			var extractionErr *ExtractionError
			require.True(t, errors.As(err, &extractionErr))
			assert.Equal(t, ReasonMalformedOutput, extractionErr.Reason)
			assert.Equal(t, tt.raw, extractionErr.Raw)
		})
	}

	incomplete := []struct {
		name string
		raw  string
	}{
		{"missing title", `{"title": null, "company_name": "c", "package_ctc": "p", "role": null, "job_type": null, "difficulty_level": null, "rounds": []}`},
		{"missing company", `{"title": "t", "company_name": null, "package_ctc": "p", "role": null, "job_type": null, "difficulty_level": null, "rounds": []}`},
		{"missing package", `{"title": "t", "company_name": "c", "package_ctc": null, "role": null, "job_type": null, "difficulty_level": null, "rounds": []}`},
		{"missing rounds", `{"title": "t", "company_name": "c", "package_ctc": "p", "role": null, "job_type": null, "difficulty_level": null, "rounds": null}`},
	}

	for _, tt := range incomplete {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestExtractionService(newFakeStore(), &fakeCompletion{response: tt.raw})

			_, err := svc.Extract(ctx, acmeNarrative)
			require.Error(t, err)

			var extractionErr *ExtractionError
			require.True(t, errors.As(err, &extractionErr))
			assert.Equal(t, ReasonIncompleteExtraction, extractionErr.Reason)
		})
	}

	t.Run("empty rounds array is complete, just roundless", func(t *testing.T) {
		raw := `{"title": "t", "company_name": "c", "package_ctc": "p", "role": null, "job_type": null, "difficulty_level": null, "rounds": []}`
		svc := newTestExtractionService(newFakeStore(), &fakeCompletion{response: raw})

		input, err := svc.Extract(ctx, acmeNarrative)
		require.NoError(t, err)
		assert.Equal(t, "t", input.Title)
		assert.Empty(t, input.Rounds)
	})
}
