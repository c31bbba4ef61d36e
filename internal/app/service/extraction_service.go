package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"intervue/internal/common"
	"intervue/internal/domain/model"
	"intervue/internal/platform/llm"

	"go.uber.org/zap"
)

// extractionContract is the fixed schema/instruction contract sent as the
// system message. It pins the exact target shape, the phrasing-to-enum
// mapping, and the failure sentinel the model must return for input that is
// not an interview narrative.
const extractionContract = `You convert a raw interview-experience narrative into a single JSON object.
Return ONLY the JSON object, no prose, no markdown fences.

Target shape:
{
  "title": string,
  "company_name": string,
  "package_ctc": string,
  "role": string|null,
  "job_type": "FULL_TIME"|"INTERNSHIP"|"CONTRACT"|null,
  "difficulty_level": "EASY"|"MEDIUM"|"HARD"|null,
  "rounds": [
    {
      "round_order": number,
      "round_name": string|null,
      "description": string|null,
      "coding_problems": [
        {"title": string, "link": string|null, "description": string|null, "constraints": string|null, "sample_testcases": string|null}
      ],
      "technical_questions": [
        {"question_text": string, "answer_text": string|null}
      ]
    }
  ]
}

Enum mapping: "full time", "fte", "permanent" -> FULL_TIME; "intern", "internship", "summer" -> INTERNSHIP; "contractor", "freelance" -> CONTRACT.
"easy", "straightforward" -> EASY; "moderate", "average" -> MEDIUM; "hard", "tough", "grueling" -> HARD.
Number rounds starting at 1, contiguous, in the order they are narrated.
If compensation is mentioned in any form, normalize it into package_ctc as text.

If the input is NOT an interview experience narrative, return exactly:
{"title": null, "company_name": null, "package_ctc": null, "role": null, "job_type": null, "difficulty_level": null, "rounds": []}`

type ExtractionFailureReason string

const (
	ReasonMalformedOutput      ExtractionFailureReason = "MALFORMED_OUTPUT"
	ReasonIncompleteExtraction ExtractionFailureReason = "INCOMPLETE_EXTRACTION"
)

// ExtractionError carries the raw model output for diagnostics; it is never
// surfaced to clients verbatim.
type ExtractionError struct {
	Reason ExtractionFailureReason
	Raw    string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return common.ErrExtraction
}

type ExtractionService struct {
	completion llm.CompletionClient
	experience *ExperienceService
	logger     *zap.Logger
}

func NewExtractionService(completion llm.CompletionClient, experience *ExperienceService, logger *zap.Logger) *ExtractionService {
	return &ExtractionService{completion: completion, experience: experience, logger: logger}
}

// Extract converts free text into a validated aggregate input. The model is
// untrusted: its output is parsed strictly and re-validated before anything
// reaches the writer. Round numbering from the model is a service-side
// contract and is not corrected here.
func (s *ExtractionService) Extract(ctx context.Context, rawText string) (*ExperienceInput, error) {
	raw, err := s.completion.Complete(ctx, extractionContract, rawText)
	if err != nil {
		return nil, fmt.Errorf("completion service: %w", err)
	}

	parsed, err := parseExtraction(raw)
	if err != nil {
		s.logger.Warn("extraction produced malformed output", zap.String("raw", raw))
		return nil, err
	}

	// Hard validation independent of the model's own correctness. The
	// failure sentinel (all nulls) lands here too.
	if parsed.Title == nil || parsed.CompanyName == nil || parsed.PackageCTC == nil || parsed.Rounds == nil {
		s.logger.Info("extraction incomplete or failure sentinel returned", zap.String("raw", raw))
		return nil, &ExtractionError{Reason: ReasonIncompleteExtraction, Raw: raw}
	}

	return &ExperienceInput{
		Title:           *parsed.Title,
		CompanyName:     *parsed.CompanyName,
		PackageCTC:      parsed.PackageCTC,
		Role:            parsed.Role,
		JobType:         parsed.JobType,
		DifficultyLevel: parsed.DifficultyLevel,
		Rounds:          *parsed.Rounds,
	}, nil
}

// CreateFromText runs the full pipeline: extract, then hand the tree
// unmodified to the same writer used for direct structured submission.
func (s *ExtractionService) CreateFromText(ctx context.Context, actor model.Actor, rawText string) (*model.Experience, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, common.Errorf("text is required: %w", common.ErrValidation)
	}
	input, err := s.Extract(ctx, rawText)
	if err != nil {
		return nil, err
	}
	return s.experience.Create(ctx, actor, *input)
}

// extractedAggregate mirrors ExperienceInput with pointer fields so absent
// and null values are distinguishable from zero values.
type extractedAggregate struct {
	Title           *string                `json:"title"`
	CompanyName     *string                `json:"company_name"`
	PackageCTC      *string                `json:"package_ctc"`
	Role            *string                `json:"role"`
	JobType         *model.JobType         `json:"job_type"`
	DifficultyLevel *model.DifficultyLevel `json:"difficulty_level"`
	Rounds          *[]RoundInput          `json:"rounds"`
}

// parseExtraction decodes the raw model response with no tolerance for
// surrounding prose or unknown fields.
func parseExtraction(raw string) (*extractedAggregate, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()

	var parsed extractedAggregate
	if err := dec.Decode(&parsed); err != nil {
		return nil, &ExtractionError{Reason: ReasonMalformedOutput, Raw: raw}
	}
	// Trailing content after the object is as untrusted as a parse failure.
	if dec.More() {
		return nil, &ExtractionError{Reason: ReasonMalformedOutput, Raw: raw}
	}
	return &parsed, nil
}
