package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/justsurfingit/job-board/internal/dtos"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

var ErrLLMDisabled = errors.New("LLM features are disabled: GEMINI_API_KEY is not set")

const maxPromptInput = 20000

type LLMService struct {
	Client llms.Model
}

// NewLLMService initializes the Gemini client.
func NewLLMService(ctx context.Context, apiKey, model string) (*LLMService, error) {
	if apiKey == "" {
		return nil, ErrLLMDisabled
	}

	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &LLMService{
		Client: llm,
	}, nil
}

const applicationExtractionPrompt = `
You are an expert Job Data Extraction Agent. Your task is to analyze the provided raw HTML/Text from a job posting and extract structured data.

### INSTRUCTIONS:
1. **Analyze** the text to identify the core job details.
2. **Ignore** navigation menus, footers, "similar jobs" lists, and site advertisements.
3. **Format** the output as valid JSON only. Do not wrap the output in markdown code blocks.

### OUTPUT SCHEMA:
{
    "companyName": "Name of the company (e.g., Google, StartupInc)",
    "jobTitle": "Job title (e.g., Senior Backend Engineer)",
    "jobType": "One of Full-time, Part-time, Contract, Internship, or empty",
    "location": "Job location or 'Remote'",
    "notes": "A short summary of responsibilities, requirements and salary if stated"
}

### CONSTRAINT:
If a piece of information is missing, use an empty string. Do not hallucinate or guess.

### RAW CONTENT:
%s
`

// ExtractApplicationDetails turns a raw job posting into a prefilled
// application form. Status and priority are left to the user.
func (s *LLMService) ExtractApplicationDetails(ctx context.Context, rawHTML string) (*dtos.ApplicationRequest, error) {
	if len(rawHTML) > maxPromptInput {
		rawHTML = rawHTML[:maxPromptInput]
	}

	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, fmt.Sprintf(applicationExtractionPrompt, rawHTML))
	if err != nil {
		return nil, err
	}

	var req dtos.ApplicationRequest
	if err := json.Unmarshal([]byte(cleanJSON(resp)), &req); err != nil {
		return nil, fmt.Errorf("model returned invalid JSON: %w", err)
	}
	req.Status = ""
	req.PriorityLevel = ""
	return &req, nil
}

type EmailAnalysis struct {
	Status  string `json:"status"`
	Summary string `json:"summary"`
}

const emailStatusPrompt = `
You track job applications. Read this email from %s and decide the application status it implies.

Answer with JSON only: {"status": "...", "summary": "one sentence"}
"status" must be one of: "Applied", "Interview Scheduled", "Interviewed", "Offer", "Accepted", "Rejected", "NO_CHANGE", "UNKNOWN".

Subject: %s

Body:
%s
`

func (s *LLMService) AnalyzeEmailStatus(ctx context.Context, company, subject, body string) (EmailAnalysis, error) {
	if len(body) > maxPromptInput {
		body = body[:maxPromptInput]
	}

	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, fmt.Sprintf(emailStatusPrompt, company, subject, body))
	if err != nil {
		return EmailAnalysis{}, err
	}

	var result EmailAnalysis
	if err := json.Unmarshal([]byte(cleanJSON(resp)), &result); err != nil {
		return EmailAnalysis{}, fmt.Errorf("model returned invalid JSON: %w", err)
	}
	return result, nil
}

const identifyRolePrompt = `
An email arrived about one of these job applications:
%s
Subject: %s

Body:
%s

Reply with only the number of the matching application, or -1 if none clearly matches.
`

// IdentifyApplication asks the model which of several roles at one company an
// email is about. It returns -1 when the model cannot tell.
func (s *LLMService) IdentifyApplication(ctx context.Context, titles []string, subject, body string) int {
	if len(body) > maxPromptInput {
		body = body[:maxPromptInput]
	}

	var list strings.Builder
	for i, title := range titles {
		fmt.Fprintf(&list, "%d. %s\n", i, title)
	}

	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, fmt.Sprintf(identifyRolePrompt, list.String(), subject, body))
	if err != nil {
		return -1
	}

	idx, err := strconv.Atoi(strings.TrimSpace(resp))
	if err != nil || idx < 0 || idx >= len(titles) {
		return -1
	}
	return idx
}

// cleanJSON strips the markdown fences models add despite being told not to.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
