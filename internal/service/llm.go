package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pageza/mealplango/backend/config"
	"github.com/pageza/mealplango/backend/internal/types"
	"github.com/rs/zerolog/log"
)

var (
	// ErrLLMUnavailable covers transport failures and non-200 answers.
	ErrLLMUnavailable = errors.New("meal plan model unavailable")
	// ErrMalformedPlan means the model answered with something that is not a plan.
	ErrMalformedPlan = errors.New("model did not return a valid meal plan")
)

const (
	planDays        = 7
	planTemperature = 0.6
	maxResponseSize = 4 << 20
)

// Message represents a message in the chat
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request represents a chat completion request
type Request struct {
	Model          string            `json:"model"`
	Messages       []Message         `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	Temperature    float64           `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// LLMService generates meal plans through an OpenAI-compatible chat API
type LLMService struct {
	apiKey string
	apiURL string
	model  string
	client *http.Client
}

// Ensure LLMService implements IPlanGenerator
var _ IPlanGenerator = (*LLMService)(nil)

// NewLLMService creates a new LLMService instance
func NewLLMService(cfg *config.Config) (*LLMService, error) {
	if cfg.LLMAPIKey == "" {
		return nil, fmt.Errorf("LLM_API_KEY must be set")
	}
	timeout := cfg.LLMTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &LLMService{
		apiKey: cfg.LLMAPIKey,
		apiURL: cfg.LLMAPIURL,
		model:  cfg.LLMModel,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// GeneratePlan asks the model for a seven day plan and validates its shape.
func (s *LLMService) GeneratePlan(ctx context.Context, prefs types.PlanPreferences) (*types.MealPlan, error) {
	reqBody := Request{
		Model: s.model,
		Messages: []Message{
			{Role: "system", Content: "Output a single valid JSON object only."},
			{Role: "user", Content: buildPlanPrompt(prefs)},
		},
		ResponseFormat: map[string]string{
			"type": "json_object",
		},
		Temperature: planTemperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrLLMUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error().
			Int("status", resp.StatusCode).
			Str("body", truncate(string(body), 512)).
			Msg("Meal plan request failed")
		return nil, fmt.Errorf("%w: status %d", ErrLLMUnavailable, resp.StatusCode)
	}

	var result completionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode completion: %v", ErrMalformedPlan, err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in API response", ErrMalformedPlan)
	}

	plan, err := ParsePlan(result.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Dur("elapsed", time.Since(start)).
		Int("days", len(plan.Meals)).
		Int("grocery_items", len(plan.GroceryList)).
		Msg("Meal plan generated")
	return plan, nil
}

// ParsePlan decodes model output into a plan. Markdown fences are tolerated.
func ParsePlan(content string) (*types.MealPlan, error) {
	raw := stripCodeFence(content)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty content", ErrMalformedPlan)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}
	for _, key := range []string{"meals", "groceryList"} {
		if !isJSONArray(fields[key]) {
			return nil, fmt.Errorf("%w: %s is not an array", ErrMalformedPlan, key)
		}
	}

	var plan types.MealPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}
	if len(plan.Meals) == 0 {
		return nil, fmt.Errorf("%w: no days in plan", ErrMalformedPlan)
	}
	if len(plan.Meals) > planDays {
		plan.Meals = plan.Meals[:planDays]
	}
	for i, day := range plan.Meals {
		for _, m := range day.Slots() {
			if err := validateMeal(m.Meal); err != nil {
				return nil, fmt.Errorf("%w: day %d %s %v", ErrMalformedPlan, i+1, strings.ToLower(m.Slot), err)
			}
		}
	}
	return &plan, nil
}

func isJSONArray(raw json.RawMessage) bool {
	return bytes.HasPrefix(bytes.TrimSpace(raw), []byte("["))
}

func validateMeal(m types.Meal) error {
	switch {
	case strings.TrimSpace(m.Dish) == "":
		return errors.New("has no dish")
	case len(m.Ingredients) == 0:
		return errors.New("has no ingredients")
	case len(m.Recipe) == 0:
		return errors.New("has no recipe steps")
	}
	return nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func buildPlanPrompt(p types.PlanPreferences) string {
	diet := p.DietPreference
	if diet == "" {
		diet = "No restrictions"
	}
	cuisine := p.Cuisine
	if cuisine == "" {
		cuisine = "Any"
	}
	note := p.AdditionalNote
	if note == "" {
		note = "None"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional meal planner.\n")
	fmt.Fprintf(&b, "Create a %d-day meal plan for %d people.\n", planDays, p.PeopleCount)
	fmt.Fprintf(&b, "Diet preference: %s.\n", diet)
	fmt.Fprintf(&b, "Preferred cuisines: %s.\n", cuisine)
	fmt.Fprintf(&b, "Additional note: %s.\n", note)
	b.WriteString("Number of meals a day: 3.\n\n")
	b.WriteString(`STRICTLY return valid JSON matching this format (no prose, no explanations, no markdown fences):
{
  "meals": [
    {
      "breakfast": {
        "dish": "Name of the dish",
        "cookingDuration": "cooking duration in minutes",
        "ingredients": ["..."],
        "recipe": ["Step 1", "Step 2"]
      },
      "lunch": { "dish": "...", "cookingDuration": "...", "ingredients": ["..."], "recipe": ["..."] },
      "dinner": { "dish": "...", "cookingDuration": "...", "ingredients": ["..."], "recipe": ["..."] }
    }
  ],
  "groceryList": [ { "ingredient": "Chicken", "quantity": "500 g" } ]
}

Rules:
- meals array MUST have exactly 7 entries (Mon..Sun).
- Keep meals simple and healthy for busy people.
- Use METRIC units for quantities in groceryList (g, ml, etc.). Only give items that are available in grocery stores.
- Avoid brand names.
- Recipes can be detailed.`)
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
