// Package advisor turns a player's recent practice rounds into a coaching tip.
//
// It averages strokes per par category over the last few completed training sessions.
// With an OpenAI key configured the averages are sent to a chat model and its answer is
// returned; without one a fixed summary of the averages is returned instead.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/trentd187/golf-tournaments/internal/store"
)

// RecentSessions is how many completed practice rounds the averages cover.
const RecentSessions = 5

const (
	// NoDataMessage is returned when the player has no completed practice rounds.
	NoDataMessage = "There is not enough data to analyse yet. Log a few training sessions first to get personalised tips!"
	// FailureMessage accompanies errors shown to the player.
	FailureMessage = "Could not generate a tip. Please try again later."

	systemPrompt = "You are a professional golf instructor who gives practical, encouraging tips."
)

// ErrNoTips is returned when the chat model answers without any choices.
var ErrNoTips = errors.New("advisor: model returned no answer")

// TrainingSource supplies practice scores.
type TrainingSource interface {
	RecentTraining(ctx context.Context, playerID uuid.UUID, sessions int) (*store.TrainingHistory, error)
}

// ParStat is the running average for one par category.
type ParStat struct {
	Total int
	Count int
}

// Avg is the mean strokes, or 0 with no holes.
func (p ParStat) Avg() float64 {
	if p.Count == 0 {
		return 0
	}
	return float64(p.Total) / float64(p.Count)
}

// Stats holds the averages for par 3, 4 and 5 holes. Holes of any other par are ignored.
type Stats struct {
	Par3, Par4, Par5 ParStat
}

// Summarize builds Stats from practice scores.
func Summarize(scores []store.ParScore) Stats {
	var s Stats
	for _, sc := range scores {
		var p *ParStat
		switch sc.Par {
		case 3:
			p = &s.Par3
		case 4:
			p = &s.Par4
		case 5:
			p = &s.Par5
		default:
			continue
		}
		p.Total += sc.Strokes
		p.Count++
	}
	return s
}

// StatsView is the wire form of Stats: averages rounded to one decimal.
type StatsView struct {
	Par3 string `json:"par3"`
	Par4 string `json:"par4"`
	Par5 string `json:"par5"`
}

// Advice is the response body of the advice endpoint. Stats is only present when the
// tip came from the model.
type Advice struct {
	Advice string     `json:"advice"`
	Stats  *StatsView `json:"stats,omitempty"`
}

// Config selects the chat model.
type Config struct {
	APIKey  string
	BaseURL string // optional, for OpenAI-compatible gateways
	Model   string
}

// Advisor produces coaching tips.
type Advisor struct {
	src    TrainingSource
	client *openai.Client // nil when no API key is configured
	model  string
	logger *log.Logger
}

// New creates an Advisor. An empty cfg.APIKey selects the templated summary.
func New(src TrainingSource, cfg Config, logger *log.Logger) *Advisor {
	a := &Advisor{src: src, model: cfg.Model, logger: logger}
	if a.model == "" {
		a.model = openai.GPT4oMini
	}
	if cfg.APIKey != "" {
		oc := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		a.client = openai.NewClientWithConfig(oc)
	}
	return a
}

// Advise returns a tip for playerID.
func (a *Advisor) Advise(ctx context.Context, playerID uuid.UUID) (*Advice, error) {
	history, err := a.src.RecentTraining(ctx, playerID, RecentSessions)
	if err != nil {
		return nil, fmt.Errorf("load training scores: %w", err)
	}
	if history.Sessions == 0 {
		return &Advice{Advice: NoDataMessage}, nil
	}

	stats := Summarize(history.Scores)
	if a.client == nil {
		return &Advice{Advice: Template(stats)}, nil
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: Prompt(stats)},
		},
		MaxTokens:   200,
		Temperature: 0.7,
	})
	if err != nil {
		a.logger.Error("chat completion failed", "player", playerID, "model", a.model, "err", err)
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoTips
	}
	a.logger.Debug("advice generated", "player", playerID, "tokens", resp.Usage.TotalTokens)

	return &Advice{
		Advice: resp.Choices[0].Message.Content,
		Stats: &StatsView{
			Par3: fmt.Sprintf("%.1f", stats.Par3.Avg()),
			Par4: fmt.Sprintf("%.1f", stats.Par4.Avg()),
			Par5: fmt.Sprintf("%.1f", stats.Par5.Avg()),
		},
	}, nil
}

// Prompt is the user message sent to the model.
func Prompt(s Stats) string {
	var b strings.Builder
	b.WriteString("You are a professional golf instructor. Analyse these training statistics and give one specific, useful tip:\n\n")
	for _, row := range []struct {
		par  int
		stat ParStat
	}{{3, s.Par3}, {4, s.Par4}, {5, s.Par5}} {
		fmt.Fprintf(&b, "Par %d: average %.1f strokes (%d holes)\n", row.par, row.stat.Avg(), row.stat.Count)
	}
	b.WriteString("\nFocus on the area that needs the most improvement. Be specific and encouraging.")
	return b.String()
}

// Template summarises the averages without a model. Categories with no holes are left out.
func Template(s Stats) string {
	var b strings.Builder
	b.WriteString("Your training analysis:\n\n")
	for _, row := range []struct {
		par  int
		stat ParStat
	}{{3, s.Par3}, {4, s.Par4}, {5, s.Par5}} {
		avg := row.stat.Avg()
		if avg == 0 {
			continue
		}
		fmt.Fprintf(&b, "Par %d: average %.1f (%s)\n", row.par, avg, signed(avg-float64(row.par)))
	}
	b.WriteString("\nConfigure an OpenAI key to receive personalised AI tips!")
	return b.String()
}

// signed formats d with one decimal and a leading + when positive.
func signed(d float64) string {
	s := fmt.Sprintf("%.1f", d)
	if d > 0 {
		return "+" + s
	}
	return s
}
