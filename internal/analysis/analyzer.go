package analysis

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mrwolf/journal-server/internal/models"
)

// ErrInvalidInput is returned for empty or whitespace-only text.
var ErrInvalidInput = errors.New("journal text is empty")

// Generator produces raw model text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Configured() bool
}

// Analyzer turns journal text into an AnalysisResult, using a remote model
// when one is configured and the local keyword analyzer otherwise.
type Analyzer struct {
	client  Generator
	timeout time.Duration
	logger  *zap.Logger
}

// NewAnalyzer creates an analyzer. client may be nil.
func NewAnalyzer(client Generator, timeout time.Duration, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		client:  client,
		timeout: timeout,
		logger:  logger.Named("analysis"),
	}
}

// Analyze returns a validated analysis of text. Remote failures of any kind
// degrade to the local analyzer; only invalid input is reported as an error.
func (a *Analyzer) Analyze(ctx context.Context, text string) (*models.AnalysisResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrInvalidInput
	}

	if a.client == nil || !a.client.Configured() {
		return a.fallback(text), nil
	}

	result, err := a.analyzeRemote(ctx, text)
	if err != nil {
		a.logger.Warn("remote analysis failed, using fallback", zap.Error(err))
		return a.fallback(text), nil
	}
	return result, nil
}

// RemoteEnabled reports whether Analyze will attempt a remote call.
func (a *Analyzer) RemoteEnabled() bool {
	return a.client != nil && a.client.Configured()
}

func (a *Analyzer) analyzeRemote(ctx context.Context, text string) (*models.AnalysisResult, error) {
	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := a.client.Generate(callCtx, buildPrompt(text))
	if err != nil {
		return nil, err
	}

	candidate, err := ParseResponse(raw)
	if err != nil {
		return nil, err
	}

	result, err := Normalize(candidate)
	if err != nil {
		return nil, err
	}
	result.AISource = models.SourceRemote

	a.logger.Debug("remote analysis complete",
		zap.String("mood", result.Mood),
		zap.Bool("enhanced", result.Enhanced),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func (a *Analyzer) fallback(text string) *models.AnalysisResult {
	result := AnalyzeLocally(text)
	return &result
}
