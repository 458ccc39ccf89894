package detector

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phishguard/phishing-filter/internal/core"
	"github.com/phishguard/phishing-filter/internal/ioc"
	"github.com/phishguard/phishing-filter/internal/whitelist"
)

// AnalysisService ties indicator extraction and classification together for
// the serving layer.
type AnalysisService struct {
	engine    *Engine
	extractor *ioc.Extractor
	allowlist *whitelist.Checker
	logger    *zap.Logger
}

// NewAnalysisService creates the analysis service.
func NewAnalysisService(engine *Engine, extractor *ioc.Extractor, allowlist *whitelist.Checker, logger *zap.Logger) *AnalysisService {
	return &AnalysisService{
		engine:    engine,
		extractor: extractor,
		allowlist: allowlist,
		logger:    logger,
	}
}

// Analyze extracts indicators from an email and classifies it. Trusted
// sender domains bypass analysis entirely.
func (s *AnalysisService) Analyze(ctx context.Context, email *core.EmailRecord) (*core.ClassificationResult, []core.Indicator) {
	if s.allowlist.IsTrusted(email.Sender) {
		s.logger.Info("Skipping analysis for trusted sender domain",
			zap.String("sender", email.Sender))
		return &core.ClassificationResult{
			ProcessingID: uuid.New().String(),
			IsPhishing:   false,
			Confidence:   0,
			RiskLevel:    core.RiskSafe,
			Strategy:     core.StrategyAllowlist,
			ModelVersion: s.engine.ModelVersion(),
			AnalyzedAt:   time.Now(),
		}, nil
	}

	indicators := s.extractor.ExtractFromEmail(email)
	result := s.engine.Classify(email, indicators)

	s.logger.Info("Email analyzed",
		zap.String("processing_id", result.ProcessingID),
		zap.Bool("is_phishing", result.IsPhishing),
		zap.Float64("confidence", result.Confidence),
		zap.String("risk_level", string(result.RiskLevel)),
		zap.String("strategy", string(result.Strategy)),
		zap.Int("rule_score", result.RuleScore),
		zap.Int("indicators", len(indicators)))

	return result, indicators
}
