package detector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/phishguard/phishing-filter/internal/core"
	"github.com/phishguard/phishing-filter/internal/ioc"
	"github.com/phishguard/phishing-filter/internal/whitelist"
)

func newTestService(t *testing.T, trustedDomains []string) *AnalysisService {
	t.Helper()
	engine, err := NewEngine(nil, zap.NewNop())
	require.NoError(t, err)
	return NewAnalysisService(engine, ioc.NewExtractor(), whitelist.NewChecker(trustedDomains, zap.NewNop()), zap.NewNop())
}

func TestAnalyzeTrustedSenderBypassesDetection(t *testing.T) {
	service := newTestService(t, []string{"partner.example.com"})

	result, indicators := service.Analyze(context.Background(), &core.EmailRecord{
		Sender:  "billing@partner.example.com",
		Subject: "URGENT: verify your password immediately",
		Body:    "click here http://partner.example.com/login",
	})

	require.NotNil(t, result)
	assert.False(t, result.IsPhishing)
	assert.Equal(t, core.RiskSafe, result.RiskLevel)
	assert.Equal(t, core.StrategyAllowlist, result.Strategy)
	assert.Empty(t, indicators)
}

func TestAnalyzeExtractsIndicatorsAndClassifies(t *testing.T) {
	service := newTestService(t, nil)

	result, indicators := service.Analyze(context.Background(), phishingEmail())

	require.NotNil(t, result)
	assert.True(t, result.IsPhishing)
	assert.Equal(t, core.RiskHigh, result.RiskLevel)
	assert.NotEmpty(t, indicators)
	assert.NotEmpty(t, result.ProcessingID)
}
