package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/songzhibin97/tokensim/internal/engine"
	"github.com/songzhibin97/tokensim/internal/models"
)

// ErrNotCompleted is returned when a simulation without a final report is narrated.
var ErrNotCompleted = errors.New("simulation has not completed")

// SystemPrompt is shared by every chat backend.
const SystemPrompt = "你是一个专业的代币经济学分析师，擅长解读代币经济模拟结果并识别风险。请始终以JSON格式返回分析结果。"

// BuildPrompt renders the user prompt for sim.
func BuildPrompt(sim *engine.Simulation) (string, error) {
	if sim == nil || sim.Status != models.SimulationStatusCompleted || sim.Report == nil {
		return "", ErrNotCompleted
	}

	r := sim.Report
	tk := sim.Token
	opts := sim.Options

	burnRate, inflationRate := "-", "-"
	if tk.BurnRate != nil {
		burnRate = tk.BurnRate.String()
	}
	if tk.InflationRate != nil {
		inflationRate = tk.InflationRate.String()
	}

	return fmt.Sprintf(`分析以下代币经济模拟结果:
代币名称: %s
代币符号: %s
总供应量: %s
初始价格: %s
每笔交易销毁比例: %s
每笔交易增发比例: %s
模拟区间: %d x %s
用户数: %d

最终报告:
交易总数: %d (成功 %d, 失败 %d)
流动性: %s
采用率: %s
用户留存: %s
销毁率: %s
通胀率: %s
网络活跃度: %d
平均代币价格: %s

请总结该代币经济模型的表现，列出主要风险并给出改进建议。

输出格式为JSON:
{
    "summary": "string",
    "risks": ["风险1", "风险2", ...],
    "recommendations": ["建议1", "建议2", ...]
}`,
		tk.Name, tk.Symbol, tk.TotalSupply, tk.InitialPrice, burnRate, inflationRate,
		opts.Duration, opts.IntervalType, opts.TotalUsers,
		r.Trades, r.SuccessfulTrades, r.FailedTrades,
		r.Liquidity, r.AdoptionRate, r.UserRetention, r.BurnRate, r.InflationRate,
		r.NetworkActivity, r.TokenPrice), nil
}

// ParseSummary decodes a model answer, tolerating markdown code fences.
func ParseSummary(content string) (*Summary, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var s Summary
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &s); err != nil {
		return nil, fmt.Errorf("failed to parse summary: %w", err)
	}
	return &s, nil
}
