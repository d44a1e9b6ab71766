package recommend

import (
	"fmt"

	"github.com/solvaholic/teampulse/internal/analytics"
)

// Impact is the expected effect of following a template.
type Impact struct {
	ExpectedImprovement string
	KeyMetrics          []string
	SuccessIndicators   []string
	RiskFactors         []string
	Target              Target
}

func pct(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

// AnalyzeImpact describes how key's focus metric should move.
func AnalyzeImpact(key TemplateKey, m analytics.TeamHealthMetrics) Impact {
	switch key {
	case PsychologicalSafety:
		return Impact{
			ExpectedImprovement: fmt.Sprintf("Increase psychological safety score from %s to 70-80%%", pct(m.PsychologicalSafety)),
			KeyMetrics:          []string{"Help-seeking behavior", "Error reporting frequency", "Innovation attempts"},
			SuccessIndicators:   []string{"More questions asked", "Increased experimentation", "Better knowledge sharing"},
			RiskFactors:         []string{"Resistance to change", "Time investment required", "Cultural shift needed"},
			Target:              Target{Current: pct(m.PsychologicalSafety), Target: "70-80%", Change: "+25-35%"},
		}
	case DecisionDelegation:
		return Impact{
			ExpectedImprovement: fmt.Sprintf("Reduce centralization from %s to 30-40%%", pct(m.Centralization)),
			KeyMetrics:          []string{"Decision speed", "Team autonomy", "Bottleneck reduction"},
			SuccessIndicators:   []string{"Faster decision-making", "Increased team ownership", "Reduced escalations"},
			RiskFactors:         []string{"Initial confusion", "Training requirements", "Accountability concerns"},
			Target:              Target{Current: pct(m.Centralization), Target: "30-40%", Change: "-35-45%"},
		}
	case CommunicationOptimization:
		return Impact{
			ExpectedImprovement: fmt.Sprintf("Increase network density from %s to 50-60%%", pct(m.NetworkDensity)),
			KeyMetrics:          []string{"Cross-channel communication", "Information flow", "Response times"},
			SuccessIndicators:   []string{"Better information sharing", "Faster responses", "Reduced silos"},
			RiskFactors:         []string{"Information overload", "Tool complexity", "Adoption resistance"},
			Target:              Target{Current: pct(m.NetworkDensity), Target: "50-60%", Change: "+15-25%"},
		}
	case BurnoutPrevention:
		return Impact{
			ExpectedImprovement: fmt.Sprintf("Reduce burnout risk from %s to 20-30%%", pct(m.BurnoutRisk)),
			KeyMetrics:          []string{"After-hours activity", "Weekend work", "Stress indicators"},
			SuccessIndicators:   []string{"Reduced after-hours work", "Better work-life balance", "Lower stress levels"},
			RiskFactors:         []string{"Deadline pressures", "Client demands", "Team expectations"},
			Target:              Target{Current: pct(m.BurnoutRisk), Target: "20-30%", Change: "-25-35%"},
		}
	case InnovationCulture:
		return Impact{
			ExpectedImprovement: fmt.Sprintf("Increase innovation behavior from %s to 40-50%%", pct(m.InnovationBehavior)),
			KeyMetrics:          []string{"Idea generation", "Experimentation rate", "Innovation adoption"},
			SuccessIndicators:   []string{"More new ideas proposed", "Increased experimentation", "Faster innovation cycles"},
			RiskFactors:         []string{"Resource constraints", "Risk aversion", "Time investment"},
			Target:              Target{Current: pct(m.InnovationBehavior), Target: "40-50%", Change: "+15-25%"},
		}
	case CollaborationEnhancement:
		return Impact{
			ExpectedImprovement: fmt.Sprintf("Increase collaboration index from %s to 50-60%%", pct(m.CollaborationIndex)),
			KeyMetrics:          []string{"Cross-functional projects", "Team coordination", "Knowledge sharing"},
			SuccessIndicators:   []string{"More cross-team projects", "Better coordination", "Enhanced knowledge sharing"},
			RiskFactors:         []string{"Scheduling conflicts", "Communication overhead", "Role clarity"},
			Target:              Target{Current: pct(m.CollaborationIndex), Target: "50-60%", Change: "+15-25%"},
		}
	case TeamDevelopment:
		return Impact{
			ExpectedImprovement: fmt.Sprintf("Progress team development from '%s' to 'performing' stage", m.TeamStage),
			KeyMetrics:          []string{"Team cohesion", "Conflict resolution", "Goal achievement"},
			SuccessIndicators:   []string{"Better team dynamics", "Reduced conflicts", "Improved outcomes"},
			RiskFactors:         []string{"Stage regression", "Leadership gaps", "External pressures"},
			Target:              Target{Current: string(m.TeamStage), Target: string(analytics.StagePerforming)},
		}
	}
	return Impact{}
}

// ContextLine summarizes why key matters for this team.
func ContextLine(key TemplateKey, m analytics.TeamHealthMetrics, ctx Context) string {
	switch key {
	case PsychologicalSafety:
		return fmt.Sprintf("With %d active members across %d channels, psychological safety is crucial for innovation and knowledge sharing. Current help-seeking behavior indicates room for improvement.",
			ctx.ActiveUsers, ctx.ChannelCount)
	case DecisionDelegation:
		return fmt.Sprintf("With %d administrators and %d regular members, clear decision rights will prevent bottlenecks and improve team autonomy. Current centralization patterns suggest decision-making is concentrated.",
			ctx.AdminCount, ctx.TotalUsers-ctx.AdminCount)
	case CommunicationOptimization:
		return fmt.Sprintf("Across %d channels with varying activity levels, optimizing communication patterns will improve information flow and reduce silos.",
			ctx.ChannelCount)
	case BurnoutPrevention:
		return fmt.Sprintf("Monitoring after-hours activity patterns during %s will help prevent burnout and maintain work-life balance. Current patterns show potential stress indicators.",
			ctx.Week)
	case InnovationCulture:
		return fmt.Sprintf("With %d active members, the team has room to grow its innovation culture. Current innovation behavior suggests untapped potential.",
			ctx.ActiveUsers)
	case CollaborationEnhancement:
		return fmt.Sprintf("Across %d channels, collaboration optimization will enhance project outcomes and team cohesion.",
			ctx.ChannelCount)
	case TeamDevelopment:
		return fmt.Sprintf("The team is currently in the '%s' stage. Appropriate leadership support will accelerate progression to high-performing status.",
			m.TeamStage)
	}
	return ""
}

func enrich(r *Recommendation, m analytics.TeamHealthMetrics, ctx Context) {
	impact := AnalyzeImpact(r.Template, m)
	r.Context = ContextLine(r.Template, m, ctx)
	r.ExpectedImprovement = impact.ExpectedImprovement
	r.KeyMetrics = impact.KeyMetrics
	r.SuccessIndicators = impact.SuccessIndicators
	r.RiskFactors = impact.RiskFactors
	r.Target = impact.Target
}
