// Package analytics computes weekly team-health metrics and rule-based
// insights from normalized Slack messages.
package analytics

import (
	"sort"
	"time"

	"github.com/solvaholic/teampulse/internal/classify"
	"github.com/solvaholic/teampulse/internal/graph"
	"github.com/solvaholic/teampulse/internal/normalize"
)

// SchemaVersion tags every TeamHealthMetrics record.
const SchemaVersion = "1.0"

// TeamStage is a Tuckman development stage.
type TeamStage string

const (
	StageForming    TeamStage = "forming"
	StageStorming   TeamStage = "storming"
	StageNorming    TeamStage = "norming"
	StagePerforming TeamStage = "performing"
	// StageAdjourning is a valid label that the stage rule never produces.
	StageAdjourning TeamStage = "adjourning"
)

// RiskLevel grades the early-warning picture.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Early warning texts, in detection order.
const (
	WarningBurnout    = "High burnout risk detected"
	WarningBottleneck = "Communication bottleneck forming"
	WarningWeekend    = "Excessive weekend work detected"
	WarningAfterHours = "High after-hours communication"
)

// Scaling multipliers for the keyword-ratio six-conditions scores.
const (
	DirectionMultiplier  = 10.0
	SupportiveMultiplier = 5.0
	CoachingMultiplier   = 8.0
)

// TeamHealthMetrics is the result for one (team, week) pair. Ratios are in
// [0,1]; ResponseTime is hours and MessageFrequency is messages per user.
type TeamHealthMetrics struct {
	SchemaVersion string `json:"schemaVersion"`

	RealTeam            float64 `json:"realTeam"`
	CompellingDirection float64 `json:"compellingDirection"`
	EnablingStructure   float64 `json:"enablingStructure"`
	SupportiveContext   float64 `json:"supportiveContext"`
	ExpertCoaching      float64 `json:"expertCoaching"`

	PsychologicalSafety float64 `json:"psychologicalSafety"`
	HelpSeeking         float64 `json:"helpSeeking"`
	ErrorReporting      float64 `json:"errorReporting"`
	InnovationBehavior  float64 `json:"innovationBehavior"`

	ResponseTime       float64 `json:"responseTime"`
	MessageFrequency   float64 `json:"messageFrequency"`
	CollaborationIndex float64 `json:"collaborationIndex"`
	NetworkDensity     float64 `json:"networkDensity"`
	Centralization     float64 `json:"centralization"`

	BurnoutRisk        float64 `json:"burnoutRisk"`
	WeekendActivity    float64 `json:"weekendActivity"`
	AfterHoursActivity float64 `json:"afterHoursActivity"`
	StressIndicators   float64 `json:"stressIndicators"`

	TeamStage     TeamStage `json:"teamStage"`
	EarlyWarnings []string  `json:"earlyWarnings"`
	RiskLevel     RiskLevel `json:"riskLevel"`
}

// Options tune an Engine.
type Options struct {
	// Location is where weekday and hour are read. Nil means UTC.
	Location *time.Location
	// Lexicon supplies the keyword tables.
	Lexicon classify.Lexicon
	// InteractionWindow bounds how soon after a message a reply links two users.
	InteractionWindow time.Duration
}

// DefaultOptions returns UTC, the default lexicon and a one hour window.
func DefaultOptions() Options {
	return Options{
		Location:          time.UTC,
		Lexicon:           classify.DefaultLexicon(),
		InteractionWindow: time.Hour,
	}
}

// Engine computes metrics with fixed options. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	opts Options
}

// NewEngine fills unset options from DefaultOptions.
func NewEngine(opts Options) *Engine {
	def := DefaultOptions()
	if opts.Location == nil {
		opts.Location = def.Location
	}
	if len(opts.Lexicon.HelpSeeking.Words) == 0 && len(opts.Lexicon.Stress.Words) == 0 {
		opts.Lexicon = def.Lexicon
	}
	if opts.InteractionWindow <= 0 {
		opts.InteractionWindow = def.InteractionWindow
	}
	return &Engine{opts: opts}
}

// Options returns the engine's effective options.
func (e *Engine) Options() Options {
	return e.opts
}

var defaultEngine = NewEngine(DefaultOptions())

// ComputeMetrics runs the default engine.
func ComputeMetrics(messages []normalize.Message, users []normalize.User, channels []normalize.Channel) TeamHealthMetrics {
	return defaultEngine.ComputeMetrics(messages, users, channels)
}

// ComputeMetrics derives every TeamHealthMetrics field. Malformed records are
// dropped first; empty input yields zero ratios, forming and low risk.
func (e *Engine) ComputeMetrics(messages []normalize.Message, users []normalize.User, channels []normalize.Channel) TeamHealthMetrics {
	s := Clean(messages, users, channels)
	lex := &e.opts.Lexicon

	total := len(s.Messages)
	totalUsers := len(s.Users)
	active := s.ActiveUsers()

	var help, errs, innov, stress, conflict, direction, supportive, coaching int
	var weekend, afterHours int
	for i := range s.Messages {
		m := &s.Messages[i]
		if lex.HelpSeeking.Match(m.Text) {
			help++
		}
		if lex.ErrorReporting.Match(m.Text) {
			errs++
		}
		if lex.Innovation.Match(m.Text) {
			innov++
		}
		if lex.Stress.Match(m.Text) {
			stress++
		}
		if lex.Conflict.Match(m.Text) {
			conflict++
		}
		if lex.Direction.Match(m.Text) {
			direction++
		}
		if lex.Supportive.Match(m.Text) {
			supportive++
		}
		if lex.Coaching.Match(m.Text) {
			coaching++
		}
		if classify.IsWeekend(m.Timestamp, e.opts.Location) {
			weekend++
		}
		if classify.IsAfterHours(m.Timestamp, e.opts.Location) {
			afterHours++
		}
	}

	metrics := TeamHealthMetrics{
		SchemaVersion: SchemaVersion,
		EarlyWarnings: []string{},
	}

	// Six conditions
	metrics.RealTeam = clamp01(ratio(active, totalUsers))
	metrics.CompellingDirection = clamp01(ratio(direction, total) * DirectionMultiplier)
	metrics.EnablingStructure = clamp01(structureScore(s.Channels))
	metrics.SupportiveContext = clamp01(ratio(supportive, total) * SupportiveMultiplier)
	metrics.ExpertCoaching = clamp01(ratio(coaching, total) * CoachingMultiplier)

	// Psychological safety
	metrics.HelpSeeking = clamp01(ratio(help, total))
	metrics.ErrorReporting = clamp01(ratio(errs, total))
	metrics.InnovationBehavior = clamp01(ratio(innov, total))
	metrics.PsychologicalSafety = clamp01(ratio(help+errs+innov, 3*total))

	// Communication
	metrics.ResponseTime = responseTime(s.Messages)
	metrics.MessageFrequency = ratio(total, totalUsers)
	network := graph.BuildInteractionNetwork(s.Messages, e.opts.InteractionWindow)
	metrics.NetworkDensity = network.Density(totalUsers)
	metrics.Centralization = centralization(s.Messages)
	if total > 0 {
		metrics.CollaborationIndex = clamp01(0.8*metrics.NetworkDensity + 0.2*(1-metrics.Centralization))
	}

	// Burnout
	metrics.WeekendActivity = ratio(weekend, total)
	metrics.AfterHoursActivity = ratio(afterHours, total)
	metrics.StressIndicators = ratio(stress, total)
	metrics.BurnoutRisk = BurnoutRisk(metrics.WeekendActivity, metrics.AfterHoursActivity, metrics.StressIndicators)

	metrics.TeamStage = teamStage(total, active, totalUsers, ratio(conflict, total))
	metrics.EarlyWarnings = EarlyWarnings(metrics)
	metrics.RiskLevel = RiskLevelFor(len(metrics.EarlyWarnings), metrics.BurnoutRisk)

	return metrics
}

// BurnoutRisk weighs weekend, after-hours and stress ratios, clamped to [0,1].
func BurnoutRisk(weekend, afterHours, stress float64) float64 {
	return clamp01(0.4*weekend + 0.3*afterHours + 0.3*stress)
}

// EarlyWarnings evaluates each warning independently, in fixed order.
func EarlyWarnings(m TeamHealthMetrics) []string {
	warnings := []string{}
	if m.BurnoutRisk > 0.7 {
		warnings = append(warnings, WarningBurnout)
	}
	if m.Centralization > 0.7 {
		warnings = append(warnings, WarningBottleneck)
	}
	if m.WeekendActivity > 0.15 {
		warnings = append(warnings, WarningWeekend)
	}
	if m.AfterHoursActivity > 0.3 {
		warnings = append(warnings, WarningAfterHours)
	}
	return warnings
}

// RiskLevelFor grades a warning count and burnout risk.
func RiskLevelFor(warnings int, burnoutRisk float64) RiskLevel {
	switch {
	case warnings >= 3 || burnoutRisk > 0.8:
		return RiskCritical
	case warnings >= 2 || burnoutRisk > 0.6:
		return RiskHigh
	case warnings >= 1 || burnoutRisk > 0.4:
		return RiskMedium
	default:
		return RiskLow
	}
}

func teamStage(total, active, totalUsers int, conflictRatio float64) TeamStage {
	if totalUsers == 0 || float64(active) < 0.5*float64(totalUsers) {
		return StageForming
	}
	if conflictRatio > 0.10 {
		return StageStorming
	}
	if conflictRatio < 0.05 && total > 100 {
		return StagePerforming
	}
	return StageNorming
}

// responseTime averages the gap, in hours, between adjacent messages from
// different users in the same channel.
func responseTime(messages []normalize.Message) float64 {
	groups := graph.ByChannel(messages)
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sum float64
	var pairs int
	for _, id := range ids {
		msgs := groups[id]
		for i := 1; i < len(msgs); i++ {
			if msgs[i].UserID == msgs[i-1].UserID {
				continue
			}
			sum += msgs[i].Timestamp.Sub(msgs[i-1].Timestamp).Hours()
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}

// centralization is the share of messages sent by the most active user.
func centralization(messages []normalize.Message) float64 {
	if len(messages) == 0 {
		return 0
	}
	counts := make(map[string]int)
	top := 0
	for _, m := range messages {
		counts[m.UserID]++
		if counts[m.UserID] > top {
			top = counts[m.UserID]
		}
	}
	return float64(top) / float64(len(messages))
}

// structureScore is the share of channels whose purpose is longer than ten
// characters.
func structureScore(channels []normalize.Channel) float64 {
	structured := 0
	for _, c := range channels {
		if len([]rune(c.Purpose)) > 10 {
			structured++
		}
	}
	return ratio(structured, len(channels))
}

func ratio(num, den int) float64 {
	if den <= 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
