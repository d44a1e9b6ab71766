// Package recommend turns metrics and insights into research-backed
// recommendations.
package recommend

// TemplateKey names a recommendation template.
type TemplateKey string

const (
	PsychologicalSafety       TemplateKey = "psychological_safety"
	DecisionDelegation        TemplateKey = "decision_delegation"
	CommunicationOptimization TemplateKey = "communication_optimization"
	BurnoutPrevention         TemplateKey = "burnout_prevention"
	TeamDevelopment           TemplateKey = "team_development"
	InnovationCulture         TemplateKey = "innovation_culture"
	CollaborationEnhancement  TemplateKey = "collaboration_enhancement"
)

// Template is the fixed text behind a recommendation.
type Template struct {
	Title          string
	Science        string
	Implementation []string
	LearnMore      []string
}

var templates = map[TemplateKey]Template{
	PsychologicalSafety: {
		Title:   "Psychological Safety Enhancement",
		Science: "Amy Edmondson's research shows teams with high psychological safety are 50% more likely to be high-performing and show 3x more innovation behavior.",
		Implementation: []string{
			"Conduct psychological safety assessment",
			"Create safe spaces for questions and mistakes",
			"Model vulnerability and learning from failures",
			"Encourage help-seeking behavior",
			"Celebrate learning over perfection",
		},
		LearnMore: []string{
			"Psychological Safety Assessment Guide",
			"Edmondson's Team Learning Research",
			"Building Trust in Teams Framework",
		},
	},
	DecisionDelegation: {
		Title:   "Decision Delegation Framework",
		Science: "Harvard Business Review analysis shows organizations with clear decision rights are 5x more likely to be high-performing and experience 2x faster decision-making speed.",
		Implementation: []string{
			"Map current decision types and identify bottlenecks",
			"Create decision authority matrix by role and impact level",
			"Define escalation paths for complex decisions",
			"Train team leads on delegation best practices",
			"Document and communicate new decision framework",
		},
		LearnMore: []string{
			"Decision Rights Framework Guide",
			"Delegation Best Practices Research",
			"RACI Matrix Implementation",
		},
	},
	CommunicationOptimization: {
		Title:   "Communication Pattern Optimization",
		Science: "MIT research shows optimal communication networks can improve team performance by 40% and reduce decision time by 60%.",
		Implementation: []string{
			"Analyze current communication network structure",
			"Identify information bottlenecks and gatekeepers",
			"Implement cross-functional communication channels",
			"Establish clear communication protocols",
			"Monitor and optimize information flow",
		},
		LearnMore: []string{
			"Network Analysis in Organizations",
			"Communication Protocol Design",
			"Cross-functional Team Building",
		},
	},
	BurnoutPrevention: {
		Title:   "Burnout Prevention Strategy",
		Science: "Research by Van Dun et al. (2024) shows early burnout detection can prevent 60% of team turnover and improve productivity by 35%.",
		Implementation: []string{
			"Implement regular burnout risk assessments",
			"Establish work-life boundary policies",
			"Create quiet hours and no-meeting days",
			"Provide mental health support resources",
			"Monitor after-hours and weekend activity patterns",
		},
		LearnMore: []string{
			"Burnout Prevention Framework",
			"Work-Life Balance Best Practices",
			"Mental Health Support Programs",
		},
	},
	TeamDevelopment: {
		Title:   "Team Development Stage Optimization",
		Science: "Tuckman's research shows teams progress through predictable stages, and appropriate leadership support at each stage improves outcomes by 45%.",
		Implementation: []string{
			"Assess current team development stage",
			"Provide stage-appropriate leadership support",
			"Facilitate team building activities",
			"Address conflicts constructively",
			"Celebrate team milestones and achievements",
		},
		LearnMore: []string{
			"Team Development Assessment Tool",
			"Stage-Appropriate Leadership Guide",
			"Conflict Resolution Framework",
		},
	},
	InnovationCulture: {
		Title:   "Innovation Culture Building",
		Science: "Research shows organizations with strong innovation cultures experience 3x higher employee engagement and 2.5x faster time-to-market.",
		Implementation: []string{
			"Create innovation time allocation (20% time)",
			"Establish idea generation and testing processes",
			"Reward experimentation and learning from failure",
			"Build cross-functional innovation teams",
			"Implement rapid prototyping and feedback loops",
		},
		LearnMore: []string{
			"Innovation Culture Assessment",
			"Design Thinking Implementation",
			"Rapid Prototyping Methods",
		},
	},
	CollaborationEnhancement: {
		Title:   "Collaboration Enhancement Framework",
		Science: "Stanford research shows teams with high collaboration scores are 2.5x more likely to achieve their goals and show 40% higher satisfaction.",
		Implementation: []string{
			"Assess current collaboration patterns",
			"Identify collaboration barriers and facilitators",
			"Implement collaborative tools and processes",
			"Create cross-functional project teams",
			"Establish collaboration metrics and feedback",
		},
		LearnMore: []string{
			"Collaboration Assessment Tool",
			"Cross-functional Team Building",
			"Collaborative Leadership Practices",
		},
	},
}

// Lookup returns the template for key.
func Lookup(key TemplateKey) (Template, bool) {
	t, ok := templates[key]
	return t, ok
}
