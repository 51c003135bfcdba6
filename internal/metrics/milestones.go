package metrics

// Milestone is a longest-streak badge.
type Milestone struct {
	Name  string `json:"name"`
	Weeks int    `json:"weeks"`
	Icon  string `json:"icon"`
}

// Milestones are ordered by the number of weeks required.
var Milestones = []Milestone{
	{Name: "First Win", Weeks: 1, Icon: "🎉"},
	{Name: "Getting Started", Weeks: 2, Icon: "🌱"},
	{Name: "Building Habits", Weeks: 3, Icon: "💪"},
	{Name: "One Month Strong", Weeks: 4, Icon: "📅"},
	{Name: "Consistent", Weeks: 6, Icon: "⭐"},
	{Name: "Impressive", Weeks: 8, Icon: "🔥"},
	{Name: "Unstoppable", Weeks: 12, Icon: "🚀"},
	{Name: "Half Year Hero", Weeks: 26, Icon: "👑"},
	{Name: "Legend", Weeks: 52, Icon: "🏆"},
}

// AchievedMilestones returns every milestone reached by longestStreak.
func AchievedMilestones(longestStreak int) []Milestone {
	out := []Milestone{}
	for _, m := range Milestones {
		if longestStreak >= m.Weeks {
			out = append(out, m)
		}
	}
	return out
}

// NextMilestone returns the first milestone not yet reached, or nil.
func NextMilestone(longestStreak int) *Milestone {
	for i := range Milestones {
		if longestStreak < Milestones[i].Weeks {
			m := Milestones[i]
			return &m
		}
	}
	return nil
}

// ProgressToNextMilestone is a 0..100 percentage toward the next milestone.
func ProgressToNextMilestone(longestStreak int) float64 {
	next := NextMilestone(longestStreak)
	if next == nil {
		return 100
	}
	return min(100, float64(longestStreak)/float64(next.Weeks)*100)
}
