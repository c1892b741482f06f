package domain

import (
	"math"
	"sort"
	"time"
)

// Tier classifies a ward's operational complexity from its registered
// violation-point baseline.
type Tier struct {
	Coefficient int     `json:"coefficient"`
	BaseScore   float64 `json:"base_score"`
	Label       string  `json:"label"`
}

// AreaTier maps a violation-point baseline to its area tier. It is the single
// definition of the tier thresholds: registration previews, seeding and
// approval commits all go through it.
func AreaTier(points float64) Tier {
	switch {
	case points >= 1200:
		return Tier{Coefficient: 1, BaseScore: 1200, Label: "Tier 1 - Very complex (>= 1,200 points)"}
	case points >= 1000:
		return Tier{Coefficient: 2, BaseScore: 1000, Label: "Tier 2 - Complex (1,000 - < 1,200 points)"}
	case points >= 450:
		return Tier{Coefficient: 3, BaseScore: 450, Label: "Tier 3 - Less complex (450 - < 1,000 points)"}
	default:
		return Tier{Coefficient: 4, BaseScore: 50, Label: "Tier 4 - Not complex (< 450 points)"}
	}
}

// Score computes a unit's competitive compliance score on [0,100] from its
// confirmed issues and approved bonuses. Ratio-type violations accumulate
// penalty points scaled against the unit's base score and area coefficient;
// direct-type violations subtract their catalog factor flat (1 when the
// catalog omits it). Issues in any status other than confirmed and bonuses in
// any status other than approved contribute nothing.
func Score(unit Unit, issues []Issue, bonuses []BonusRequest) float64 {
	var ratioSum, directSum float64
	for _, issue := range issues {
		if issue.WardID != unit.ID || issue.Status != IssueConfirmed {
			continue
		}
		vc, ok := ViolationCodeByCode(issue.ViolationCode)
		if !ok {
			continue
		}
		switch vc.ScoringType {
		case ScoringRatio:
			ratioSum += issue.PenaltyPoints
		case ScoringDirect:
			factor := vc.DirectDeductionFactor
			if factor == 0 {
				factor = 1
			}
			directSum += factor
		}
	}

	var ratioDeduction float64
	if unit.BaseScore > 0 {
		ratioDeduction = ratioSum / unit.BaseScore * 100 * float64(unit.AreaCoefficient)
	}

	var bonusPoints float64
	for _, bonus := range bonuses {
		if bonus.WardID != unit.ID || bonus.Status != ReviewApproved || bonus.FinalPoints == nil {
			continue
		}
		bonusPoints += *bonus.FinalPoints
	}

	raw := 100 - (ratioDeduction + directSum) + bonusPoints
	return clamp(raw, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round2 rounds a score to two decimal places for display. Internal
// computation keeps full precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Rank labels a display score for the dashboard leaderboard.
func Rank(score float64) string {
	switch {
	case score >= 95:
		return "excellent"
	case score >= 85:
		return "good"
	case score >= 70:
		return "satisfactory"
	default:
		return "needs improvement"
	}
}

// WardScore is one leaderboard row.
type WardScore struct {
	WardID   string  `json:"ward_id"`
	WardName string  `json:"ward_name"`
	Score    float64 `json:"score"`
	Rank     string  `json:"rank"`
}

// Scoreboard computes display scores for every ward unit in the snapshot,
// sorted by score descending then ward id for a stable order.
func Scoreboard(snapshot Snapshot) []WardScore {
	issues := make([]Issue, 0, len(snapshot.Issues))
	for _, issue := range snapshot.Issues {
		issues = append(issues, issue)
	}
	bonuses := make([]BonusRequest, 0, len(snapshot.BonusRequests))
	for _, bonus := range snapshot.BonusRequests {
		bonuses = append(bonuses, bonus)
	}

	var rows []WardScore
	for _, unit := range snapshot.Units {
		if unit.Role != RoleWard {
			continue
		}
		score := Round2(Score(unit, issues, bonuses))
		rows = append(rows, WardScore{WardID: unit.ID, WardName: unit.UnitName, Score: score, Rank: Rank(score)})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].WardID < rows[j].WardID
	})
	return rows
}

// DashboardStats aggregates the figures shown on the overview screen.
type DashboardStats struct {
	TotalIssues    int         `json:"total_issues"`
	SLABreaches    int         `json:"sla_breaches"`
	PendingConfirm int         `json:"pending_confirm"`
	Scores         []WardScore `json:"scores"`
}

// Stats derives dashboard figures from a snapshot at the given instant.
func Stats(snapshot Snapshot, now time.Time) DashboardStats {
	stats := DashboardStats{Scores: Scoreboard(snapshot)}
	for _, issue := range snapshot.Issues {
		stats.TotalIssues++
		if issue.Status == IssueResolved {
			stats.PendingConfirm++
		}
		if SLAStateAt(issue.DeadlineTime, issue.Status, now) == SLAOverdue {
			stats.SLABreaches++
		}
	}
	return stats
}
