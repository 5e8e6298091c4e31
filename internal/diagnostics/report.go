package diagnostics

import (
	"fmt"
	"strings"

	"crminsight/domain/model"
	"crminsight/internal/training"
)

// Markdown renders diagnostics, and optionally a tier histogram from a
// scoring run, as a Markdown report
func Markdown(d *model.Diagnostics, scores *model.ScoreResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Churn model report\n\n")
	fmt.Fprintf(&b, "- **Artifact:** `%s`\n", d.ArtifactID)
	fmt.Fprintf(&b, "- **Target:** `%s`\n", d.Target)
	fmt.Fprintf(&b, "- **Training rows:** %d\n", d.TrainRows)
	fmt.Fprintf(&b, "- **Expanded features:** %d\n", d.FeatureCount)
	fmt.Fprintf(&b, "- **In-sample AUC:** %s\n", training.FormatMetric(d.Metric))
	if d.TargetRate >= 0 && d.TargetRate <= 1 {
		fmt.Fprintf(&b, "- **Churn rate:** %.1f%%\n\n", d.TargetRate*100)
	} else {
		// numeric targets outside 0..1 report their plain mean
		fmt.Fprintf(&b, "- **Churn rate:** %.4f\n\n", d.TargetRate)
	}

	b.WriteString("## Top features\n\n")
	if len(d.TopFeatures) == 0 {
		b.WriteString("_No features._\n\n")
	} else {
		b.WriteString("| Rank | Feature | Weight |\n|---:|---|---:|\n")
		for _, f := range d.TopFeatures {
			fmt.Fprintf(&b, "| %d | %s | %+.4f |\n", f.Rank, escapeCell(f.Name), f.Weight)
		}
		b.WriteString("\n")
	}

	if scores != nil {
		b.WriteString("## Recommended actions\n\n")
		b.WriteString("| Action | Customers |\n|---|---:|\n")
		for _, tier := range model.Recommendations() {
			fmt.Fprintf(&b, "| %s | %d |\n", tier, scores.Tiers[tier])
		}
		atRisk := 0
		for _, row := range scores.Rows {
			if row.AtRisk {
				atRisk++
			}
		}
		fmt.Fprintf(&b, "\n%d of %d customers at or above the %.2f risk threshold.\n", atRisk, len(scores.Rows), scores.Threshold)
	}

	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
