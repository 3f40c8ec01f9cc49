package notify

import (
	"fmt"
	"strings"

	"github.com/crosslisted/arbscan/internal/domain"
)

// FormatOpportunity renders an arbitrage opportunity as a title and a
// multi-line message body shared by all channels.
func FormatOpportunity(opp domain.Opportunity) (title, message string) {
	a, b := opp.Pair.A, opp.Pair.B

	var yesSide, noSide domain.Market
	switch opp.Direction {
	case domain.DirectionBuyYesANoB:
		yesSide, noSide = a, b
	default:
		yesSide, noSide = b, a
	}

	title = fmt.Sprintf("Arbitrage: %.2f%% profit", opp.ProfitPct)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", a.Title)
	fmt.Fprintf(&sb, "Buy YES on %s at %.3f\n", yesSide.Platform, yesSide.YesPrice)
	fmt.Fprintf(&sb, "Buy NO on %s at %.3f\n", noSide.Platform, noSide.NoPrice)
	fmt.Fprintf(&sb, "Total cost: %.4f, profit after fees: %.2f%%\n", opp.TotalCost, opp.ProfitPct)
	fmt.Fprintf(&sb, "Title similarity: %.2f\n", opp.Pair.Similarity)
	if a.URL != "" {
		fmt.Fprintf(&sb, "%s: %s\n", a.Platform, a.URL)
	}
	if b.URL != "" {
		fmt.Fprintf(&sb, "%s: %s\n", b.Platform, b.URL)
	}
	return title, strings.TrimRight(sb.String(), "\n")
}

// FormatStartup renders the online announcement sent when the scan loop
// starts.
func FormatStartup(interval string) (title, message string) {
	return "Arbitrage scanner online",
		fmt.Sprintf("Scanning %s and %s every %s.",
			domain.PlatformPolymarket, domain.PlatformKalshi, interval)
}
