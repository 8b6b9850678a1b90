package banner

import (
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
)

func Print() {
	ptermLogo, _ := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithRGB("Dead", pterm.NewRGB(46, 204, 113)),
		putils.LettersFromStringWithRGB("Watch", pterm.NewRGB(0, 0, 0))).
		Srender()

	pterm.DefaultCenter.Print(ptermLogo)

	pterm.DefaultCenter.Print(
		pterm.DefaultHeader.
			WithFullWidth().
			WithBackgroundStyle(pterm.NewStyle(pterm.BgGreen)).
			WithMargin(5).
			Sprint(pterm.White("💀 DeadWatch - Deadside Server Log Watcher")),
	)

	pterm.Info.Println(
		"Tails Deadside server logs and turns them into live player sessions and events." +
			"\nConnections, missions, airdrops, helicrashes and traders as they happen." +
			"\nVersion 0.0.1.",
	)
}
