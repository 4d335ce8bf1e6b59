package runner

import "github.com/projectdiscovery/gologger"

const version = "v1.0.0"

var banner = `
       ____   __               __
  ____/ __/  / /_  ___   _____/ /_
 / ___/ /_  / __/ / _ \ / ___/ __/
/ /__/ __/ / /_  /  __/(__  ) /_
\___/_/    \__/  \___//____/\__/  ` + version + `
`

// showBanner prints the tool banner to the screen.
func showBanner() {
	gologger.Print().Msgf("%s\n", banner)
	gologger.Print().Msgf("\t\tgithub.com/lu-lingyun/CFTest\n\n")
}
