package main

import (
	"github.com/alecthomas/kong"

	"github.com/vitaminmoo/adbw-tool/internal/cli"
)

func main() {
	var c cli.CLI
	ctx := kong.Parse(&c,
		kong.Name("adbw"),
		kong.Description("Move USB attached Android devices onto adb over TCP"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		cli.Vars(),
	)
	err := ctx.Run(&c)
	ctx.FatalIfErrorf(err)
}
