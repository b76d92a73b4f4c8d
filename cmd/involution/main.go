// The involution binary serves high-accuracy astronomical positions over
// HTTP: kernel-backed ephemeris computation, historical local-time
// resolution, and sidereal zodiac transforms.
package main

import (
	"os"
	"runtime"

	// Embed the IANA database so historical zone rules resolve identically
	// regardless of the host system.
	_ "time/tzdata"

	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/involution-sh/involution/cmd/involution/flags"
	"github.com/involution-sh/involution/node"
)

var log = logrus.WithField("prefix", "main")

func startNode(ctx *cli.Context) error {
	n, err := node.New(ctx)
	if err != nil {
		return err
	}
	n.Start()
	return nil
}

func main() {
	app := &cli.App{
		Name:   "involution",
		Usage:  "astronomical position serving plane",
		Action: startNode,
		Flags:  flags.Flags,
		Before: func(ctx *cli.Context) error {
			runtime.GOMAXPROCS(runtime.NumCPU())

			formatter := new(prefixed.TextFormatter)
			formatter.TimestampFormat = "2006-01-02 15:04:05"
			formatter.FullTimestamp = true
			logrus.SetFormatter(formatter)

			level, err := logrus.ParseLevel(ctx.String(flags.VerbosityFlag.Name))
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			return nil
		},
	}
	cli.AppHelpTemplate = usageTemplate

	if err := app.Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
