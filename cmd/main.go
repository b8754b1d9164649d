package main

import (
	"fmt"
	"os"

	"crosstrader/cmd/keeper"
	"crosstrader/cmd/keys"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "Crosstrader CMD"
	app.Usage = "The Crosstrader command line interface"

	app.Commands = []cli.Command{
		keeperCMD,
		keysCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	keeperCMD = cli.Command{
		Name:        "keeper",
		Usage:       "run Keeper",
		Action:      keeperAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the upkeep loop without the HTTP API`,
	}
	keysCMD = cli.Command{
		Name:        "keys",
		Usage:       "run Keys",
		Action:      keysAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Seal bridge credentials and hash operator tokens`,
	}
)

func keeperAction(_ *cli.Context) error {

	logrus.Info("Starting keeper CMD")
	logrus.WithField("cmd", "keeper")

	k := &keeper.Keeper{}
	err := k.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func keysAction(_ *cli.Context) error {

	logrus.Info("Starting keys CMD")
	logrus.WithField("cmd", "keys")

	k := &keys.Keys{}
	err := k.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}
