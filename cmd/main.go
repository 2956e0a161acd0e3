package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"ordergateway/cmd/gateway"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "Order Gateway CMD"
	app.Usage = "The order gateway command line interface"
	app.Version = Version

	app.Commands = []cli.Command{
		gatewayCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	gatewayCMD = cli.Command{
		Name:        "gateway",
		Usage:       "run the webhook order gateway",
		Action:      gatewayAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Serve the webhook endpoint and execute inbound trade signals`,
	}
)

func gatewayAction(c *cli.Context) error {
	g := gateway.Gateway{}
	return g.Start()
}
