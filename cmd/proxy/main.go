package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/shopspring/decimal"

	"github.com/betkit/polytrade/clob/client"
	"github.com/betkit/polytrade/internal/cli"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("POLYTRADE_CONFIG"), "config file (yaml or json)")
		deploy     = flag.Bool("deploy", false, "deploy the proxy if it is not on chain yet")
		withdraw   = flag.String("withdraw", "", "withdraw this much collateral from the proxy to the owner")
	)
	flag.Parse()

	cfg, err := cli.Setup(*configPath)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}

	ctx := context.Background()
	c, cleanup, err := cli.BuildClient(ctx, cfg)
	if err != nil {
		log.Fatalf("init client: %v", err)
	}
	defer cleanup()

	account, err := c.ProxyAccount(ctx)
	if err != nil {
		log.Fatalf("resolve proxy: %v", err)
	}
	fmt.Printf("owner:   %s\n", account.Owner)
	fmt.Printf("proxy:   %s\n", account.Address)
	fmt.Printf("state:   %s\n", account.State)

	if balance, err := c.CollateralBalance(ctx); err != nil {
		log.Printf("read balance: %v", err)
	} else {
		fmt.Printf("balance: %s\n", balance.StringFixed(2))
	}

	if *deploy {
		runDeploy(ctx, c)
	}
	if *withdraw != "" {
		runWithdraw(ctx, c, *withdraw)
	}
}

func runDeploy(ctx context.Context, c *client.Client) {
	progress := client.NewProgress(0)
	done := cli.StreamProgress(progress)
	account, err := c.DeployProxy(ctx, progress)
	progress.Close()
	<-done
	if err != nil {
		log.Fatalf("deploy proxy: %v", err)
	}
	fmt.Printf("proxy %s is %s\n", account.Address, account.State)
}

func runWithdraw(ctx context.Context, c *client.Client, raw string) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		log.Fatalf("parse -withdraw: %v", err)
	}
	if !amount.IsPositive() {
		log.Fatal("-withdraw must be positive")
	}

	progress := client.NewProgress(0)
	done := cli.StreamProgress(progress)
	txHash, err := c.WithdrawProxyCollateral(ctx, amount, progress)
	progress.Close()
	<-done
	if err != nil {
		log.Fatalf("withdraw: %v", err)
	}
	fmt.Printf("withdrew %s collateral in %s\n", amount.StringFixed(2), txHash)
}
