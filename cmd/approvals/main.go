package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/betkit/polytrade/clob/client"
	"github.com/betkit/polytrade/internal/cli"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("POLYTRADE_CONFIG"), "config file (yaml or json)")
		grant      = flag.Bool("grant", false, "grant whatever is missing instead of only reporting")
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

	status, err := c.CheckApprovals(ctx)
	if err != nil {
		log.Fatalf("check approvals: %v", err)
	}
	printStatus(!status.NeedsCollateralSupport, "collateral -> settlement")
	printStatus(!status.NeedsCollateralExchange, "collateral -> exchange")
	printStatus(!status.NeedsOutcomeExchange, "outcome tokens -> operators")

	if status.AllApproved() {
		fmt.Println("all approvals in place")
		return
	}
	if !*grant {
		fmt.Println("missing approvals found; rerun with -grant to fix")
		return
	}

	progress := client.NewProgress(0)
	done := cli.StreamProgress(progress)
	status, err = c.EnsureApprovals(ctx, progress)
	progress.Close()
	<-done
	if err != nil {
		log.Fatalf("grant approvals: %v", err)
	}
	if status.AllApproved() {
		fmt.Println("all approvals in place")
		return
	}
	log.Fatal("approvals still missing after granting; check the transactions above")
}

func printStatus(ok bool, label string) {
	mark := "MISSING"
	if ok {
		mark = "ok"
	}
	fmt.Printf("  %-28s %s\n", label, mark)
}
