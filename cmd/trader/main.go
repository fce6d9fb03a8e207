package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betkit/polytrade/clob/client"
	"github.com/betkit/polytrade/clob/types"
	"github.com/betkit/polytrade/internal/cli"
	"github.com/betkit/polytrade/internal/metrics"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("POLYTRADE_CONFIG"), "config file (yaml or json)")
		tokenID    = flag.String("token", "", "outcome token id")
		marketID   = flag.String("market", "", "market condition id (journal only)")
		side       = flag.String("side", "BUY", "BUY or SELL")
		price      = flag.String("price", "", "limit price in (0, 1)")
		size       = flag.String("size", "", "outcome-token quantity")
		spend      = flag.String("spend", "", "collateral to spend (BUY only, instead of -size)")
		orderType  = flag.String("type", "GTC", "order type: GTC, GTD, FOK or FAK")
		tick       = flag.String("tick", "", "tick size; fetched from the venue when empty")
		expires    = flag.Duration("expires", 0, "GTD expiry from now, e.g. 24h")
		preview    = flag.Bool("preview", false, "walk the book and show the expected fill, do not trade")
	)
	flag.Parse()

	if *tokenID == "" {
		log.Fatal("-token is required")
	}

	cfg, err := cli.Setup(*configPath)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Off by default; expvar and pprof for a submission that needs a
	// second look.
	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		if _, err := metrics.StartAsync(ctx, addr); err != nil {
			log.Printf("metrics server: %v", err)
		}
	}

	c, cleanup, err := cli.BuildClient(ctx, cfg)
	if err != nil {
		log.Fatalf("init client: %v", err)
	}
	defer cleanup()

	if *preview {
		if err := runPreview(ctx, c, *tokenID, *side, *size, *spend); err != nil {
			log.Fatalf("preview: %v", err)
		}
		return
	}

	input, err := buildInput(*marketID, *tokenID, *side, *price, *size, *spend, *expires)
	if err != nil {
		log.Fatalf("bad trade input: %v", err)
	}

	tickSize := types.TickSize(*tick)
	if tickSize == "" {
		tickSize, err = c.TickSize(ctx, *tokenID)
		if err != nil {
			log.Fatalf("fetch tick size: %v", err)
		}
		fmt.Printf("tick size: %s\n", tickSize)
	}

	progress := client.NewProgress(0)
	done := cli.StreamProgress(progress)
	result, err := c.Trade(ctx, &client.TradeRequest{
		Input:     input,
		TickSize:  tickSize,
		OrderType: types.OrderType(strings.ToUpper(*orderType)),
	}, progress)
	<-done
	if err != nil {
		log.Fatalf("trade failed: %v", err)
	}

	order := result.Order
	fmt.Printf("order accepted\n")
	fmt.Printf("  id:         %s\n", result.Response.OrderID)
	fmt.Printf("  status:     %s\n", result.Response.Status)
	fmt.Printf("  price:      %s\n", order.Order.Price)
	fmt.Printf("  maker amt:  %s\n", order.Order.MakerAmount)
	fmt.Printf("  taker amt:  %s\n", order.Order.TakerAmount)
}

func buildInput(marketID, tokenID, side, price, size, spend string, expires time.Duration) (*types.TradeInput, error) {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("price %q: %w", price, err)
	}
	input := &types.TradeInput{
		MarketID: marketID,
		TokenID:  tokenID,
		Side:     types.Side(strings.ToUpper(side)),
		Price:    p,
	}
	if size != "" {
		if input.Size, err = decimal.NewFromString(size); err != nil {
			return nil, fmt.Errorf("size %q: %w", size, err)
		}
	}
	if spend != "" {
		if input.Spend, err = decimal.NewFromString(spend); err != nil {
			return nil, fmt.Errorf("spend %q: %w", spend, err)
		}
	}
	if expires > 0 {
		input.Expiration = time.Now().Add(expires)
	}
	return input, nil
}

func runPreview(ctx context.Context, c *client.Client, tokenID, side, size, spend string) error {
	book, err := c.OrderBook(ctx, tokenID)
	if err != nil {
		return err
	}
	s := types.Side(strings.ToUpper(side))
	raw := spend
	if s == types.SideSell {
		raw = size
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("amount %q: %w", raw, err)
	}
	est, err := client.EstimateFill(book, s, amount)
	if err != nil {
		return err
	}
	fmt.Printf("book %s (tick %s)\n", book.Market, book.TickSize)
	fmt.Printf("  quantity:  %s\n", est.Quantity)
	fmt.Printf("  avg price: %s\n", est.AvgPrice)
	fmt.Printf("  total:     %s\n", est.Spent)
	if est.Exhausted {
		fmt.Println("  note: book too thin for the full amount")
	}
	return nil
}
