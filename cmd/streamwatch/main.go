package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"tableside/internal/client"
	"tableside/pkg/logger"
)

const usage = `
Tableside - Stream watcher

Follows one event stream and reconnects with backoff when it drops.

Usage:
  streamwatch [flags] <stream-url>

Flags:
  -token string         Bearer token (default $TABLESIDE_TOKEN)
  -reset-on-connect     Reset the backoff after every successful connect
  -mode string          Log mode, debug or release (default "debug")

Examples:
  streamwatch -token $JWT http://localhost:8080/v1/staff/orders/stream
  streamwatch http://localhost:8080/v1/menu/notifications/stream
`

func main() {
	token := flag.String("token", os.Getenv("TABLESIDE_TOKEN"), "Bearer token")
	resetOnConnect := flag.Bool("reset-on-connect", false, "Reset the backoff after every successful connect")
	mode := flag.String("mode", logger.DevelopmentMode, "Log mode")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	log := logger.New(*mode)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	ctrl := client.NewController(client.Options{
		URL:            flag.Arg(0),
		Connector:      client.HTTPConnector{Token: *token},
		ResetOnConnect: *resetOnConnect,
		Logger:         log,
		Callbacks: client.Callbacks{
			OnToast: func(t client.Toast) {
				fmt.Printf("[%s] %s\n", t.Level, t.Message)
			},
			OnRefresh: func() {
				fmt.Printf("refresh requested at %s\n", time.Now().Format(time.TimeOnly))
			},
			OnBasket: printBasket,
		},
		OnConnected: func() {
			fmt.Println("connected")
		},
		OnReconnectScheduled: func(attempt int, delay time.Duration) {
			fmt.Printf("reconnecting in %s (attempt %d)\n", delay, attempt+1)
		},
	})
	if err := ctrl.Start(ctx); err != nil {
		log.Errorf("failed to start: %v", err)
		os.Exit(1)
	}

	<-ctx.Done()
	ctrl.Close()
}

func printBasket(snapshot map[uint]int) {
	ids := make([]uint, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	fmt.Println("basket:")
	for _, id := range ids {
		fmt.Printf("  item %d x %d\n", id, snapshot[id])
	}
}
