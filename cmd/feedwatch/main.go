// Command feedwatch follows a photoshare server's activity feed through the
// client cache and prints it whenever it changes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yigit/photoshare/internal/app/models/dto"
	"github.com/yigit/photoshare/internal/pkg/logger"
	"github.com/yigit/photoshare/pkg/client"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "photoshare server base URL")
	loginName := flag.String("login", "", "login name (anonymous when empty)")
	password := flag.String("password", os.Getenv("PHOTOSHARE_PASSWORD"), "password; defaults to $PHOTOSHARE_PASSWORD")
	feedLen := flag.Int("n", client.DefaultFeedLength, "number of activities to show")
	retry := flag.Duration("retry", 5*time.Second, "delay before reconnecting; 0 exits on disconnect")
	flag.Parse()

	logger.Configure(logger.Config{Level: logger.InfoLevel, Pretty: true, Output: os.Stderr})
	log := logger.Component("feedwatch")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.NewHTTPClient(*serverURL)
	var viewer dto.UserRef
	if *loginName != "" {
		auth, err := api.Login(ctx, *loginName, *password)
		if err != nil {
			log.Error().Err(err).Str("login", *loginName).Msg("Login failed")
			os.Exit(1)
		}
		viewer = dto.UserRef{ID: auth.User.ID, FirstName: auth.User.FirstName, LastName: auth.User.LastName}
		defer func() {
			if err := api.Logout(context.Background()); err != nil {
				log.Warn().Err(err).Msg("Logout failed")
			}
		}()
	}

	cache := client.NewCache(api, viewer, client.WithFeedLength(*feedLen), client.WithLogger(log))
	defer cache.Close()
	sub := client.NewSubscriber(api.EventsURL(), api.Token(), log)

	for {
		if err := watch(ctx, cache, sub); err != nil {
			log.Warn().Err(err).Msg("Event stream unavailable")
		}
		if ctx.Err() != nil || *retry <= 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(*retry):
		}
		// Events may have been missed while disconnected.
		cache.Invalidate([]client.Key{client.ActivitiesKey()})
	}
}

// watch prints the feed after every event until the stream ends
func watch(ctx context.Context, cache *client.Cache, sub *client.Subscriber) error {
	events, err := sub.Events(ctx)
	if err != nil {
		return err
	}
	if err := printFeed(ctx, cache); err != nil {
		return err
	}
	for ev := range events {
		if err := cache.Apply(ev); err != nil {
			continue
		}
		if ev.Type == dto.EventNewActivity {
			if err := printFeed(ctx, cache); err != nil {
				return err
			}
		}
	}
	return nil
}

func printFeed(ctx context.Context, cache *client.Cache) error {
	feed, err := cache.Activities(ctx)
	if err != nil {
		return err
	}
	fmt.Println("----", time.Now().Format(time.Kitchen))
	for _, a := range feed {
		line := fmt.Sprintf("%s  %-14s %s %s", a.CreatedAt.Local().Format("15:04:05"), a.Type, a.User.FirstName, a.User.LastName)
		if a.FileName != "" {
			line += "  " + a.FileName
		}
		fmt.Println(line)
	}
	return nil
}
