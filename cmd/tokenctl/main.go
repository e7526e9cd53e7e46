package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/finsim/auth-service/internal/database"
	"github.com/finsim/auth-service/internal/tokenstore"
)

// tokenctl is a small operator tool that talks to the token store directly:
//
//	tokenctl -addr localhost:6379 list <userId>
//	tokenctl -addr localhost:6379 revoke <token>
func main() {
	addr := flag.String("addr", "localhost:6379", "redis address")
	password := flag.String("password", "", "redis password")
	db := flag.Int("db", 0, "redis database")
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		usage()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := database.ConnectRedis(ctx, *addr, *password, *db)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer client.Close()

	repo := tokenstore.NewRedisRepository(client, "")

	switch args[0] {
	case "list":
		listTokens(ctx, repo, args[1])
	case "revoke":
		if err := repo.Revoke(ctx, args[1]); err != nil {
			fatalf("revoke: %v", err)
		}
		fmt.Println("revoked")
	default:
		usage()
	}
}

func listTokens(ctx context.Context, repo *tokenstore.RedisRepository, userID string) {
	members, err := repo.IndexMembers(ctx, userID)
	if err != nil {
		fatalf("list: %v", err)
	}
	now := time.Now().UTC()
	present := 0
	for _, credential := range members {
		rec, err := repo.Get(ctx, credential)
		if err != nil {
			fatalf("list: %v", err)
		}
		if rec == nil {
			continue
		}
		state := rec.Status
		if !rec.Live(now) && rec.Status == tokenstore.StatusActive {
			state = "expired"
		}
		present++
		// print a token prefix only; full credentials stay out of terminals
		fmt.Printf("%-10s %-8s ip=%-15s created=%s expires=%s token=%s...\n",
			state, rec.SessionType, rec.IPAddress,
			rec.CreatedAt.Format(time.RFC3339), rec.ExpiresAt.Format(time.RFC3339),
			prefix(credential, 12))
	}
	fmt.Printf("%d record(s) present, %d index entr(ies)\n", present, len(members))
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: tokenctl [-addr host:port] [-password pw] [-db n] list <userId> | revoke <token>")
	os.Exit(2)
}

func fatalf(format string, v ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", v...)
	os.Exit(1)
}
