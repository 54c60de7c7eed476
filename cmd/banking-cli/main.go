package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/choiwab/banking-client/internal/auth"
	"github.com/choiwab/banking-client/internal/banking"
	"github.com/choiwab/banking-client/internal/config"
	"github.com/choiwab/banking-client/internal/rate"
	"github.com/choiwab/banking-client/pkg/logger"
)

const usage = `usage: banking-cli [--url URL] [--timeout DUR] <command> [flags]

commands:
  transfer       --from ACC1000 --to ACC1001 --amount 100 [--auth] [--username U] [--password P]
  validate       --account ACC1000
  balance        --account ACC1000
  list-accounts
  history        [--username U] [--password P]
  auth           [--username U] [--password P] [--scope enquiry|transfer]
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := config.Load()

	global := flag.NewFlagSet("banking-cli", flag.ContinueOnError)
	baseURL := global.String("url", "", "banking API base URL")
	timeout := global.Duration("timeout", 0, "per-attempt request timeout")
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	if err := global.Parse(args); err != nil {
		return 2
	}
	rest := global.Args()
	if len(rest) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	command, cmdArgs := rest[0], rest[1:]

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rateMgr := rate.NewManager(rate.Config{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})

	newClient := func(username, password string) *banking.Client {
		return banking.NewClient(logger.L(), rateMgr,
			cfg.ClientConfig(*baseURL, *timeout, username, password))
	}

	if err := dispatch(ctx, cfg, command, cmdArgs, newClient); err != nil {
		logger.S().Errorw("command failed", "command", command, "error", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func dispatch(ctx context.Context, cfg *config.Config, command string, args []string, newClient func(username, password string) *banking.Client) error {
	switch command {
	case "transfer":
		fs := flag.NewFlagSet("transfer", flag.ContinueOnError)
		from := fs.String("from", "", "source account ID (e.g. ACC1000)")
		to := fs.String("to", "", "destination account ID (e.g. ACC1001)")
		amountStr := fs.String("amount", "", "transfer amount")
		useAuth := fs.Bool("auth", false, "authenticate before transferring")
		username := fs.String("username", "", "username for authentication")
		password := fs.String("password", "", "password for authentication")
		if err := fs.Parse(args); err != nil {
			return err
		}
		amount, err := banking.ParseAmount(*amountStr)
		if err != nil {
			return err
		}
		client := newClient(*username, *password)
		defer client.Close()
		res, err := client.Transfer(ctx, *from, *to, amount, *useAuth)
		if err != nil {
			return err
		}
		return printJSON(res)

	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		account := fs.String("account", "", "account ID to validate")
		if err := fs.Parse(args); err != nil {
			return err
		}
		client := newClient("", "")
		defer client.Close()
		res, err := client.ValidateAccount(ctx, *account)
		if err != nil {
			return err
		}
		return printJSON(res)

	case "balance":
		fs := flag.NewFlagSet("balance", flag.ContinueOnError)
		account := fs.String("account", "", "account ID")
		if err := fs.Parse(args); err != nil {
			return err
		}
		client := newClient("", "")
		defer client.Close()
		res, err := client.GetBalance(ctx, *account)
		if err != nil {
			return err
		}
		return printJSON(res)

	case "list-accounts":
		fs := flag.NewFlagSet("list-accounts", flag.ContinueOnError)
		if err := fs.Parse(args); err != nil {
			return err
		}
		client := newClient("", "")
		defer client.Close()
		res, err := client.ListAccounts(ctx)
		if err != nil {
			return err
		}
		return printJSON(res)

	case "history":
		fs := flag.NewFlagSet("history", flag.ContinueOnError)
		username := fs.String("username", "", "username for authentication")
		password := fs.String("password", "", "password for authentication")
		if err := fs.Parse(args); err != nil {
			return err
		}
		client := newClient(*username, *password)
		defer client.Close()
		res, err := client.GetTransactionHistory(ctx)
		if err != nil {
			return err
		}
		return printJSON(res)

	case "auth":
		fs := flag.NewFlagSet("auth", flag.ContinueOnError)
		username := fs.String("username", "", "username")
		password := fs.String("password", "", "password")
		scopeStr := fs.String("scope", string(auth.ScopeTransfer), "token scope (enquiry or transfer)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		scope, err := auth.ParseScope(*scopeStr)
		if err != nil {
			return err
		}
		client := newClient(*username, *password)
		defer client.Close()
		user, pass := *username, *password
		if user == "" {
			user = cfg.Username
		}
		if pass == "" {
			pass = cfg.Password
		}
		grant, err := client.Authenticate(ctx, user, pass, scope)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{
			"token":  grant.Token,
			"scope":  grant.Scope,
			"expiry": grant.Expiry.Format(time.RFC3339),
		})

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
