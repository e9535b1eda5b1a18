package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/variational-research/variational-go/internal/svc"
	"github.com/variational-research/variational-go/pkg/variational"
	"github.com/variational-research/variational-go/pkg/variational/models"
	"github.com/variational-research/variational-go/pkg/variational/polling"
	"github.com/variational-research/variational-go/pkg/variational/precision"
)

var errUsage = errors.New("usage")

type opener func() (*svc.ServiceContext, error)

type command struct {
	usage string
	// offline commands never build a service context.
	offline bool
	run     func(ctx context.Context, sc *svc.ServiceContext, args []string, out io.Writer) error
}

var commands = map[string]command{
	"status":        {usage: "status", run: cmdStatus},
	"me":            {usage: "me", run: cmdMe},
	"assets":        {usage: "assets [-verified] [underlying...]", run: cmdAssets},
	"round":         {usage: "round [-min-dec n] [-max-dec-only n] [-max-sig n] <value>...", offline: true, run: cmdRound},
	"min-tick":      {usage: "min-tick <min-notional> <price>", offline: true, run: cmdMinTick},
	"wait-pool":     {usage: "wait-pool <pool-id> [status...]", run: cmdWaitPool},
	"wait-transfer": {usage: "wait-transfer <transfer-id> [status...]", run: cmdWaitTransfer},
	"wait-quote":    {usage: "wait-quote [-received] <quote-id> <status>...", run: cmdWaitQuote},
	"wait-rfq":      {usage: "wait-rfq [-received] <rfq-id> <status>...", run: cmdWaitRFQ},
	"permit":        {usage: "permit [-allowance n] [-base] [-expiry-s n] <pool-id>", run: cmdPermit},
	"sync-ledger":   {usage: "sync-ledger", run: cmdSyncLedger},
}

func printCommands(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "commands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
	fmt.Fprintln(w)
}

func run(ctx context.Context, args []string, out io.Writer, open opener) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
	if cmd.offline {
		return cmd.run(ctx, nil, args[1:], out)
	}
	sc, err := open()
	if err != nil {
		return err
	}
	defer sc.Close()
	return cmd.run(ctx, sc, args[1:], out)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", raw, err)
	}
	return id, nil
}

func cmdStatus(ctx context.Context, sc *svc.ServiceContext, _ []string, out io.Writer) error {
	resp, err := sc.Client.GetStatus(ctx)
	if err != nil {
		return err
	}
	return printJSON(out, resp.Result)
}

func cmdMe(ctx context.Context, sc *svc.ServiceContext, _ []string, out io.Writer) error {
	resp, err := sc.Client.GetMe(ctx)
	if err != nil {
		return err
	}
	return printJSON(out, resp.Result)
}

func cmdAssets(ctx context.Context, sc *svc.ServiceContext, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("assets", flag.ContinueOnError)
	verified := fs.Bool("verified", false, "only verified listings")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	listing, err := sc.Assets.Supported(ctx, *verified)
	if err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return printJSON(out, listing)
	}
	picked := make(models.SupportedAssets, fs.NArg())
	for _, name := range fs.Args() {
		if details, ok := listing[strings.ToUpper(name)]; ok {
			picked[strings.ToUpper(name)] = details
		}
	}
	return printJSON(out, picked)
}

func cmdRound(_ context.Context, _ *svc.ServiceContext, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("round", flag.ContinueOnError)
	req := precision.DefaultRequirements
	fs.IntVar(&req.MinDecimalFigures, "min-dec", req.MinDecimalFigures, "decimal places always kept")
	fs.IntVar(&req.MaxDecimalOnlyFigures, "max-dec-only", req.MaxDecimalOnlyFigures, "significant figures kept below one")
	fs.IntVar(&req.MaxSignificantFigures, "max-sig", req.MaxSignificantFigures, "significant figures kept at or above one")
	if err := fs.Parse(args); err != nil || fs.NArg() == 0 {
		return errUsage
	}
	for _, raw := range fs.Args() {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("invalid decimal %q: %w", raw, err)
		}
		fmt.Fprintf(out, "%s\t%s\n", raw, precision.Format(precision.RoundToRequirements(v, req)))
	}
	return nil
}

func cmdMinTick(_ context.Context, _ *svc.ServiceContext, args []string, out io.Writer) error {
	if len(args) != 2 {
		return errUsage
	}
	notional, err := decimal.NewFromString(args[0])
	if err != nil {
		return fmt.Errorf("invalid notional %q: %w", args[0], err)
	}
	price, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", args[1], err)
	}
	fmt.Fprintln(out, precision.Format(precision.DefaultMinQtyTick(notional, price)))
	return nil
}

func cmdWaitPool(ctx context.Context, sc *svc.ServiceContext, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	desired := make([]models.SettlementPoolStatus, 0, len(args)-1)
	for _, s := range args[1:] {
		desired = append(desired, models.SettlementPoolStatus(s))
	}
	pool, err := polling.WaitForSettlementPool(ctx, sc.Poller, sc.Client, id, desired...)
	if err != nil {
		return err
	}
	return printJSON(out, pool)
}

func cmdWaitTransfer(ctx context.Context, sc *svc.ServiceContext, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	desired := make([]models.TransferStatus, 0, len(args)-1)
	for _, s := range args[1:] {
		desired = append(desired, models.TransferStatus(s))
	}
	transfer, err := polling.WaitForTransfer(ctx, sc.Poller, sc.Client, id, desired...)
	if err != nil {
		return err
	}
	return printJSON(out, transfer)
}

// clearingArgs parses "[-received] <id> <status>..." shared by wait-quote and wait-rfq.
func clearingArgs(name string, args []string) (bool, uuid.UUID, []models.ClearingStatus, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	received := fs.Bool("received", false, "wait on the received side instead of the sent side")
	if err := fs.Parse(args); err != nil || fs.NArg() < 2 {
		return false, uuid.Nil, nil, errUsage
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return false, uuid.Nil, nil, err
	}
	desired := make([]models.ClearingStatus, 0, fs.NArg()-1)
	for _, s := range fs.Args()[1:] {
		desired = append(desired, models.ClearingStatus(s))
	}
	return *received, id, desired, nil
}

func cmdWaitQuote(ctx context.Context, sc *svc.ServiceContext, args []string, out io.Writer) error {
	received, id, desired, err := clearingArgs("wait-quote", args)
	if err != nil {
		return err
	}
	var quote models.Quote
	if received {
		quote, err = polling.WaitForReceivedQuote(ctx, sc.Poller, sc.Client, id, desired...)
	} else {
		quote, err = polling.WaitForSentQuote(ctx, sc.Poller, sc.Client, id, desired...)
	}
	if err != nil {
		return err
	}
	return printJSON(out, quote)
}

func cmdWaitRFQ(ctx context.Context, sc *svc.ServiceContext, args []string, out io.Writer) error {
	received, id, desired, err := clearingArgs("wait-rfq", args)
	if err != nil {
		return err
	}
	var rfq models.RFQ
	if received {
		rfq, err = polling.WaitForReceivedRFQ(ctx, sc.Poller, sc.Client, id, desired...)
	} else {
		rfq, err = polling.WaitForSentRFQ(ctx, sc.Poller, sc.Client, id, desired...)
	}
	if err != nil {
		return err
	}
	return printJSON(out, rfq)
}

func cmdPermit(ctx context.Context, sc *svc.ServiceContext, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("permit", flag.ContinueOnError)
	amount := fs.String("allowance", "1000000", "allowance amount")
	base := fs.Bool("base", false, "allowance is in token base units")
	expiry := fs.Int("expiry-s", 0, "seconds until the permit expires (0 uses the server default)")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return errUsage
	}
	if sc.Permits == nil {
		return errors.New("permit: profile has no private_key")
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}
	value, err := decimal.NewFromString(*amount)
	if err != nil {
		return fmt.Errorf("invalid allowance %q: %w", *amount, err)
	}
	allowance := models.Allowance{Type: models.AllowanceDecimal, Value: value}
	if *base {
		allowance.Type = models.AllowanceBase
	}

	pools, err := sc.Client.GetSettlementPools(ctx, variational.Filter{ID: id}, nil)
	if err != nil {
		return err
	}
	if len(pools.Result) == 0 || pools.Result[0].Data == nil {
		return fmt.Errorf("permit: settlement pool %s not found", id)
	}
	var seconds *int
	if *expiry > 0 {
		seconds = expiry
	}
	req, err := variational.Permit(*pools.Result[0].Data, allowance, seconds)
	if err != nil {
		return err
	}
	resp, err := sc.Permits.SignAndSubmit(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(out, map[string]any{"pool": id, "accepted": resp.Result})
}

func cmdSyncLedger(ctx context.Context, sc *svc.ServiceContext, _ []string, out io.Writer) error {
	if err := sc.EnsureLedger(ctx); err != nil {
		return err
	}
	stats, err := sc.Syncer.Sync(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "synced %d trades, %d transfers\n", stats.Trades, stats.Transfers)
	return nil
}
