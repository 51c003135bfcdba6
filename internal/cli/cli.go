// Package cli is the command-line host for the budgeting engine.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "saveit/internal/errors"
	"saveit/internal/metrics"
	"saveit/internal/models"
	"saveit/internal/money"
	"saveit/internal/services"
	"saveit/internal/week"
)

// Usage lists the commands.
const Usage = `usage: saveit <command> [args]

  status                          show the current week
  history                         list past weeks, newest first
  new <weekly-budget>             start a new week
  budget <amount>                 change this week's budget
  spend [-category C] [-recurring] <amount> <note...>
  unspend <expense-id>
  income <amount> <type> [note...]
  unincome <income-id>
  toggle [YYYY-MM-DD]             mark or unmark a day as logged (default today)
  rollover                        close the week if it has ended
  recurring-add <income|expense> <category> <amount> [frequency]
  recurring-rm <item-id>
  sync                            pull from the remote store
  signin <user-id> <email>
  signout`

// SignInFunc stores a session for the user.
type SignInFunc func(ctx context.Context, userID, email string) error

// App runs one command against an engine.
type App struct {
	Engine   *services.Engine
	SignIn   SignInFunc // nil when no session provider is configured
	Location *time.Location
	Now      func() time.Time
	Out      io.Writer
}

// Run executes args[0] with the remaining arguments.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New(Usage)
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "status":
		if _, err := a.Engine.Periods.CheckAndRollover(ctx); err != nil {
			a.warn(err)
		}
		return a.printJSON(a.summary())

	case "history":
		return a.printJSON(a.Engine.Workspace().Snapshot().History)

	case "new":
		amount, err := amountArg(rest, 0)
		if err != nil {
			return err
		}
		p, err := a.Engine.Periods.CreateNewPeriod(ctx, amount)
		if p != nil {
			a.printf("Started week %s with budget $%s\n", week.DayKey(p.StartDate), money.Format(p.BudgetCents))
		}
		return err

	case "budget":
		amount, err := amountArg(rest, 0)
		if err != nil {
			return err
		}
		if err := a.Engine.Periods.UpdateBudget(ctx, amount); err != nil {
			return err
		}
		a.printf("Budget set to $%s\n", amount.StringFixed(2))
		return nil

	case "spend":
		return a.spend(ctx, rest)

	case "unspend":
		if len(rest) < 1 {
			return errors.New("usage: saveit unspend <expense-id>")
		}
		return a.Engine.Ledger.RemoveExpense(ctx, rest[0])

	case "income":
		amount, err := amountArg(rest, 0)
		if err != nil {
			return err
		}
		if len(rest) < 2 {
			return errors.New("usage: saveit income <amount> <type> [note...]")
		}
		in, err := a.Engine.Ledger.AddIncome(ctx, services.IncomeInput{
			Amount:     amount,
			IncomeType: rest[1],
			Note:       strings.Join(rest[2:], " "),
		})
		if in != nil {
			a.printf("Logged income %s ($%s)\n", in.ID, money.Format(in.AmountCents))
		}
		return err

	case "unincome":
		if len(rest) < 1 {
			return errors.New("usage: saveit unincome <income-id>")
		}
		return a.Engine.Ledger.RemoveIncome(ctx, rest[0])

	case "toggle":
		day := week.DayKey(a.now())
		if len(rest) > 0 {
			day = rest[0]
		}
		return a.Engine.Periods.ToggleDay(ctx, day)

	case "rollover":
		rolled, err := a.Engine.Periods.CheckAndRollover(ctx)
		if rolled {
			a.printf("Week closed, new week started\n")
		} else if err == nil {
			a.printf("Week still in progress\n")
		}
		return err

	case "recurring-add":
		return a.addRecurring(ctx, rest)

	case "recurring-rm":
		if len(rest) < 1 {
			return errors.New("usage: saveit recurring-rm <item-id>")
		}
		return a.Engine.Recurring.DeleteRecurringItem(ctx, rest[0])

	case "sync":
		if err := a.Engine.Sync.Sync(ctx); err != nil {
			return err
		}
		st := a.Engine.Workspace().Status()
		if st.SyncError != "" {
			return errors.New(st.SyncError)
		}
		a.printf("Synced\n")
		return nil

	case "signin":
		if len(rest) < 2 {
			return errors.New("usage: saveit signin <user-id> <email>")
		}
		if a.SignIn == nil {
			return apperrors.WithMessage(apperrors.ErrSessionInvalid, "No session provider configured")
		}
		if err := a.SignIn(ctx, rest[0], rest[1]); err != nil {
			return err
		}
		return a.Engine.Sync.Bootstrap(ctx)

	case "signout":
		return a.Engine.Sync.SignOut(ctx)

	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, Usage)
	}
}

func (a *App) spend(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("spend", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	category := fs.String("category", "", "recurring category the expense belongs to")
	recurring := fs.Bool("recurring", false, "mark as a recurring expense")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	amount, err := amountArg(rest, 0)
	if err != nil {
		return err
	}
	in := services.ExpenseInput{
		Amount:      amount,
		Note:        strings.Join(rest[1:], " "),
		IsRecurring: *recurring,
	}
	if *category != "" {
		in.Category = category
	}

	e, err := a.Engine.Ledger.AddExpense(ctx, in)
	if e != nil {
		s := a.summary()
		a.printf("Logged %s ($%s). $%s left this week\n", e.ID, money.Format(e.AmountCents), money.Format(s.RemainingCents))
	}
	return err
}

func (a *App) addRecurring(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return errors.New("usage: saveit recurring-add <income|expense> <category> <amount> [frequency]")
	}
	amount, err := amountArg(args, 2)
	if err != nil {
		return err
	}
	item := models.RecurringItem{
		ItemType:     models.RecurringItemType(args[0]),
		CategoryName: args[1],
		AmountCents:  money.ToCents(amount),
		IsActive:     true,
	}
	if len(args) > 3 {
		item.Frequency = args[3]
	}
	saved, err := a.Engine.Recurring.SaveRecurringItem(ctx, item)
	if saved != nil {
		a.printf("Saved %s %s ($%s)\n", saved.ItemType, saved.CategoryName, money.Format(saved.AmountCents))
	}
	return err
}

func (a *App) summary() metrics.Summary {
	b := a.Engine.Workspace().Snapshot()
	return metrics.Summarize(metrics.Snapshot{
		CurrentPeriod:   b.CurrentPeriod,
		History:         b.History,
		LastBudgetCents: b.LastBudgetCents,
		LongestStreak:   b.LongestStreak,
		RecurringItems:  b.RecurringItems,
	}, a.now())
}

func (a *App) now() time.Time {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	loc := a.Location
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc)
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.Out, format, args...)
}

// warn reports a failure that should not stop the command.
func (a *App) warn(err error) {
	a.printf("warning: %v\n", err)
}

func amountArg(args []string, i int) (decimal.Decimal, error) {
	if len(args) <= i {
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrValidation, "Amount is required")
	}
	d, err := money.Parse(args[i])
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.WithMessage(apperrors.ErrValidation, "Amount must be a number"), err)
	}
	return d, nil
}
