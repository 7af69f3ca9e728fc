package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"syscall"

	"github.com/RIKASH04/Resulyhub/common/logger"
	"github.com/RIKASH04/Resulyhub/common/metrics"
	"github.com/RIKASH04/Resulyhub/internal/app"
	"github.com/RIKASH04/Resulyhub/internal/config"
	"github.com/RIKASH04/Resulyhub/internal/db"
	"github.com/RIKASH04/Resulyhub/internal/grading"
	svcmetrics "github.com/RIKASH04/Resulyhub/internal/metrics"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	out      io.Writer
	logger   *slog.Logger
	db       *bun.DB
	services *app.Services

	// connect opens the database lazily so offline commands need no config.
	connect func(ctx context.Context, cli *commandLine) error
}

func newCommandLine(out io.Writer) *commandLine {
	return &commandLine{
		out:     out,
		connect: connectFromConfig,
	}
}

func connectFromConfig(ctx context.Context, cli *commandLine) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cli.logger = logger.NewWithServiceContext("resultctl", app.Version, cfg.Env)

	policy, err := grading.NewPolicy(cfg.Grading.Policy, cfg.Grading.PassMark, cfg.Grading.MarksMax)
	if err != nil {
		return err
	}

	database, err := db.New(ctx, cfg.Database)
	if err != nil {
		return err
	}
	cli.db = database

	cli.services = app.NewServices(app.Dependencies{
		Config:   cfg,
		DB:       database,
		Policy:   policy,
		Metrics:  metrics.NewMock(),
		Counters: svcmetrics.NewMock(),
		Logger:   cli.logger,
	})
	return nil
}

func (cli *commandLine) close() {
	db.Close(cli.db)
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate                      - apply pending database migrations")
	fmt.Fprintln(cli.out, "  status                       - list pending database migrations")
	fmt.Fprintln(cli.out, "  create-classes -count N      - create Class 1..Class N, skipping existing names")
	fmt.Fprintln(cli.out, "  recompute [-class CLASS_ID]  - rebuild result summaries from marks")
	fmt.Fprintln(cli.out, "  hash-password                - print a bcrypt hash for auth.admin_password_hash")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createClassesCmd := flag.NewFlagSet("create-classes", flag.ContinueOnError)
	createClassesCmd.SetOutput(cli.out)
	createClassesCount := createClassesCmd.Int("count", 0, "Number of classes, 1..50.")

	recomputeCmd := flag.NewFlagSet("recompute", flag.ContinueOnError)
	recomputeCmd.SetOutput(cli.out)
	recomputeClass := recomputeCmd.String("class", "", "Only recompute this class.")

	switch args[1] {
	case "migrate":
		if err := cli.connect(ctx, cli); err != nil {
			return err
		}
		return cli.migrate(ctx)
	case "status":
		if err := cli.connect(ctx, cli); err != nil {
			return err
		}
		return cli.status(ctx)
	case "create-classes":
		if err := createClassesCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *createClassesCount < 1 {
			createClassesCmd.Usage()
			return errHelp
		}
		if err := cli.connect(ctx, cli); err != nil {
			return err
		}
		return cli.createClasses(ctx, *createClassesCount)
	case "recompute":
		if err := recomputeCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		var classID uuid.UUID
		if *recomputeClass != "" {
			id, err := uuid.Parse(*recomputeClass)
			if err != nil {
				return fmt.Errorf("invalid class id %q: %w", *recomputeClass, err)
			}
			classID = id
		}
		if err := cli.connect(ctx, cli); err != nil {
			return err
		}
		return cli.recompute(ctx, classID)
	case "hash-password":
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			cli.printUsage()
			return errHelp
		}
		return cli.hashPassword(pwd)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) migrate(ctx context.Context) error {
	group, err := db.Migrate(ctx, cli.db)
	if err != nil {
		return err
	}
	if group.IsZero() {
		fmt.Fprintln(cli.out, "no new migrations to run (database is up to date)")
		return nil
	}
	fmt.Fprintf(cli.out, "migrated to %s\n", group)
	return nil
}

func (cli *commandLine) status(ctx context.Context) error {
	pending, err := db.Pending(ctx, cli.db)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Fprintln(cli.out, "database is up to date")
		return nil
	}
	fmt.Fprintf(cli.out, "pending migrations: %s\n", pending)
	return nil
}

func (cli *commandLine) createClasses(ctx context.Context, count int) error {
	created, err := cli.services.Classes.CreateClasses(ctx, count)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "created %d classes\n", len(created))
	for _, c := range created {
		fmt.Fprintf(cli.out, "  %s  %s\n", c.ID, c.Name)
	}
	return nil
}

func (cli *commandLine) recompute(ctx context.Context, classID uuid.UUID) error {
	var (
		n   int
		err error
	)
	if classID == uuid.Nil {
		n, err = cli.services.Results.RecomputeAll(ctx)
	} else {
		n, err = cli.services.Results.RecomputeClass(ctx, classID)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "recomputed %d summaries\n", n)
	return nil
}

func (cli *commandLine) hashPassword(pwd []byte) error {
	hash, err := bcrypt.GenerateFromPassword(pwd, bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, string(hash))
	return nil
}
