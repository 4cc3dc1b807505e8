package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rollcall/internal/auth"
	"rollcall/internal/calendar"
	"rollcall/internal/config"
	"rollcall/internal/httpapi"
	"rollcall/internal/logging"
	"rollcall/internal/roster"
	"rollcall/internal/store"
)

type commandLine struct {
	cfg   config.App
	log   *zap.Logger
	db    *store.DB
	svc   *httpapi.Services
	clock calendar.Clock
	out   io.Writer
}

// setup loads config and the logger unless a test already provided them.
func (cli *commandLine) setup() error {
	if cli.log != nil {
		return nil
	}
	cli.cfg = config.Load()
	log, err := logging.New(cli.cfg.Env)
	if err != nil {
		return err
	}
	cli.log = log
	for _, w := range cli.cfg.Warnings {
		cli.log.Warn("config", zap.String("warning", w))
	}
	return nil
}

// services opens the database on first use.
func (cli *commandLine) services(ctx context.Context) (*httpapi.Services, error) {
	if cli.svc != nil {
		return cli.svc, nil
	}
	if cli.db == nil {
		db, err := store.NewDB(ctx, cli.cfg.DBDriver, store.DSN(cli.cfg.DBDriver, cli.cfg.DatabaseURL))
		if err != nil {
			return nil, errors.Wrap(err, "database")
		}
		cli.db = db
	}
	if cli.clock == nil {
		cli.clock = calendar.SystemClock{}
	}
	svc := httpapi.NewServices(cli.db, nil, cli.cfg.Location, cli.clock, cli.log)
	cli.svc = &svc
	return cli.svc, nil
}

func (cli *commandLine) close() {
	if cli.log != nil {
		_ = cli.log.Sync()
	}
	if cli.db != nil {
		_ = cli.db.Close()
		cli.db = nil
	}
}

func newRootCmd(cli *commandLine) *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "rollcall administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.setup()
		},
	}
	root.SetOut(cli.out)
	root.AddCommand(
		newMigrateCmd(cli),
		newImportCmd(cli),
		newStudentsCmd(cli),
		newTokenCmd(cli),
	)
	return root
}

func newMigrateCmd(cli *commandLine) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a goose migration command (up, down, status, version, redo, reset, up-to N, down-to N)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := cli.services(ctx); err != nil {
				return err
			}
			if err := store.RunMigration(ctx, cli.db, args[0], args[1:]...); err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "migrate %s: done\n", args[0])
			return nil
		},
	}
}

func newImportCmd(cli *commandLine) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import students from a .csv, .xlsx or .xls roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := cli.services(cmd.Context())
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "open roster")
			}
			defer f.Close()

			created, err := svc.Importer.Import(cmd.Context(), filepath.Base(args[0]), f)
			fmt.Fprintf(cli.out, "created %d students\n", created)
			return err
		},
	}
}

func newStudentsCmd(cli *commandLine) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "students",
		Short: "List, add or delete students",
	}

	var filter roster.Filter
	list := &cobra.Command{
		Use:   "list",
		Short: "List students in roll number order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := cli.services(cmd.Context())
			if err != nil {
				return err
			}
			students, err := svc.Students.Search(cmd.Context(), filter)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ROLL\tNAME\tCOURSE\tID")
			for _, st := range students {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", st.RollNumber, st.Name, st.CourseName, st.ID)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&filter.Search, "search", "", "substring of name, roll number or course")
	list.Flags().StringVar(&filter.Course, "course", "", "exact course name")

	var ns roster.NewStudent
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a single student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := cli.services(cmd.Context())
			if err != nil {
				return err
			}
			st, err := svc.Students.Create(cmd.Context(), ns, svc.Clock.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "created %s (%s)\n", st, st.ID)
			return nil
		},
	}
	add.Flags().StringVar(&ns.Name, "name", "", "student name")
	add.Flags().StringVar(&ns.RollNumber, "roll", "", "roll number")
	add.Flags().StringVar(&ns.CourseName, "course", "", "course name")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a student and their absences",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := cli.services(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.Students.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "deleted %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, add, del)
	return cmd
}

func newTokenCmd(cli *commandLine) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the admin api routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl <= 0 {
				ttl = cli.cfg.TokenTTL
			}
			tok, err := auth.Issue(subject, role, cli.cfg.JWTIssuer, cli.cfg.JWTSigningKey, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cli.out, tok.AccessToken)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "who the token is for")
	cmd.Flags().StringVar(&role, "role", auth.RoleAdmin, "admin or operator")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "validity, defaults to TOKEN_TTL")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
