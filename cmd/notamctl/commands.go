package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/jszwec/csvutil"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"notamcore/internal/flight"
	"notamcore/internal/notam/identity"
	"notamcore/internal/notam/models"
	"notamcore/internal/notam/priority"
	"notamcore/internal/notam/service"
	"notamcore/internal/notam/store"
	"notamcore/internal/platform/logger"
	"notamcore/internal/platform/sqlite"
)

var logLevel string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "notamctl",
		Short:        "Classify and compare NOTAM sets offline",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")

	rootCmd.AddCommand(evaluateCmd())
	rootCmd.AddCommand(keysCmd())
	rootCmd.AddCommand(diffCmd())
	rootCmd.AddCommand(refreshCmd())
	rootCmd.AddCommand(statusCmd())
	return rootCmd
}

// notamRecord is one entry of a NOTAM JSON file.
type notamRecord struct {
	models.Notam
	DistanceNM *float64 `json:"distance_nm,omitempty"`
}

func loadNotams(path string) ([]notamRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read notams: %w", err)
	}
	var records []notamRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse notams %s: %w", path, err)
	}
	return records, nil
}

func loadFlight(path string) (flight.Context, error) {
	if path == "" {
		return flight.Empty, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return flight.Empty, fmt.Errorf("read flight: %w", err)
	}
	var fc flight.Context
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return flight.Empty, fmt.Errorf("parse flight %s: %w", path, err)
	}
	return fc.Normalized(), nil
}

func notamsOf(records []notamRecord) []models.Notam {
	out := make([]models.Notam, len(records))
	for i, r := range records {
		out[i] = r.Notam
	}
	return out
}

func evaluateCmd() *cobra.Command {
	var (
		flightPath   string
		notamsPath   string
		asJSON       bool
		asCSV        bool
		onlyInWindow bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Classify NOTAMs for a flight and print them grouped by priority",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := loadFlight(flightPath)
			if err != nil {
				return err
			}
			records, err := loadNotams(notamsPath)
			if err != nil {
				return err
			}

			inputs := make([]priority.Input, 0, len(records))
			for _, r := range records {
				if onlyInWindow && !fc.IsRelevantInTime(r.Notam) {
					continue
				}
				inputs = append(inputs, priority.Input{Notam: r.Notam, DistanceNM: r.DistanceNM})
			}

			log := logger.NewWithWriter(cmd.ErrOrStderr(), logLevel, "text")
			svc := service.New(store.NewInMemoryStore(), service.WithLogger(log))
			classified, err := svc.Evaluate(cmd.Context(), fc, inputs)
			if err != nil {
				return err
			}

			switch {
			case asJSON:
				return writeJSON(cmd.OutOrStdout(), classified)
			case asCSV:
				return writeCSV(cmd.OutOrStdout(), classified)
			}
			return printGrouped(cmd.OutOrStdout(), classified)
		},
	}

	cmd.Flags().StringVar(&flightPath, "flight", "", "flight context YAML file")
	cmd.Flags().StringVar(&notamsPath, "notams", "", "NOTAM JSON file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "print CSV instead of a table")
	cmd.MarkFlagsMutuallyExclusive("json", "csv")
	cmd.Flags().BoolVar(&onlyInWindow, "window", false, "drop NOTAMs outside the flight window")
	_ = cmd.MarkFlagRequired("notams")
	return cmd
}

func keysCmd() *cobra.Command {
	var notamsPath string

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Print the identity key of every NOTAM",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := loadNotams(notamsPath)
			if err != nil {
				return err
			}
			for _, r := range records {
				fmt.Fprintln(cmd.OutOrStdout(), identity.Key(r.Notam))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&notamsPath, "notams", "", "NOTAM JSON file")
	_ = cmd.MarkFlagRequired("notams")
	return cmd
}

func diffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff [previous.json] [current.json]",
		Short: "Show which NOTAMs appeared, stayed or disappeared between two fetches",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			previous, err := loadNotams(args[0])
			if err != nil {
				return err
			}
			current, err := loadNotams(args[1])
			if err != nil {
				return err
			}
			d := identity.Diff(identity.IdentityKeys(notamsOf(previous)), notamsOf(current))

			out := cmd.OutOrStdout()
			for _, k := range d.Added {
				fmt.Fprintf(out, "+ %s\n", k)
			}
			for _, k := range d.Removed {
				fmt.Fprintf(out, "- %s\n", k)
			}
			fmt.Fprintf(out, "%d added, %d retained, %d removed\n", len(d.Added), len(d.Retained), len(d.Removed))
			return nil
		},
	}
	return cmd
}

// openStore opens the SQLite cycle database shared by refresh and status.
func openStore(ctx context.Context, path string) (*store.SQLStore, func(), error) {
	db, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	st := store.NewSQLiteStore(db)
	if err := st.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return st, func() { _ = db.Close() }, nil
}

func refreshCmd() *cobra.Command {
	var (
		dbPath       string
		scope        string
		flightPath   string
		notamsPath   string
		asJSON       bool
		onlyInWindow bool
	)

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run a fetch cycle against a local database, flagging new NOTAMs and carrying statuses",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fc, err := loadFlight(flightPath)
			if err != nil {
				return err
			}
			records, err := loadNotams(notamsPath)
			if err != nil {
				return err
			}
			st, closeStore, err := openStore(ctx, dbPath)
			if err != nil {
				return err
			}
			defer closeStore()

			inputs := make([]priority.Input, len(records))
			for i, r := range records {
				inputs[i] = priority.Input{Notam: r.Notam, DistanceNM: r.DistanceNM}
			}
			log := logger.NewWithWriter(cmd.ErrOrStderr(), logLevel, "text")
			svc := service.New(st, service.WithLogger(log))
			result, err := svc.Refresh(ctx, service.RefreshRequest{
				Scope:                scope,
				Flight:               fc,
				Notams:               inputs,
				FilterToFlightWindow: onlyInWindow,
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			if err := printGrouped(cmd.OutOrStdout(), result.Notams); err != nil {
				return err
			}
			d := result.Diff
			fmt.Fprintf(cmd.OutOrStdout(), "%d new, %d retained, %d removed\n", len(d.Added), len(d.Retained), len(d.Removed))
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "notams.db", "SQLite database holding cycle state")
	cmd.Flags().StringVar(&scope, "scope", "default", "cycle scope, e.g. a crew or flight plan id")
	cmd.Flags().StringVar(&flightPath, "flight", "", "flight context YAML file")
	cmd.Flags().StringVar(&notamsPath, "notams", "", "NOTAM JSON file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	cmd.Flags().BoolVar(&onlyInWindow, "window", false, "drop NOTAMs outside the flight window")
	_ = cmd.MarkFlagRequired("notams")
	return cmd
}

func statusCmd() *cobra.Command {
	var (
		dbPath string
		scope  string
	)

	cmd := &cobra.Command{
		Use:   "status [identity-key] [unread|read|important]",
		Short: "Record a user status against a NOTAM identity key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, closeStore, err := openStore(ctx, dbPath)
			if err != nil {
				return err
			}
			defer closeStore()

			log := logger.NewWithWriter(cmd.ErrOrStderr(), logLevel, "text")
			return service.New(st, service.WithLogger(log)).SetStatus(ctx, scope, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "notams.db", "SQLite database holding cycle state")
	cmd.Flags().StringVar(&scope, "scope", "default", "cycle scope")
	return cmd
}

func printGrouped(w io.Writer, classified []service.ClassifiedNotam) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	levels := []models.Priority{models.PriorityHigh, models.PriorityNormal, models.PriorityLow}
	for _, p := range levels {
		group := slices.DeleteFunc(slices.Clone(classified), func(c service.ClassifiedNotam) bool {
			return c.Priority != p
		})
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(tw, "%s (%d)\n", strings.ToUpper(p.String()), len(group))
		for _, c := range group {
			mark := " "
			if c.IsNew {
				mark = "*"
			}
			fmt.Fprintf(tw, " %s %s\t%s\t%s\t%s\t%s\t%s\n", mark, c.Notam.ID, c.Notam.Location, c.Notam.QCode, c.Rule, c.Status, firstLine(c.Notam.Message))
		}
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type csvRow struct {
	Priority    string   `csv:"priority"`
	Rule        string   `csv:"rule"`
	ID          string   `csv:"id"`
	Location    string   `csv:"location"`
	QCode       string   `csv:"q_code"`
	DistanceNM  *float64 `csv:"distance_nm,omitempty"`
	IdentityKey string   `csv:"identity_key"`
	Message     string   `csv:"message"`
}

func writeCSV(w io.Writer, classified []service.ClassifiedNotam) error {
	rows := make([]csvRow, len(classified))
	for i, c := range classified {
		rows[i] = csvRow{
			Priority:    c.Priority.String(),
			Rule:        c.Rule,
			ID:          c.Notam.ID,
			Location:    c.Notam.Location,
			QCode:       c.Notam.QCode,
			DistanceNM:  c.DistanceNM,
			IdentityKey: c.IdentityKey,
			Message:     firstLine(c.Notam.Message),
		}
	}
	b, err := csvutil.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	_, err = w.Write(b)
	return err
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
