// Command timetable runs the balancing engine on a YAML instance without a database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-balancer/internal/models"
	"github.com/noah-isme/timetable-balancer/internal/timetable"
	"github.com/noah-isme/timetable-balancer/pkg/config"
	"github.com/noah-isme/timetable-balancer/pkg/export"
	"github.com/noah-isme/timetable-balancer/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type solveOptions struct {
	instance string
	subjects string
	seed     int64
	policy   string
	order    string
	csvPath  string
	asJSON   bool
	logLevel string
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "timetable",
		Short:         "Balance weekly class meetings over a period",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.AddCommand(newSolveCmd(), newShiftsCmd(), newWeeksCmd())
	return root
}

func newSolveCmd() *cobra.Command {
	opts := &solveOptions{}
	cmd := &cobra.Command{
		Use:   "solve [instance.yaml]",
		Short: "Allocate, balance and expand an instance",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.instance
			if path == "" && len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("an instance file is required (--instance)")
			}
			return runSolve(cmd, path, opts)
		},
	}
	cmd.Flags().StringVar(&opts.instance, "instance", "", "YAML instance file")
	cmd.Flags().StringVar(&opts.subjects, "subjects", "", "CSV file replacing the instance subjects (symbology,meetings,activities,lower,upper)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed; 0 uses BALANCER_SEED or the clock")
	cmd.Flags().StringVar(&opts.policy, "policy", "", "balancer policy: incumbent or walk")
	cmd.Flags().StringVar(&opts.order, "order", "", "expander fill order: shift or day")
	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "write placed meetings to this CSV file")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "log level")
	return cmd
}

func runSolve(cmd *cobra.Command, path string, opts *solveOptions) error {
	log, err := logger.NewCLI(opts.logLevel)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	file, err := loadInstance(path)
	if err != nil {
		return err
	}
	if opts.subjects != "" {
		subjects, err := loadSubjectsCSV(opts.subjects)
		if err != nil {
			return err
		}
		file.Subjects = subjects
	}
	if opts.policy != "" {
		file.Policy = opts.policy
	}
	if opts.order != "" {
		file.FillOrder = opts.order
	}

	balancer := timetable.DefaultBalancerConfig()
	balancer.Iterations = cfg.Balancer.Iterations
	balancer.Candidates = cfg.Balancer.Candidates
	balancer.Samples = cfg.Balancer.Samples
	balancer.TabuSize = cfg.Balancer.TabuSize
	balancer.Workers = cfg.Balancer.Workers
	if cfg.Balancer.Policy != "" && file.Policy == "" {
		file.Policy = cfg.Balancer.Policy
	}

	req, err := file.request(balancer)
	if err != nil {
		return err
	}

	seed := opts.seed
	if seed == 0 {
		seed = cfg.Balancer.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log.Debug("solving instance", zap.String("path", path), zap.Int64("seed", seed))

	result, err := timetable.Run(cmd.Context(), req, rand.New(rand.NewSource(seed)), log)
	if err != nil {
		return err
	}

	if opts.csvPath != "" {
		if err := writeSlotsCSV(opts.csvPath, file, result.Slots); err != nil {
			return err
		}
	}
	if opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(solveSummary(result, seed))
	}
	printSummary(cmd.OutOrStdout(), file, result, seed)
	return nil
}

type summary struct {
	Seed             int64                `json:"seed"`
	Policy           timetable.Policy     `json:"policy"`
	InitialObjective float64              `json:"initialObjective"`
	Objective        float64              `json:"objective"`
	WeekLoads        []int                `json:"weekLoads"`
	Balance          [][]int              `json:"balance"`
	ShiftsPerDay     int                  `json:"shiftsPerDay"`
	ShiftsCover      bool                 `json:"shiftsCover"`
	Placed           int                  `json:"placed"`
	Overflow         []timetable.Overflow `json:"overflow"`
}

func solveSummary(result timetable.Result, seed int64) summary {
	return summary{
		Seed:             seed,
		Policy:           result.Balance.Policy,
		InitialObjective: result.Balance.Initial,
		Objective:        result.Balance.Final,
		WeekLoads:        result.Balance.Loads,
		Balance:          result.BalanceVector,
		ShiftsPerDay:     result.ShiftsPerDay,
		ShiftsCover:      result.ShiftsCover,
		Placed:           len(result.Slots),
		Overflow:         result.Overflow,
	}
}

func printSummary(w io.Writer, file *instanceFile, result timetable.Result, seed int64) {
	fmt.Fprintf(w, "seed %d, policy %s\n", seed, result.Balance.Policy)
	fmt.Fprintf(w, "objective %.3f -> %.3f\n", result.Balance.Initial, result.Balance.Final)
	fmt.Fprintf(w, "shifts per day %d (covers demand: %t)\n", result.ShiftsPerDay, result.ShiftsCover)

	header := make([]string, 0, len(file.Subjects))
	for _, s := range file.Subjects {
		header = append(header, fmt.Sprintf("%4s", s.Symbology))
	}
	fmt.Fprintf(w, "week  %s  load\n", strings.Join(header, " "))
	for j, row := range result.BalanceVector {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprintf("%4d", v)
		}
		load := 0
		if j < len(result.Balance.Loads) {
			load = result.Balance.Loads[j]
		}
		fmt.Fprintf(w, "%4d  %s  %4d\n", j+1, strings.Join(cells, " "), load)
	}
	fmt.Fprintf(w, "placed %d meetings\n", len(result.Slots))
	for _, o := range result.Overflow {
		fmt.Fprintf(w, "overflow week %d %s x%d (%s)\n", o.Week, file.symbology(o.Subject), o.Count, o.Reason)
	}
}

func writeSlotsCSV(path string, file *instanceFile, slots []timetable.Slot) error {
	rows := make([]export.SlotRow, 0, len(slots))
	for _, s := range slots {
		rows = append(rows, export.SlotRow{
			Week:       s.Week,
			Date:       s.Date.Format(dateLayout),
			Weekday:    s.Date.Weekday().String(),
			Shift:      s.Number,
			Subject:    file.symbology(s.Subject),
			Symbology:  file.symbology(s.Subject),
			Activities: strings.Join(s.Activities, ","),
		})
	}
	data, err := export.NewCSVExporter().Render(rows)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func newShiftsCmd() *cobra.Command {
	var meetings, weeks, blackoutDays int
	cmd := &cobra.Command{
		Use:   "shifts",
		Short: "Smallest daily shift count that holds every meeting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if meetings < 0 || weeks <= 0 || blackoutDays < 0 {
				return fmt.Errorf("meetings and blackout days must be non-negative and weeks positive")
			}
			shifts, covered := timetable.ShiftsPerDay(meetings, weeks, blackoutDays)
			fmt.Fprintf(cmd.OutOrStdout(), "%d shifts per day (covers demand: %t)\n", shifts, covered)
			return nil
		},
	}
	cmd.Flags().IntVar(&meetings, "meetings", 0, "total meetings over the period")
	cmd.Flags().IntVar(&weeks, "weeks", 0, "teaching weeks")
	cmd.Flags().IntVar(&blackoutDays, "blackout-days", 0, "closed weekdays over the period")
	return cmd
}

func newWeeksCmd() *cobra.Command {
	var start, end string
	var blackoutWeeks []string
	cmd := &cobra.Command{
		Use:   "weeks",
		Short: "Print the week arithmetic of a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := time.Parse(dateLayout, start)
			if err != nil {
				return fmt.Errorf("invalid --start %q: %w", start, err)
			}
			to, err := time.Parse(dateLayout, end)
			if err != nil {
				return fmt.Errorf("invalid --end %q: %w", end, err)
			}
			period := models.Period{StartDate: from, EndDate: to}
			if err := period.Validate(); err != nil {
				return err
			}

			var closed []models.WeekNotAvailable
			for _, raw := range blackoutWeeks {
				bounds := strings.SplitN(raw, ":", 2)
				if len(bounds) != 2 {
					return fmt.Errorf("blackout week %q must be start:end", raw)
				}
				r, err := parseRange(bounds[0], bounds[1])
				if err != nil {
					return err
				}
				closed = append(closed, models.WeekNotAvailable{StartDate: r.Start, EndDate: r.End})
			}

			usable := period.NumberOfWeeksExcludingUnavailable(closed)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "period %s..%s\n", period.Start().Format(dateLayout), period.End().Format(dateLayout))
			fmt.Fprintf(w, "weeks %d, usable %d\n", period.NumberOfWeeks(), usable)
			cal := period.Calendar(nil, closed)
			for i, ws := range cal.WeekStarts(usable) {
				fmt.Fprintf(w, "week %d: %s\n", i+1, ws.Format(dateLayout))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "period start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "period end date (YYYY-MM-DD)")
	cmd.Flags().StringArrayVar(&blackoutWeeks, "blackout-week", nil, "closed range start:end, repeatable")
	return cmd
}
