package main

import (
	"fmt"
	"math/rand"
	"os"

	set3 "github.com/TomTonic/Set3"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	talloc "github.com/TomTonic/tree-alloc"
)

var (
	flagMinBlocks  uint64
	flagIterations int
	flagSeed       int64
	flagLogLevel   = logLevelFlag{value: "info"}
	flagConfig     string
)

// logLevelFlag is a pflag.Value that rejects an unparseable log level at
// flag-parse time instead of at pool-construction time.
type logLevelFlag struct {
	value string
}

var _ pflag.Value = (*logLevelFlag)(nil)

func (f *logLevelFlag) String() string { return f.value }

func (f *logLevelFlag) Set(s string) error {
	if _, err := logrus.ParseLevel(s); err != nil {
		return errors.Wrapf(err, "invalid --log-level %q", s)
	}
	f.value = s
	return nil
}

func (f *logLevelFlag) Type() string { return "level" }

var rootCmd = &cobra.Command{
	Use:   "talloc-bench",
	Short: "Drive a tree-alloc pool through a random mark/clear workload",
	Long: `talloc-bench builds a single pool of the requested size, runs a
closed-loop random workload of Mark/Clear calls against it, and reports the
pool's final occupancy.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the benchmark workload",
	Args:  cobra.NoArgs,
	RunE:  runBenchmark,
}

func init() {
	runCmd.Flags().Uint64Var(&flagMinBlocks, "min-blocks", 1<<16, "minimum number of blocks the pool must hold")
	runCmd.Flags().IntVar(&flagIterations, "iterations", 100000, "number of random mark/clear operations to run")
	runCmd.Flags().Int64Var(&flagSeed, "seed", 1, "seed for the workload's random number generator")
	runCmd.Flags().Var(&flagLogLevel, "log-level", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "talloc-bench.yaml", "optional config file; flags take precedence over its values")

	rootCmd.AddCommand(runCmd)
}

// loadConfig layers an optional talloc-bench.yaml over the command's
// defaults, with explicitly-set flags always winning -- the same
// flags-over-file precedence the example pool's own CLI uses for its
// configuration.
func loadConfig(cmd *cobra.Command) error {
	v := viper.New()
	v.SetConfigFile(flagConfig)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "talloc-bench: reading config %q", flagConfig)
	}

	for flag, key := range map[string]string{
		"min-blocks": "min_blocks",
		"iterations": "iterations",
		"seed":       "seed",
		"log-level":  "log_level",
	} {
		if cmd.Flags().Changed(flag) || !v.IsSet(key) {
			continue
		}
		switch flag {
		case "min-blocks":
			flagMinBlocks = v.GetUint64(key)
		case "iterations":
			flagIterations = v.GetInt(key)
		case "seed":
			flagSeed = v.GetInt64(key)
		case "log-level":
			if err := flagLogLevel.Set(v.GetString(key)); err != nil {
				return errors.Wrapf(err, "talloc-bench: config %q", flagConfig)
			}
		}
	}
	return nil
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd); err != nil {
		return err
	}

	level, err := logrus.ParseLevel(flagLogLevel.String())
	if err != nil {
		return errors.Wrapf(err, "talloc-bench: invalid --log-level %q", flagLogLevel.String())
	}
	log.SetLevel(level)

	pool, err := talloc.NewPool(flagMinBlocks, "talloc-bench", talloc.NewLogrusHook(log))
	if err != nil {
		return errors.Wrap(err, "talloc-bench: NewPool")
	}

	report := runWorkload(pool, flagIterations, flagSeed)
	printReport(pool, report)
	return nil
}

type workloadReport struct {
	marksAttempted int
	marksSucceeded int
	clears         int
	outstanding    int
}

// runWorkload issues iterations random mark/clear operations against
// pool, sizing each mark uniformly over 1..MaxMarkBlocks and clearing a
// previously-marked run about a third of the time. Outstanding addresses
// are mirrored into a Set3 as they're marked and cleared; its Len() is
// checked against the driving slice's length on every step and fed into
// the final report, so the two structures diverging would fail loudly
// instead of the Set3 sitting unread.
func runWorkload(pool *talloc.Pool, iterations int, seed int64) workloadReport {
	rng := rand.New(rand.NewSource(seed))
	var report workloadReport

	type live struct {
		addr uint32
		n    int
	}
	var outstanding []live
	outstandingAddrs := set3.Empty[uint32]()

	for i := 0; i < iterations; i++ {
		if len(outstanding) > 0 && rng.Intn(3) == 0 {
			idx := rng.Intn(len(outstanding))
			a := outstanding[idx]
			pool.Clear(a.addr, a.n)
			outstandingAddrs.Remove(a.addr)
			outstanding[idx] = outstanding[len(outstanding)-1]
			outstanding = outstanding[:len(outstanding)-1]
			report.clears++
		} else {
			n := 1 + rng.Intn(talloc.MaxMarkBlocks)
			report.marksAttempted++
			if ok, addr := pool.Mark(n); ok {
				report.marksSucceeded++
				outstanding = append(outstanding, live{addr, n})
				outstandingAddrs.Add(addr)
			}
		}

		if got, want := outstandingAddrs.Len(), len(outstanding); got != want {
			panic(fmt.Sprintf("talloc-bench: outstanding-set size %d diverged from outstanding slice length %d at step %d", got, want, i))
		}
	}
	report.outstanding = outstandingAddrs.Len()
	return report
}

func printReport(pool *talloc.Pool, report workloadReport) {
	banner := color.New(color.FgGreen, color.Bold)
	if report.marksSucceeded < report.marksAttempted/2 {
		banner = color.New(color.FgRed, color.Bold)
	}
	banner.Printf("talloc-bench: %s\n", pool)

	fmt.Printf("capacity:        %d blocks\n", pool.NumBlocks())
	fmt.Printf("occupied:        %d blocks\n", pool.Occupied())
	fmt.Printf("marks attempted: %d\n", report.marksAttempted)
	fmt.Printf("marks succeeded: %d\n", report.marksSucceeded)
	fmt.Printf("clears issued:   %d\n", report.clears)
	fmt.Printf("outstanding:     %d\n", report.outstanding)
}
