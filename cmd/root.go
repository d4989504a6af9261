package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yuanmingwang/Profit-Maximizing-Simulation-of-Tim-Hortons-Using-a-Queueing-Network-Model/internal/experiments"
	"github.com/yuanmingwang/Profit-Maximizing-Simulation-of-Tim-Hortons-Using-a-Queueing-Network-Model/internal/models"
	"github.com/yuanmingwang/Profit-Maximizing-Simulation-of-Tim-Hortons-Using-a-Queueing-Network-Model/internal/output"
	"github.com/yuanmingwang/Profit-Maximizing-Simulation-of-Tim-Hortons-Using-a-Queueing-Network-Model/internal/simulator"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "timsim",
	Short: "Simulates one operating day of a quick-service coffee outlet",
	Long: `timsim is a discrete-event simulator of a quick-service coffee outlet
serving walk-in, drive-thru and mobile customers. It estimates daily profit
and service quality under configurable demand, staffing, pricing and
operating policies, and compares or optimizes those policies under common
random numbers.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, log := mustSetup()
		seed, _ := cmd.Flags().GetInt64("seed")
		if seed != 0 {
			cfg.Sim.BaseSeed = seed
		}

		day, err := simulator.RunDay(cfg, cfg.Sim.BaseSeed, log)
		if err != nil {
			log.Fatal().Err(err).Msg("simulation failed")
		}

		sink, err := output.NewSink(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create output sink")
		}
		defer sink.Close()

		if err := writeSingleDay(sink, day); err != nil {
			log.Fatal().Err(err).Msg("failed to write results")
		}

		log.Info().
			Int64("seed", day.Seed).
			Float64("profit", day.Profit).
			Float64("revenue", day.Revenue).
			Msg("day simulated")
	},
}

var experimentsCmd = &cobra.Command{
	Use:   "experiments [scenario...]",
	Short: "Run replicated scenario comparisons with confidence intervals",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, log := mustSetup()

		scenarios := experiments.DefaultScenarios()
		if len(args) > 0 {
			scenarios = scenarios[:0]
			for _, name := range args {
				sc, err := experiments.ScenarioByName(name)
				if err != nil {
					log.Fatal().Err(err).Msg("unknown scenario")
				}
				scenarios = append(scenarios, sc)
			}
		}

		sink, err := output.NewSink(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create output sink")
		}
		defer sink.Close()

		runner := experiments.NewRunner(cfg, log, sink)
		runner.ShowProgress = !verbose

		start := time.Now()
		results, err := runner.RunAll(scenarios)
		if err != nil {
			log.Fatal().Err(err).Msg("experiments failed")
		}

		for _, res := range results {
			fmt.Printf("%-24s profit %.2f  [%.2f, %.2f]  (n=%d)\n",
				res.Scenario, res.MeanProfit, res.ProfitCILow, res.ProfitCIHigh, res.Replications)
		}
		log.Info().Dur("elapsed", time.Since(start)).Int("scenarios", len(results)).Msg("experiments completed")
	},
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Search staffing and policy levels for maximum mean profit",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, log := mustSetup()

		opt := experiments.NewOptimizer(cfg, experiments.DefaultDimensions(cfg), log)
		res, err := opt.Run()
		if err != nil {
			log.Fatal().Err(err).Msg("optimization failed")
		}

		fmt.Printf("best mean profit %.2f after %d evaluations (%d passes)\n",
			res.MeanProfit, res.Evaluated, res.Passes)
		for name, level := range res.Best {
			fmt.Printf("  %-20s %v\n", name, level)
		}
	},
}

func init() {
	cobra.OnInitialize()
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is examples/baseline.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.Flags().Int64("seed", 0, "override the base random seed")
	rootCmd.Flags().Bool("kafka-enabled", false, "enable Kafka output")
	rootCmd.Flags().String("kafka-broker-list", "localhost:9092", "Kafka broker list")
	rootCmd.Flags().String("output-path", "", "output directory (if not using Kafka)")
	rootCmd.Flags().String("output-format", "", "output format: console, json, csv, parquet, postgres")

	viper.BindPFlags(rootCmd.Flags())

	rootCmd.AddCommand(experimentsCmd)
	rootCmd.AddCommand(optimizeCmd)
}

func mustSetup() (*models.Config, zerolog.Logger) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	cfg, err := models.LoadConfig(cfgFile)
	if err != nil {
		log.Fatal().Err(err).Msg("error loading config")
	}
	if path := viper.GetString("output-path"); path != "" {
		cfg.Output.Path = path
	}
	if format := viper.GetString("output-format"); format != "" {
		cfg.Output.Format = format
	}
	if viper.GetBool("kafka-enabled") {
		cfg.Output.KafkaEnabled = true
		cfg.Output.KafkaBrokerList = viper.GetString("kafka-broker-list")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	return cfg, log
}

func writeSingleDay(sink output.Sink, day *models.DayMetrics) error {
	rec := output.NewDaySummaryRecord("single_day", day)
	msg, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := sink.WriteMessage(output.TopicDaySummaries, msg); err != nil {
		return err
	}
	for _, bin := range output.NewSeriesBinRecords("single_day", day) {
		msg, err := json.Marshal(bin)
		if err != nil {
			return err
		}
		if err := sink.WriteMessage(output.TopicSeriesBins, msg); err != nil {
			return err
		}
	}
	for _, order := range output.NewOrderEventRecords("single_day", day) {
		msg, err := json.Marshal(order)
		if err != nil {
			return err
		}
		if err := sink.WriteMessage(output.TopicOrderEvents, msg); err != nil {
			return err
		}
	}
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
