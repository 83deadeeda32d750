package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/iwvelando/relocation-forecast/internal/catalog"
	"github.com/iwvelando/relocation-forecast/internal/config"
	"github.com/iwvelando/relocation-forecast/internal/projector"
	"github.com/iwvelando/relocation-forecast/internal/report"
	"github.com/iwvelando/relocation-forecast/internal/server"
	"github.com/iwvelando/relocation-forecast/internal/vtc"
	"github.com/iwvelando/relocation-forecast/pkg/constants"
	"github.com/iwvelando/relocation-forecast/pkg/output"
	"github.com/iwvelando/relocation-forecast/pkg/validation"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	configLocation   string
	outputFormatFlag string
	logLevel         string

	// Set by the root command before any subcommand runs.
	conf         *config.Configuration
	logger       *zap.Logger
	outputFormat string

	profileName      string
	transactionsFile string
	alreadySpent     float64
	currency         string

	country      string
	city         string
	salary       float64
	expenses     float64
	fund         float64
	months       int
	targetMonths int
	topN         int
	draws        int
	seed         uint64

	serverConfigLocation string
	envFile              string

	rootCmd = &cobra.Command{
		Use:   "relocation-forecast",
		Short: "Spending guardrails and savings projections for an international move",
		Long: `relocation-forecast screens first-month spending against a rule profile
and ranks the lever combinations that best reach a visa fund target.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	classifyCmd = &cobra.Command{
		Use:   "classify",
		Short: "Classify transactions against a rule profile",
		Args:  cobra.NoArgs,
		RunE:  runClassify,
	}

	projectCmd = &cobra.Command{
		Use:   "project",
		Short: "Rank lever combinations by visa fund outcome",
		Args:  cobra.NoArgs,
		RunE:  runProject,
	}

	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Build a combined relocation report for a destination",
		Args:  cobra.NoArgs,
		RunE:  runReport,
	}

	profilesCmd = &cobra.Command{
		Use:   "profiles",
		Short: "List the configured rule profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := conf.RuleProfiles()
			if err != nil {
				return err
			}
			return output.Render(cmd.OutOrStdout(), outputFormat, profiles.All())
		},
	}

	countriesCmd = &cobra.Command{
		Use:   "countries",
		Short: "Compare the monthly cost of living across catalog countries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Default()
			if err != nil {
				return err
			}
			rows, err := cat.CompareCountries(cat.Countries())
			if err != nil {
				return err
			}
			return output.Render(cmd.OutOrStdout(), outputFormat, rows)
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configLocation, "config", constants.DefaultConfigFile, "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&outputFormatFlag, "output-format", "", "type of output override: pretty, csv, json, yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	for _, c := range []*cobra.Command{classifyCmd, reportCmd} {
		c.Flags().StringVar(&profileName, "profile", "", "rule profile (defaults to report.profile)")
		c.Flags().StringVar(&transactionsFile, "file", "", "JSON or YAML transaction list (defaults to a sample month)")
		c.Flags().Float64Var(&alreadySpent, "already-spent", 0, "amount already spent today")
	}

	for _, c := range []*cobra.Command{projectCmd, reportCmd} {
		c.Flags().StringVar(&country, "country", "", "destination country (defaults to report.country)")
		c.Flags().StringVar(&city, "city", "", "destination city (defaults to the country's first city)")
		c.Flags().Float64Var(&salary, "salary", 0, "monthly net salary (defaults to the city's average tech salary)")
		c.Flags().Float64Var(&expenses, "expenses", 0, "monthly expenses (defaults to the city's estimated total)")
		c.Flags().Float64Var(&fund, "fund", 0, "required visa fund (defaults to the city's fund proof)")
		c.Flags().IntVar(&months, "months", 0, "projection horizon in months")
		c.Flags().IntVar(&targetMonths, "target-months", 0, "months by which the visa fund must be met")
		c.Flags().IntVar(&topN, "top", 0, "number of ranked paths to return")
	}
	classifyCmd.Flags().StringVar(&currency, "currency", "", "ISO currency code for amounts in recommendations (default EUR)")
	projectCmd.Flags().IntVar(&draws, "draws", 0, "sample this many random combinations instead of enumerating")
	projectCmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for --draws")

	serveCmd.Flags().StringVar(&serverConfigLocation, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	serveCmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the configuration")

	rootCmd.AddCommand(classifyCmd, projectCmd, reportCmd, profilesCmd, countriesCmd, serveCmd)
}

// setup loads the configuration and logger shared by every subcommand.
func setup(cmd *cobra.Command, args []string) error {
	if cmd == serveCmd {
		if err := loadEnvFile(envFile); err != nil {
			return err
		}
	}

	var err error
	conf, err = loadConfiguration(configLocation, cmd.Flags().Changed("config"))
	if err != nil {
		return fmt.Errorf("failed to load configuration at %s: %w", configLocation, err)
	}

	logger, err = initializeLogger(conf.Logging, logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	outputFormat = conf.Output.Format
	if outputFormatFlag != "" {
		outputFormat = outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	return validation.ValidateOutputFormat(outputFormat)
}

// loadConfiguration reads path. A missing default file falls back to the
// built-in defaults; a missing explicit file is an error.
func loadConfiguration(path string, explicit bool) (*config.Configuration, error) {
	if !explicit {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.LoadConfiguration("")
		}
	}
	return config.LoadConfiguration(path)
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

type transactionDocument struct {
	Transactions []vtc.Transaction `yaml:"transactions"`
}

// readTransactions decodes either a bare transaction list or a document with
// a transactions key. JSON input is accepted as YAML.
func readTransactions(r io.Reader) ([]vtc.Transaction, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse transactions: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var list []vtc.Transaction
		if err := root.Decode(&list); err != nil {
			return nil, fmt.Errorf("failed to decode transactions: %w", err)
		}
		return list, nil
	}

	var doc transactionDocument
	if err := root.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}
	return doc.Transactions, nil
}

func loadTransactions(path string) ([]vtc.Transaction, error) {
	if path == "" {
		return vtc.SampleTransactions(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readTransactions(f)
}

func selectedProfile() string {
	if profileName != "" {
		return profileName
	}
	return conf.Report.Profile
}

// destination resolves the country and city flags against the configured
// report defaults.
func destination() (string, string) {
	if country != "" {
		return country, city
	}
	if city != "" {
		return conf.Report.Country, city
	}
	return conf.Report.Country, conf.Report.City
}

func projectionDefaults(cmd *cobra.Command) (int, int, int) {
	m, t, n := conf.Projection.Months, conf.Projection.TargetFundMonths, conf.Projection.TopN
	if cmd.Flags().Changed("months") {
		m = months
	}
	if cmd.Flags().Changed("target-months") {
		t = targetMonths
	}
	if cmd.Flags().Changed("top") {
		n = topN
	}
	return m, t, n
}

func runClassify(cmd *cobra.Command, args []string) error {
	const op = "main.classify"

	profiles, err := conf.RuleProfiles()
	if err != nil {
		return err
	}
	profile, err := profiles.Lookup(selectedProfile())
	if err != nil {
		return err
	}
	transactions, err := loadTransactions(transactionsFile)
	if err != nil {
		return err
	}

	results, err := vtc.ClassifyFrom(transactions, profile, alreadySpent)
	if err != nil {
		return err
	}
	logger.Debug("classified transactions",
		zap.String("op", op),
		zap.String("profile", profile.Name),
		zap.Int("count", len(results)),
	)

	return output.Render(cmd.OutOrStdout(), outputFormat, output.Classification{
		Profile:         profile,
		Results:         results,
		Summary:         vtc.Summarize(results),
		Recommendations: vtc.Recommendations(results, profile, currency),
	})
}

// projectionRequest fills unset monetary inputs from the catalog entry for
// the destination.
func projectionRequest(cmd *cobra.Command) (projector.Request, error) {
	m, t, n := projectionDefaults(cmd)
	req := projector.Request{
		BaseSalary:         salary,
		BaseExpenses:       expenses,
		Levers:             conf.Levers,
		Months:             m,
		RequiredFundAmount: fund,
		TargetFundMonths:   t,
		TopN:               n,
	}

	cat, err := catalog.Default()
	if err != nil {
		return req, err
	}
	countryName, cityName := destination()
	cost, err := cat.CostOfLiving(countryName, cityName)
	if err != nil {
		return req, err
	}
	req.Currency = cost.Currency

	if !cmd.Flags().Changed("salary") {
		req.BaseSalary = cost.AvgSalaryTech
	}
	if !cmd.Flags().Changed("expenses") {
		monthly, err := cat.MonthlyExpenses(countryName, cityName)
		if err != nil {
			return req, err
		}
		req.BaseExpenses = monthly.Total
	}
	if !cmd.Flags().Changed("fund") {
		req.RequiredFundAmount = cost.VisaFundProof
	}
	return req, nil
}

func runProject(cmd *cobra.Command, args []string) error {
	const op = "main.project"

	req, err := projectionRequest(cmd)
	if err != nil {
		return err
	}

	n, s := conf.Projection.SampleDraws, conf.Projection.Seed
	if cmd.Flags().Changed("draws") {
		n = draws
	}
	if cmd.Flags().Changed("seed") {
		s = seed
	}

	if n > 0 {
		result, err := projector.Sample(cmd.Context(), req, n, s)
		if err != nil {
			return err
		}
		logger.Debug("sampled projection",
			zap.String("op", op),
			zap.Int("draws", n),
			zap.Uint64("seed", s),
		)
		return output.Render(cmd.OutOrStdout(), outputFormat, result)
	}

	result, err := projector.Project(cmd.Context(), req)
	if err != nil {
		return err
	}
	logger.Debug("projected scenarios",
		zap.String("op", op),
		zap.Int("scenarios", result.Statistics.TotalScenarios),
	)
	return output.Render(cmd.OutOrStdout(), outputFormat, result)
}

func runReport(cmd *cobra.Command, args []string) error {
	profiles, err := conf.RuleProfiles()
	if err != nil {
		return err
	}
	cat, err := catalog.Default()
	if err != nil {
		return err
	}
	builder, err := report.NewBuilder(logger, profiles, cat)
	if err != nil {
		return err
	}
	transactions, err := loadTransactions(transactionsFile)
	if err != nil {
		return err
	}

	countryName, cityName := destination()
	m, t, n := projectionDefaults(cmd)
	rep, err := builder.Build(cmd.Context(), report.Request{
		Country:            countryName,
		City:               cityName,
		Profile:            selectedProfile(),
		Transactions:       transactions,
		AlreadySpent:       alreadySpent,
		Salary:             salary,
		Expenses:           expenses,
		RequiredFundAmount: fund,
		Levers:             conf.Levers,
		Months:             m,
		TargetFundMonths:   t,
		TopN:               n,
	})
	if err != nil {
		return err
	}
	return output.Render(cmd.OutOrStdout(), outputFormat, rep)
}

func runServe(cmd *cobra.Command, args []string) error {
	const op = "main.serve"

	serverConfig, err := server.LoadConfig(serverConfigLocation)
	if err != nil {
		return err
	}

	// Server logging settings, when present, replace the CLI logger.
	if serverConfig.Logging != (config.LoggingConfig{}) {
		serverLogger, err := initializeLogger(serverConfig.Logging, logLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize server logger: %w", err)
		}
		_ = logger.Sync()
		logger = serverLogger
	}

	h, err := server.NewHandler(logger, conf, serverConfig.UploadSizeBytes(), version)
	if err != nil {
		return err
	}

	logger.Info("starting API server",
		zap.String("op", op),
		zap.String("version", version),
	)
	return server.Serve(cmd.Context(), logger, serverConfig, h)
}
