package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"costscope/internal/checks"
	"costscope/internal/config"
	"costscope/internal/engine"
	"costscope/internal/logging"
	"costscope/internal/models"
	"costscope/internal/output"
	"costscope/internal/providers"
	awsprovider "costscope/internal/providers/aws"
	azureprovider "costscope/internal/providers/azure"
	"costscope/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "costscope",
		Short: "costscope analyzes cloud resources for cost optimization opportunities",
	}
	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newChecksCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// analyzeFlags holds the flags shared by the per-provider analyze commands.
type analyzeFlags struct {
	configPath string
	regions    []string
	checkNames []string
	checkTypes []string
	reportFmt  string
	outputPath string
	summary    bool
	colored    bool
}

func (f *analyzeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "Config file path (default: ~/.config/costscope/config.yaml)")
	cmd.Flags().StringSliceVar(&f.regions, "region", nil, "Region(s) to analyze (default: provider default region)")
	cmd.Flags().StringSliceVar(&f.checkNames, "checks", nil, "Run only the named checks (see 'costscope checks')")
	cmd.Flags().StringSliceVar(&f.checkTypes, "types", nil, "Run only checks of these types (e.g. idle_resource,right_sizing)")
	cmd.Flags().StringVar(&f.reportFmt, "report", "table", "Output format: table, json, or csv")
	cmd.Flags().BoolVar(&f.summary, "summary", false, "Print only the summary block")
	cmd.Flags().BoolVar(&f.colored, "color", false, "Colorize severity labels in table output")
	cmd.Flags().StringVar(&f.outputPath, "output", "", "Write full JSON report to this file path (in addition to stdout output)")
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run cost-optimization checks against a cloud account",
	}
	cmd.AddCommand(newAnalyzeAWSCmd())
	cmd.AddCommand(newAnalyzeAzureCmd())
	return cmd
}

func newAnalyzeAWSCmd() *cobra.Command {
	var flags analyzeFlags
	var profile string

	cmd := &cobra.Command{
		Use:   "aws",
		Short: "Analyze an AWS account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			log := logging.New(cfg.Logging)
			defer log.Sync()

			if profile == "" {
				profile = cfg.AWS.DefaultProfile
			}
			regions := flags.regions
			if len(regions) == 0 {
				regions = []string{cfg.AWS.DefaultRegion}
			}

			account, err := awsprovider.LoadAccount(cmd.Context(), profile, regions[0], nil)
			if err != nil {
				return err
			}
			log.Info("loaded AWS account",
				zap.String("profile", account.ProfileName),
				zap.String("account_id", account.AccountID))

			provider := awsprovider.NewProvider(account, log)
			return runAnalysis(cmd, provider, cfg, log, flags, regions)
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile name (default: uses environment / default profile)")
	flags.register(cmd)
	return cmd
}

func newAnalyzeAzureCmd() *cobra.Command {
	var flags analyzeFlags
	var subscription string

	cmd := &cobra.Command{
		Use:   "azure",
		Short: "Analyze an Azure subscription",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			log := logging.New(cfg.Logging)
			defer log.Sync()

			if subscription == "" {
				subscription = cfg.Azure.SubscriptionID
			}
			if subscription == "" {
				return fmt.Errorf("no Azure subscription: set --subscription or azure.subscription_id in config")
			}
			regions := flags.regions
			if len(regions) == 0 {
				regions = []string{cfg.Azure.DefaultRegion}
			}

			azCfg := azureprovider.Config{
				SubscriptionID: subscription,
				TenantID:       cfg.Azure.TenantID,
				Region:         regions[0],
			}
			cred, err := azCfg.Credential()
			if err != nil {
				return err
			}
			clients, err := azureprovider.NewClientSet(azCfg, cred)
			if err != nil {
				return err
			}

			provider := azureprovider.NewProvider(azCfg, clients, log)
			return runAnalysis(cmd, provider, cfg, log, flags, regions)
		},
	}

	cmd.Flags().StringVar(&subscription, "subscription", "", "Azure subscription ID (default: azure.subscription_id from config)")
	flags.register(cmd)
	return cmd
}

// runAnalysis builds the check registry and engine, runs the analysis, and
// renders the report per flags. It is shared by both provider subcommands.
func runAnalysis(cmd *cobra.Command, provider providers.Provider, cfg *config.Config, log *zap.Logger, flags analyzeFlags, regions []string) error {
	registry, err := checks.BuildRegistry(checks.BuildParams{
		Log:         log,
		Concurrency: cfg.Checks.Concurrency,
		Thresholds:  cfg.Checks.Thresholds,
	})
	if err != nil {
		return err
	}

	types, err := parseCheckTypes(flags.checkTypes)
	if err != nil {
		return err
	}

	eng := engine.NewDefaultEngine(provider, registry, log)
	report, err := eng.Run(cmd.Context(), engine.Options{
		Regions:    regions,
		CheckNames: flags.checkNames,
		CheckTypes: types,
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if flags.outputPath != "" {
		if err := writeReportToFile(flags.outputPath, report); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if flags.summary {
		output.RenderSummary(out, report, flags.colored)
		return nil
	}
	switch flags.reportFmt {
	case "json":
		return output.WriteJSON(out, report)
	case "csv":
		return output.WriteCSV(out, report.Findings)
	case "table":
		output.RenderSummary(out, report, flags.colored)
		fmt.Fprintln(out)
		output.RenderTable(out, report.Findings, output.TableOptions{Colored: flags.colored})
		return nil
	default:
		return fmt.Errorf("unknown report format %q (want table, json, or csv)", flags.reportFmt)
	}
}

// writeReportToFile serialises report as indented JSON and writes it to path,
// creating or overwriting the file. It does not affect stdout output.
func writeReportToFile(path string, report *models.AnalysisReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file %q: %w", path, err)
	}
	defer f.Close()
	if err := output.WriteJSON(f, report); err != nil {
		return fmt.Errorf("write report file %q: %w", path, err)
	}
	return nil
}

// knownCheckTypes is the set of valid --types values.
var knownCheckTypes = []models.CheckType{
	models.CheckIdleResource,
	models.CheckRightSizing,
	models.CheckUnattachedVolume,
	models.CheckOldSnapshot,
	models.CheckReservedInstanceOpt,
	models.CheckSavingsPlanOpt,
	models.CheckStorageOpt,
	models.CheckSpotInstanceOpt,
	models.CheckLicenseOpt,
}

func parseCheckTypes(raw []string) ([]models.CheckType, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	types := make([]models.CheckType, 0, len(raw))
	for _, s := range raw {
		ct := models.CheckType(strings.TrimSpace(s))
		ok := false
		for _, known := range knownCheckTypes {
			if ct == known {
				ok = true
				break
			}
		}
		if !ok {
			return nil, fmt.Errorf("unknown check type %q", s)
		}
		types = append(types, ct)
	}
	return types, nil
}

func newChecksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checks",
		Short: "List the available cost-optimization checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := checks.BuildRegistry(checks.BuildParams{Log: zap.NewNop()})
			if err != nil {
				return err
			}
			catalog := registry.Catalog()
			sort.Slice(catalog, func(i, j int) bool { return catalog[i].Name < catalog[j].Name })

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-26s  %-30s  %-12s  %s\n", "NAME", "TYPE", "PROVIDERS", "DESCRIPTION")
			fmt.Fprintln(w, strings.Repeat("-", 110))
			for _, info := range catalog {
				provs := make([]string, len(info.SupportedProviders))
				for i, p := range info.SupportedProviders {
					provs[i] = string(p)
				}
				fmt.Fprintf(w, "%-26s  %-30s  %-12s  %s\n",
					info.Name, string(info.CheckType), strings.Join(provs, ","),
					output.ShortenMessage(info.Description, 60))
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
		},
	}
}
