package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/bnema/linkers/internal/bot"
	"github.com/bnema/linkers/internal/cleaner"
	"github.com/bnema/linkers/internal/fetcher"
	"github.com/bnema/linkers/internal/logger"
	"github.com/bnema/linkers/internal/models"
	"github.com/bnema/linkers/internal/output"
	"github.com/bnema/linkers/internal/pipeline"
	"github.com/bnema/linkers/internal/pr0gramm"
	"github.com/bnema/linkers/internal/resolver"
	"github.com/bnema/linkers/internal/rules"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     models.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "linkers",
	Short: "Strip tracking parameters from links",
	Long: `Linkers removes tracking parameters from URLs using the ClearURLs
provider rules, optionally resolving AMP pages and redirects first.
It can clean text from the command line or run as a comment bot.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Init(logger.Options{Debug: cfg.Log.Debug, JSON: cfg.Log.JSON})
		return cfg.Validate()
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean [text...]",
	Short: "Clean the links found in text (arguments or stdin)",
	RunE:  runClean,
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Compile the rule document and show statistics",
	RunE:  runProviders,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the comment bot",
	RunE:  runBot,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	// init must work before any valid config exists
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE:              runInit,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./configs/linkers.toml)")
	rootCmd.PersistentFlags().String("rules", "", "rule document URL or path (overrides config)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	_ = viper.BindPFlag("rules.source", rootCmd.PersistentFlags().Lookup("rules"))
	_ = viper.BindPFlag("log.debug", rootCmd.PersistentFlags().Lookup("debug"))

	cleanCmd.Flags().StringP("format", "f", output.FormatText, "output format: "+strings.Join(output.Formats, ", "))
	cleanCmd.Flags().Bool("reply", false, "print the bot reply instead of the links")
	cleanCmd.Flags().Bool("no-amp", false, "skip AMP canonicalization")
	cleanCmd.Flags().Bool("no-redirect", false, "skip redirect resolution")

	providersCmd.Flags().Bool("verbose", false, "list dropped providers")

	rootCmd.AddCommand(cleanCmd, providersCmd, runCmd, initCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("linkers")
		viper.SetConfigType("toml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
	}

	// Set defaults
	viper.SetDefault("http.timeout", "30s")
	viper.SetDefault("http.retries", 3)
	viper.SetDefault("http.user_agent", models.DefaultUserAgent)
	viper.SetDefault("rules.source", models.DefaultRulesSource)
	viper.SetDefault("resolvers.amp.enabled", true)
	viper.SetDefault("resolvers.amp.endpoint", models.DefaultAMPEndpoint)
	viper.SetDefault("resolvers.amp.timeout", "10s")
	viper.SetDefault("resolvers.redirect.enabled", false)
	viper.SetDefault("resolvers.redirect.endpoint", models.DefaultRedirectEndpoint)
	viper.SetDefault("resolvers.redirect.timeout", "10s")
	viper.SetDefault("bot.api_base", models.DefaultAPIBase)
	viper.SetDefault("bot.interval", "60s")
	viper.SetDefault("bot.spacing", "1s")
	viper.SetDefault("bot.mention", models.DefaultMention)

	// Environment: LINKERS_BOT_COOKIES etc., plus the legacy LINKERS_COOKIES
	viper.SetEnvPrefix("LINKERS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("bot.cookies", "LINKERS_BOT_COOKIES", "LINKERS_COOKIES")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing config: %v\n", err)
	}
}

// loadRules downloads (or reads) and compiles the rule document
func loadRules(ctx context.Context, f *fetcher.Fetcher) (*rules.RuleSet, rules.Stats, error) {
	opts := rules.CompileOptions{CaseInsensitive: cfg.Rules.CaseInsensitive}
	return rules.LoadAndCompile(ctx, cfg.Rules.Source, f, opts)
}

// buildPipeline wires the enabled resolvers in their fixed order: AMP, then redirect
func buildPipeline(f *fetcher.Fetcher, noAMP, noRedirect bool) *pipeline.Pipeline {
	amp := cfg.Resolvers.AMP
	redirect := cfg.Resolvers.Redirect

	return pipeline.New(
		pipeline.Stage{
			Resolver: resolver.NewAMP(amp.Endpoint, f),
			Timeout:  amp.Timeout,
			Disabled: !amp.Enabled || noAMP,
		},
		pipeline.Stage{
			Resolver: resolver.NewRedirect(redirect.Endpoint, f),
			Timeout:  redirect.Timeout,
			Disabled: !redirect.Enabled || noRedirect,
		},
	)
}

func runClean(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	asReply, _ := cmd.Flags().GetBool("reply")
	noAMP, _ := cmd.Flags().GetBool("no-amp")
	noRedirect, _ := cmd.Flags().GetBool("no-redirect")

	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	}

	ctx := cmd.Context()
	f := fetcher.New(cfg.HTTP)

	set, _, err := loadRules(ctx, f)
	if err != nil {
		return err
	}

	c := cleaner.New(set, buildPipeline(f, noAMP, noRedirect))
	links := c.Inspect(ctx, text)

	if asReply {
		var cleaned []string
		for _, l := range links {
			if l.Included {
				cleaned = append(cleaned, l.Cleaned)
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), cleaner.Reply(cleaned))
		return nil
	}

	return output.Write(cmd.OutOrStdout(), format, links)
}

func runProviders(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	out := cmd.OutOrStdout()

	f := fetcher.New(cfg.HTTP)

	set, stats, err := loadRules(cmd.Context(), f)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Rule source: %s\n", cfg.Rules.Source)
	fmt.Fprintf(out, "  Providers: %d total, %d compiled, %d dropped\n", stats.Total, set.Len(), stats.Skipped)

	if len(stats.SkipReasons) > 0 {
		fmt.Fprintf(out, "  Drop reasons:\n")
		reasons := make([]string, 0, len(stats.SkipReasons))
		for reason := range stats.SkipReasons {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Fprintf(out, "    - %s: %d\n", reason, stats.SkipReasons[reason])
		}
	}

	if verbose && len(stats.Dropped) > 0 {
		fmt.Fprintf(out, "  Dropped providers:\n")
		for _, name := range stats.Dropped {
			fmt.Fprintf(out, "    - %s\n", name)
		}
	}

	stages := buildPipeline(f, false, false).Names()
	if len(stages) == 0 {
		stages = []string{"none"}
	}
	fmt.Fprintf(out, "  Canonicalization: %s\n", strings.Join(stages, " -> "))
	return nil
}

func runBot(cmd *cobra.Command, args []string) error {
	if cfg.Bot.Cookies == "" {
		return fmt.Errorf("bot.cookies is not set (config or LINKERS_COOKIES); the bot cannot log in")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	f := fetcher.New(cfg.HTTP)

	// The rule set is compiled once here and shared read-only by every run
	set, _, err := loadRules(ctx, f)
	if err != nil {
		return err
	}

	c := cleaner.New(set, buildPipeline(f, false, false))
	client := pr0gramm.NewClient(pr0gramm.Options{
		BaseURL:    cfg.Bot.APIBase,
		Cookies:    cfg.Bot.Cookies,
		HTTPClient: f.Client(),
	})

	return bot.New(client, c, cfg.Bot).Run(ctx)
}

const defaultConfig = `# Linkers configuration

# HTTP client settings (rule download and resolvers)
[http]
timeout = "30s"
retries = 3
user_agent = "Linkers URL Cleaner Bot"

# ClearURLs rule document: URL or local path
[rules]
source = "https://gitlab.com/ClearURLs/rules/-/raw/master/data.min.json"
case_insensitive = false

# Canonicalization passes, run in this order before stripping
[resolvers.amp]
enabled = true
endpoint = "https://www.amputatorbot.com/api/v1/convert"
timeout = "10s"

[resolvers.redirect]
enabled = false
endpoint = "https://redirector.pluoi.workers.dev"
timeout = "10s"

# Comment bot
# cookies may also come from LINKERS_COOKIES
[bot]
api_base = "https://pr0gramm.com/api"
interval = "60s"
spacing = "1s"
mention = "@linkers"
cookies = ""

[log]
debug = false
json = false
`

func runInit(cmd *cobra.Command, args []string) error {
	configPath := "./configs/linkers.toml"
	if cfgFile != "" {
		configPath = cfgFile
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file: %s\n", configPath)
	return nil
}
