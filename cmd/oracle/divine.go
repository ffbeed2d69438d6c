package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/di"
	fortunedomain "github.com/park285/llm-kakao-bots/fortune-server-go/internal/domain/fortune"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/logging"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/usecase/fortune"
)

type divineOptions struct {
	profile   fortunedomain.Profile
	mode      string
	birthDate string
	noImage   bool
	verbose   bool
}

func newDivineCmd() *cobra.Command {
	opts := &divineOptions{}
	cmd := &cobra.Command{
		Use:   "divine",
		Short: "Cast a fortune and print the result as JSON",
		Long: `Cast one fortune with the configured oracle backend.

The command waits for the lucky image before printing unless --no-image is set.
Configuration is read from the environment and .env, as for the server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDivine(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.profile.Name, "name", "", "name of the querent")
	flags.StringVar(&opts.profile.Gender, "gender", "", "gender")
	flags.StringVar(&opts.profile.Age, "age", "", "age in years")
	flags.StringVar(&opts.profile.Zodiac, "zodiac", "", "western zodiac sign")
	flags.StringVar(&opts.birthDate, "birth-date", "", "birth date (YYYY-MM-DD), fills zodiac and age")
	flags.StringVar(&opts.profile.BirthHour, "birth-hour", fortunedomain.BirthHourUnknown, "birth shichen such as 23-1 or 子时, or unknown")
	flags.StringVar(&opts.profile.Intent, "intent", "", "question for the oracle")
	flags.StringVar(&opts.profile.DreamContent, "dream", "", "dream description (dream mode)")
	flags.StringVar(&opts.mode, "mode", string(fortunedomain.ModeDaily), "daily, ziwei or dream")
	flags.BoolVar(&opts.noImage, "no-image", false, "print without waiting for the lucky image")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "write service logs to stderr")
	return cmd
}

func (o *divineOptions) resolveProfile(now time.Time) (fortunedomain.Profile, error) {
	profile := o.profile
	mode, ok := fortunedomain.ParseMode(o.mode)
	if !ok {
		return profile, fmt.Errorf("unknown mode %q", o.mode)
	}
	profile.Mode = mode
	if !fortunedomain.ValidBirthHour(profile.BirthHour) {
		return profile, fmt.Errorf("unknown birth hour %q", profile.BirthHour)
	}
	if mode == fortunedomain.ModeDream && strings.TrimSpace(profile.DreamContent) == "" {
		return profile, errors.New("dream mode requires --dream")
	}

	if o.birthDate != "" {
		birth, err := time.ParseInLocation("2006-01-02", o.birthDate, now.Location())
		if err != nil {
			return profile, fmt.Errorf("invalid birth date %q: %w", o.birthDate, err)
		}
		if birth.After(now) {
			return profile, fmt.Errorf("birth date %s is in the future", o.birthDate)
		}
		if profile.Zodiac == "" {
			profile.Zodiac = fortunedomain.ZodiacFor(birth)
		}
		if profile.Age == "" {
			profile.Age = strconv.Itoa(fortunedomain.AgeOn(birth, now))
		}
	}
	return profile, nil
}

func runDivine(cmd *cobra.Command, opts *divineOptions) error {
	profile, err := opts.resolveProfile(time.Now())
	if err != nil {
		return err
	}

	cfg, err := config.ProvideConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if opts.noImage {
		cfg.Oracle.ImageEnabled = false
	}

	logger := logging.Discard()
	if opts.verbose {
		logger, err = logging.NewLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
	}

	ctx := cmd.Context()
	oracle, err := di.InitializeOracle(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer oracle.Close()

	result := oracle.Service.Divine(ctx, profile)
	if oracle.Dispatcher != nil && result.LuckyImage == "" {
		oracle.Dispatcher.Close()
		if latest, err := oracle.Service.Get(ctx, result.ID); err == nil {
			result = latest
		}
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func newFallbackCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "fallback",
		Short: "Print the fixed fallback fortune for a mode",
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, ok := fortunedomain.ParseMode(mode)
			if !ok {
				return fmt.Errorf("unknown mode %q", mode)
			}
			cfg := config.Load()
			stock := fortune.NewStockImages(cfg.Oracle.FallbackImages, nil)
			return printJSON(cmd.OutOrStdout(), fortunedomain.Fallback(parsed, time.Now(), stock.Pick()))
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(fortunedomain.ModeDaily), "daily, ziwei or dream")
	return cmd
}
