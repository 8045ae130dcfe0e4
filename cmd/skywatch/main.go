package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jthorne/skywatch/internal/astro"
	"github.com/jthorne/skywatch/internal/engine"
	"github.com/jthorne/skywatch/internal/store"
	"github.com/jthorne/skywatch/internal/weather"
)

var (
	cfgFile string
	dbPath  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "skywatch",
		Short: "SkyWatch - Decide whether the weather suits your outdoor plans",
		Long: `SkyWatch combines hourly weather forecasts with sun and moon geometry
to answer one question: is tonight (or tomorrow morning) any good for the
thing you want to do outside?`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.skywatch/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default is $HOME/.skywatch/skywatch.db)")

	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(activityCmd())
	rootCmd.AddCommand(forecastCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(bestCmd())
	rootCmd.AddCommand(gonogoCmd())
	rootCmd.AddCommand(gearCmd())
	rootCmd.AddCommand(slotsCmd())
	rootCmd.AddCommand(twilightCmd())
	rootCmd.AddCommand(outlookCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".skywatch")
		os.MkdirAll(configDir, 0755)

		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()
	viper.ReadInConfig()

	if dbPath == "" {
		home, _ := os.UserHomeDir()
		dbPath = filepath.Join(home, ".skywatch", "skywatch.db")
	}
}

func openStore() (*store.Store, error) {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return st, nil
}

func defaultLocation(st *store.Store) (*engine.Location, error) {
	loc, err := st.DefaultLocation()
	if err != nil {
		return nil, fmt.Errorf("no location configured (run 'skywatch init' first)")
	}
	return loc, nil
}

// annotatedForecast returns today's forecast with astronomical data attached,
// from cache when fresh enough.
func annotatedForecast(ctx context.Context, st *store.Store, loc *engine.Location, days int) (*engine.Forecast, error) {
	today := time.Now().UTC()
	if fc, fetchedAt, err := st.GetCachedForecast(loc.Coordinates, today); err == nil {
		if time.Since(fetchedAt) < time.Hour {
			return fc, nil
		}
	}

	fc, err := weather.NewOpenMeteoClient().Forecast(ctx, loc.Coordinates, days)
	if err != nil {
		return nil, fmt.Errorf("fetching forecast: %w", err)
	}
	astro.NewCalculator(loc.Coordinates).Annotate(fc)

	if err := st.CacheForecast(loc.Coordinates, today, fc); err != nil {
		return nil, err
	}
	return fc, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func initCmd() *cobra.Command {
	var name string
	var lat, lon float64
	var tz string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set the observing location and seed the built-in activities",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			loc := &engine.Location{
				ID:          "default",
				Name:        name,
				Coordinates: engine.Coordinates{Latitude: lat, Longitude: lon},
				Timezone:    tz,
				IsDefault:   true,
			}
			if err := st.SaveLocation(loc); err != nil {
				return err
			}

			for _, a := range engine.DefaultActivities() {
				if err := st.SaveActivity(&a); err != nil {
					return err
				}
			}

			fmt.Printf("✓ Location set: %s (%.4f, %.4f)\n", name, lat, lon)
			fmt.Println("✓ Seeded built-in activities")
			fmt.Printf("Database: %s\n", dbPath)
			fmt.Println("\nNext steps:")
			fmt.Println("  1. See the forecast: skywatch forecast")
			fmt.Println("  2. Check an activity: skywatch check -a running")

			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "Home", "Location name")
	cmd.Flags().Float64Var(&lat, "lat", 51.5074, "Latitude")
	cmd.Flags().Float64Var(&lon, "lon", -0.1278, "Longitude")
	cmd.Flags().StringVar(&tz, "tz", "UTC", "IANA timezone name")

	return cmd
}

func activityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Manage activities",
	}

	cmd.AddCommand(activityAddCmd())
	cmd.AddCommand(activityListCmd())

	return cmd
}

func activityAddCmd() *cobra.Command {
	var name, category string
	var minTemp, maxTemp, maxWind, maxCloud, maxPrecip float64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a custom activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			req := engine.Requirements{
				Temperature: &engine.TemperatureRange{},
			}
			if cmd.Flags().Changed("min-temp") {
				req.Temperature.MinC = &minTemp
			}
			if cmd.Flags().Changed("max-temp") {
				req.Temperature.MaxC = &maxTemp
			}
			if cmd.Flags().Changed("max-wind") {
				req.Wind = &engine.WindLimits{MaxSpeedMps: &maxWind}
			}
			if cmd.Flags().Changed("max-cloud") {
				req.Clouds = &engine.CloudLimits{MaxTotalPercent: &maxCloud}
			}
			if cmd.Flags().Changed("max-precip") {
				req.Precipitation = &engine.PrecipLimits{MaxProbabilityPercent: &maxPrecip}
			}

			activity := &engine.Activity{
				ID:           uuid.NewString(),
				Name:         name,
				Category:     engine.ActivityCategory(category),
				Requirements: req,
				Enabled:      true,
			}
			if err := st.SaveActivity(activity); err != nil {
				return err
			}

			fmt.Printf("✓ Added activity: %s\n", name)
			fmt.Printf("  ID: %s\n", activity.ID)

			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Activity name (required)")
	cmd.Flags().StringVar(&category, "category", "custom", "Category (exercise, astronomy, recreation, work, custom)")
	cmd.Flags().Float64Var(&minTemp, "min-temp", 0, "Minimum temperature °C")
	cmd.Flags().Float64Var(&maxTemp, "max-temp", 0, "Maximum temperature °C")
	cmd.Flags().Float64Var(&maxWind, "max-wind", 0, "Maximum wind speed m/s")
	cmd.Flags().Float64Var(&maxCloud, "max-cloud", 0, "Maximum cloud cover %")
	cmd.Flags().Float64Var(&maxPrecip, "max-precip", 0, "Maximum precipitation chance %")

	cmd.MarkFlagRequired("name")

	return cmd
}

func activityListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all activities",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			activities, err := st.GetActivities()
			if err != nil {
				return err
			}

			if len(activities) == 0 {
				fmt.Println("No activities configured")
				return nil
			}

			fmt.Printf("%-25s %-20s %-12s %8s\n", "NAME", "ID", "CATEGORY", "ENABLED")
			fmt.Println("----------------------------------------------------------------------")

			for _, a := range activities {
				enabled := "Yes"
				if !a.Enabled {
					enabled = "No"
				}
				id := a.ID
				if len(id) > 20 {
					id = id[:20]
				}
				fmt.Printf("%-25s %-20s %-12s %8s\n", a.Name, id, a.Category, enabled)
			}

			return nil
		},
	}
}

func forecastCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Fetch the hourly forecast with sun and moon data attached",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			loc, err := defaultLocation(st)
			if err != nil {
				return err
			}

			fc, err := annotatedForecast(context.Background(), st, loc, days)
			if err != nil {
				return err
			}
			return printJSON(fc)
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 3, "Forecast days")

	return cmd
}

func checkCmd() *cobra.Command {
	var activityID string
	var at string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Make a go / marginal / no-go call for an activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			activity, err := st.GetActivity(activityID)
			if err != nil {
				return fmt.Errorf("activity not found: %s", activityID)
			}

			loc, err := defaultLocation(st)
			if err != nil {
				return err
			}

			fc, err := annotatedForecast(context.Background(), st, loc, 0)
			if err != nil {
				return err
			}

			when := time.Now().UTC()
			if at != "" {
				when, err = time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid time (use RFC3339): %w", err)
				}
			}

			hour := fc.At(when)
			if hour == nil {
				return fmt.Errorf("no forecast covers %s", when.Format(time.RFC3339))
			}

			rules := engine.NewRuleEngine()
			decision := rules.MakeDecision(*activity, rules.EvaluateHour(*activity, *hour))
			if err := st.LogDecision(uuid.NewString(), &decision, activity.ID); err != nil {
				return err
			}
			return printJSON(decision)
		},
	}

	cmd.Flags().StringVarP(&activityID, "activity", "a", "", "Activity ID (required)")
	cmd.Flags().StringVar(&at, "at", "", "Time to check (RFC3339, default now)")
	cmd.MarkFlagRequired("activity")

	return cmd
}

func bestCmd() *cobra.Command {
	var activityID string
	var anyHour bool

	cmd := &cobra.Command{
		Use:   "best",
		Short: "Find the best forecast hour for an activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			activity, err := st.GetActivity(activityID)
			if err != nil {
				return fmt.Errorf("activity not found: %s", activityID)
			}

			loc, err := defaultLocation(st)
			if err != nil {
				return err
			}

			fc, err := annotatedForecast(context.Background(), st, loc, 0)
			if err != nil {
				return err
			}

			best := engine.NewRuleEngine().BestTime(*activity, fc, !anyHour)
			if best == nil {
				return fmt.Errorf("no suitable hour in the forecast")
			}
			return printJSON(best)
		},
	}

	cmd.Flags().StringVarP(&activityID, "activity", "a", "", "Activity ID (required)")
	cmd.Flags().BoolVar(&anyHour, "any", false, "Consider hours that fail required conditions")
	cmd.MarkFlagRequired("activity")

	return cmd
}

func gonogoCmd() *cobra.Command {
	var profile string
	var maxMoon, maxCloud float64

	cmd := &cobra.Command{
		Use:   "gonogo",
		Short: "Weighted go/no-go call for observation sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			loc, err := defaultLocation(st)
			if err != nil {
				return err
			}

			fc, err := annotatedForecast(context.Background(), st, loc, 0)
			if err != nil {
				return err
			}

			hour := fc.At(time.Now().UTC())
			if hour == nil {
				return fmt.Errorf("no forecast covers the current hour")
			}

			var evaluator *engine.Evaluator
			switch profile {
			case "astronomy":
				th := engine.DefaultAstronomyThresholds()
				if cmd.Flags().Changed("max-moon") {
					th.MaxMoonIllumination = &maxMoon
				}
				if cmd.Flags().Changed("max-cloud") {
					th.MaxCloudCoverPercent = maxCloud
				}
				evaluator = engine.NewAstronomyEvaluator(th)
			case "solar":
				th := engine.DefaultSolarThresholds()
				if cmd.Flags().Changed("max-cloud") {
					th.MaxCloudCoverPercent = maxCloud
				}
				evaluator = engine.NewSolarEvaluator(th)
			default:
				return fmt.Errorf("unknown profile %q (use astronomy or solar)", profile)
			}

			return printJSON(evaluator.Evaluate(*hour))
		},
	}

	cmd.Flags().StringVarP(&profile, "profile", "p", "astronomy", "Evaluator profile (astronomy, solar)")
	cmd.Flags().Float64Var(&maxMoon, "max-moon", 50, "Maximum moon illumination % (astronomy only)")
	cmd.Flags().Float64Var(&maxCloud, "max-cloud", 30, "Maximum cloud cover %")

	return cmd
}

func gearCmd() *cobra.Command {
	var activity string

	cmd := &cobra.Command{
		Use:   "gear",
		Short: "Recommend what to wear for the current conditions",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			loc, err := defaultLocation(st)
			if err != nil {
				return err
			}

			fc, err := annotatedForecast(context.Background(), st, loc, 0)
			if err != nil {
				return err
			}

			hour := fc.At(time.Now().UTC())
			if hour == nil {
				return fmt.Errorf("no forecast covers the current hour")
			}

			var rules []engine.GearRule
			switch activity {
			case "running":
				rules = engine.RunningGearRules()
			case "cycling":
				rules = engine.CyclingGearRules()
			default:
				return fmt.Errorf("unknown activity %q (use running or cycling)", activity)
			}

			return printJSON(engine.NewRecommender(rules).Recommend(*hour))
		},
	}

	cmd.Flags().StringVarP(&activity, "activity", "a", "running", "Gear profile (running, cycling)")

	return cmd
}

func slotsCmd() *cobra.Command {
	var activityID string
	var minHours, preferredHours, maxSlots int

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Find the best time windows for an activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			activity, err := st.GetActivity(activityID)
			if err != nil {
				return fmt.Errorf("activity not found: %s", activityID)
			}

			loc, err := defaultLocation(st)
			if err != nil {
				return err
			}

			fc, err := annotatedForecast(context.Background(), st, loc, 0)
			if err != nil {
				return err
			}

			opts := engine.DefaultSlotOptions()
			opts.MinDuration = time.Duration(minHours) * time.Hour
			opts.PreferredDuration = time.Duration(preferredHours) * time.Hour
			opts.MaxSlots = maxSlots

			finder := engine.NewSlotFinder(engine.NewRuleEngine())
			return printJSON(finder.FindSlots(*activity, fc, opts))
		},
	}

	cmd.Flags().StringVarP(&activityID, "activity", "a", "", "Activity ID (required)")
	cmd.Flags().IntVar(&minHours, "min-hours", 1, "Minimum slot duration in hours")
	cmd.Flags().IntVar(&preferredHours, "preferred-hours", 2, "Preferred slot duration in hours")
	cmd.Flags().IntVar(&maxSlots, "max-slots", 3, "Maximum slots to return")
	cmd.MarkFlagRequired("activity")

	return cmd
}

func twilightCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "twilight",
		Short: "Print the twilight table for a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			loc, err := defaultLocation(st)
			if err != nil {
				return err
			}

			day := time.Now().UTC()
			if date != "" {
				day, err = time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
				}
			}

			calc := astro.NewCalculator(loc.Coordinates)
			return printJSON(calc.TwilightFor(day))
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Date (YYYY-MM-DD, default today)")

	return cmd
}

func outlookCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "outlook",
		Short: "Multi-day overview with an observing-night flag per day",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			loc, err := defaultLocation(st)
			if err != nil {
				return err
			}

			outlook, err := weather.NewDailyClient().Outlook(context.Background(), loc.Coordinates, days)
			if err != nil {
				return err
			}
			return printJSON(outlook)
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 7, "Days to include")

	return cmd
}
