package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"vanfinder/filter"
	"vanfinder/logging"
	"vanfinder/models"
	"vanfinder/snapshot"

	"github.com/spf13/cobra"
)

type options struct {
	vendorsPath string
	cuisines    []string
	price       string
	minRating   float64
	maxDistance float64
	openNow     bool
	sort        string
	lat         float64
	lon         float64
	asJSON      bool
	logLevel    string
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "vanfilter",
		Short: "Filter and sort food vans from a snapshot file",
		Long: `vanfilter applies the same filter the API uses to a YAML or JSON
vendor snapshot and prints the matching vans, nearest or best first.`,
		Example: `  vanfilter --vendors vans.yaml --cuisine indian --min-rating 4
  vanfilter --vendors vans.yaml --lat 51.52 --lon -0.08 --max-distance 5 --sort distance`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.vendorsPath, "vendors", "f", "", "vendor snapshot file (.yaml or .json)")
	f.StringSliceVarP(&opts.cuisines, "cuisine", "c", nil, "cuisine to include (repeatable, comma separated)")
	f.StringVarP(&opts.price, "price", "p", "", "price tier: budget, mid or premium")
	f.Float64Var(&opts.minRating, "min-rating", 0, "minimum average rating")
	f.Float64Var(&opts.maxDistance, "max-distance", 0, "maximum distance in km from --lat/--lon")
	f.BoolVar(&opts.openNow, "open-now", false, "only vans that are open")
	f.StringVarP(&opts.sort, "sort", "s", "", "sort by distance, rating or name")
	f.Float64Var(&opts.lat, "lat", 0, "origin latitude")
	f.Float64Var(&opts.lon, "lon", 0, "origin longitude")
	f.BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	_ = cmd.MarkFlagRequired("vendors")
	cmd.MarkFlagsRequiredTogether("lat", "lon")

	return cmd
}

func run(cmd *cobra.Command, opts options) error {
	log := logging.NewWithWriter(cmd.ErrOrStderr(), opts.logLevel)

	c, err := buildCriteria(opts)
	if err != nil {
		return err
	}

	var origin *models.Location
	if cmd.Flags().Changed("lat") {
		origin = &models.Location{Latitude: opts.lat, Longitude: opts.lon}
		if !origin.Valid() {
			return fmt.Errorf("origin %.4f,%.4f is out of range", opts.lat, opts.lon)
		}
	}

	snap, err := snapshot.Load(opts.vendorsPath)
	if err != nil {
		return err
	}
	log.Debug("loaded snapshot", "path", opts.vendorsPath, "vendors", len(snap.Vendors))

	res := filter.Evaluate(snap.Vendors, c, origin)
	if c.HasDistanceCap() && origin == nil {
		log.Warn("--max-distance has no effect without --lat/--lon")
	}

	if opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return printResult(cmd.OutOrStdout(), res)
}

// buildCriteria validates flag values. Unlike the HTTP API, the CLI rejects
// unknown values so typos are not silently ignored.
func buildCriteria(opts options) (filter.Criteria, error) {
	var c filter.Criteria

	var names []string
	for _, raw := range opts.cuisines {
		names = append(names, strings.Split(raw, ",")...)
	}
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if _, ok := models.ParseCuisine(name); !ok {
			return c, fmt.Errorf("unknown cuisine %q", strings.TrimSpace(name))
		}
	}
	c.Cuisines = filter.ParseCuisines(names)

	if opts.price != "" {
		tier, ok := models.ParsePriceTier(opts.price)
		if !ok {
			return c, fmt.Errorf("unknown price tier %q", opts.price)
		}
		c.PriceTier = tier
	}

	if opts.minRating < 0 || opts.minRating > 5 {
		return c, fmt.Errorf("--min-rating must be between 0 and 5")
	}
	c.MinRating = opts.minRating

	if opts.maxDistance < 0 {
		return c, fmt.Errorf("--max-distance must not be negative")
	}
	c.MaxDistanceKm = opts.maxDistance
	c.OpenNow = opts.openNow

	if opts.sort != "" {
		key, ok := filter.ParseSortKey(opts.sort)
		if !ok {
			return c, fmt.Errorf("unknown sort key %q", opts.sort)
		}
		c.Sort = key
	}
	return c, nil
}

func printResult(w io.Writer, res filter.Result) error {
	fmt.Fprintf(w, "%d of %d vendors\n", res.Count(), res.Total)
	if res.Count() == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCUISINE\tPRICE\tRATING\tSTATUS\tDISTANCE")
	for _, m := range res.Matches {
		v := m.Vendor
		status := "closed"
		if v.Open {
			status = "open"
		}
		distance := "-"
		if m.HasDistance {
			distance = fmt.Sprintf("%.2f km", m.DistanceKm)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f\t%s\t%s\n", v.ID, v.Name, v.Cuisine, v.PriceTier, v.Rating, status, distance)
	}
	return tw.Flush()
}
