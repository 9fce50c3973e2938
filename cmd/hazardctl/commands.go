package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/hazard-risk-service/internal/domain"
)

type querier interface {
	Search(ctx context.Context, text string) (domain.QueryResult, error)
	Query(ctx context.Context, loc domain.LocationQuery) domain.QueryResult
}

type eventRefresher interface {
	Refresh(ctx context.Context) domain.EventSnapshot
}

// backend is what the commands run against.
type backend struct {
	queries querier
	events  eventRefresher
	close   func() error
}

type backendFactory func(cmd *cobra.Command, verbose bool) (*backend, error)

func newRootCmd(open backendFactory) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "hazardctl",
		Short:        "Query weather, fire and flood risk, air quality and nearby hazards for a place",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log provider activity to stderr")

	withBackend := func(run func(cmd *cobra.Command, args []string, b *backend) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			b, err := open(cmd, verbose)
			if err != nil {
				return err
			}
			defer func() { _ = b.close() }()
			return run(cmd, args, b)
		}
	}

	root.AddCommand(newQueryCmd(withBackend), newEventsCmd(withBackend))
	return root
}

type runner func(run func(cmd *cobra.Command, args []string, b *backend) error) func(*cobra.Command, []string) error

func newQueryCmd(with runner) *cobra.Command {
	var (
		lat, lon float64
		name     string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "query [place]",
		Short: "Run one hazard query by place name or by --lat/--lon",
		Args:  cobra.ArbitraryArgs,
		RunE: with(func(cmd *cobra.Command, args []string, b *backend) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			byCoord := cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon")

			var loc domain.LocationQuery
			switch {
			case text != "" && byCoord:
				return errors.New("give either a place or --lat/--lon, not both")
			case byCoord:
				if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
					return errors.New("--lat and --lon must be given together")
				}
				c := domain.Coordinate{Lat: lat, Lon: lon}
				if !c.Valid() {
					return fmt.Errorf("coordinate %s out of range", c)
				}
				loc = domain.LocationQuery{DisplayName: name, Coordinate: c}
				if loc.DisplayName == "" {
					loc.DisplayName = c.String()
				}
			case text == "":
				return errors.New("a place or --lat/--lon is required")
			}

			// Proximity needs a populated event cache.
			b.events.Refresh(cmd.Context())

			var (
				result domain.QueryResult
				err    error
			)
			if byCoord {
				result = b.queries.Query(cmd.Context(), loc)
			} else if result, err = b.queries.Search(cmd.Context(), text); err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		}),
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude in decimal degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude in decimal degrees")
	cmd.Flags().StringVar(&name, "name", "", "display name for a coordinate query")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func newEventsCmd(with runner) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Fetch and list current global hazard events",
		Args:  cobra.NoArgs,
		RunE: with(func(cmd *cobra.Command, _ []string, b *backend) error {
			snap := b.events.Refresh(cmd.Context())
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), snap)
			}
			printEvents(cmd.OutOrStdout(), snap)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(w io.Writer, r domain.QueryResult) {
	fmt.Fprintf(w, "LOCATION\t%s (%s)\n", r.Location.DisplayName, r.Location.Coordinate)

	if v := r.Weather.Value; v != nil {
		fmt.Fprintf(w, "WEATHER\t\t%.1f°C, %s, wind %.1f m/s, humidity %.0f%% [%s]\n",
			v.TemperatureC, v.Condition, v.WindSpeedMs, v.HumidityPct, v.Provider)
	} else {
		fmt.Fprintf(w, "WEATHER\t\t%s\n", r.Weather.Message)
	}

	if v := r.Risk.Value; v != nil {
		fmt.Fprintf(w, "RISK\t\t%s [%s]\n", v.Message, v.Forecast.Provider)
	} else {
		fmt.Fprintf(w, "RISK\t\t%s\n", r.Risk.Message)
	}

	if v := r.AirQuality.Value; v != nil {
		fmt.Fprintf(w, "AIR QUALITY\t%s (AQI %d, PM2.5 %.1f)\n", v.Label, v.Reading.AQILevel, v.Reading.PM25)
	} else {
		fmt.Fprintf(w, "AIR QUALITY\t%s\n", r.AirQuality.Message)
	}

	if v := r.Alert.Value; v != nil {
		fmt.Fprintf(w, "ALERT\t\t%s: %s\n", v.Event, v.Headline)
	} else {
		fmt.Fprintf(w, "ALERT\t\t%s\n", r.Alert.Message)
	}

	fmt.Fprintf(w, "NEARBY\t\t%s\n", r.Proximity.Message)
}

func printEvents(w io.Writer, s domain.EventSnapshot) {
	all := s.All()
	fmt.Fprintf(w, "%d events, refreshed %s\n", len(all), s.RefreshedAt.Format("2006-01-02 15:04:05 MST"))
	for _, e := range all {
		fmt.Fprintf(w, "%-8s\t%-24s\t%s\t%s\n", e.Feed, e.Category, e.Coordinate, e.Title)
	}
}
