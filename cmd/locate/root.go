package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/nearby-hospitals/internal/domain"
	"github.com/couchcryptid/nearby-hospitals/internal/resolver"
)

type rootOptions struct {
	lat, lng float64
	jsonOut  bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "locate",
		Short:         "Find hospitals near your current location",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			if err := a.start(cmd.Context()); err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), opts.jsonOut)
		},
	}

	cmd.PersistentFlags().Float64Var(&opts.lat, "lat", 0, "simulate a device fix at this latitude (requires --lng)")
	cmd.PersistentFlags().Float64Var(&opts.lng, "lng", 0, "simulate a device fix at this longitude (requires --lat)")
	cmd.MarkFlagsRequiredTogether("lat", "lng")
	cmd.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print results as JSON")

	cmd.AddCommand(newAddressCmd(opts), newPinCmd(opts), newWatchCmd(opts))
	return cmd
}

func (o *rootOptions) app(cmd *cobra.Command) (*app, error) {
	var fix *domain.Coordinate
	if cmd.Flags().Changed("lat") {
		fix = &domain.Coordinate{Lat: o.lat, Lng: o.lng}
		if err := fix.Validate(); err != nil {
			return nil, err
		}
	}
	return newApp(fix)
}

func newAddressCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "address <text>...",
		Short: "Search near a typed address instead of your device location",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			if err := a.settle(a.resolver.SubmitAddress(cmd.Context(), strings.Join(args, " "))); err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), opts.jsonOut)
		},
	}
}

func newPinCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pin <lat> <lng>",
		Short: "Search near a coordinate chosen on the map",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := parseLatLng(args[0], args[1])
			if err != nil {
				return err
			}
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}

			ev := resolver.OverrideEvent{Coordinate: c, Trigger: resolver.TriggerClick}
			out, err := a.resolver.ApplyOverride(cmd.Context(), ev)
			if err == nil && out.Pending() {
				out, err = confirmPending(cmd, a)
			}
			if err := a.settle(out, err); err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), opts.jsonOut)
		},
	}
}

// confirmPending asks on stdin before applying a proposed override.
func confirmPending(cmd *cobra.Command, a *app) (resolver.Outcome, error) {
	pending := a.resolver.Snapshot().PendingOverride
	fmt.Fprintf(cmd.ErrOrStderr(), "Move your location to %s? [y/N] ", pending.Coordinate)

	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if strings.EqualFold(strings.TrimSpace(answer), "y") {
		return a.resolver.ConfirmOverride(cmd.Context())
	}
	a.resolver.CancelOverride()
	return resolver.Outcome{}, errors.New("location change cancelled")
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Resolve once, then read map clicks as \"lat,lng\" lines from stdin",
		Long: `Resolve once, then read map gestures from stdin, one per line:

  lat,lng        click at a coordinate
  drag lat,lng   drag the location marker
  y / n          confirm or cancel a pending move (REQUIRE_OVERRIDE_CONFIRM=true)`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			surface := newTerminalMap(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), a.logger)
			a.observe(surface, cmd.OutOrStdout(), opts.jsonOut)

			if err := a.start(ctx); err != nil {
				var f *resolver.Failure
				if !errors.As(err, &f) || !f.OffersManualEntry {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), f.Message)
			}

			err = a.consume(ctx, surface)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func parseLatLng(latStr, lngStr string) (domain.Coordinate, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: latitude %q", domain.ErrInvalidCoordinate, latStr)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: longitude %q", domain.ErrInvalidCoordinate, lngStr)
	}
	c := domain.Coordinate{Lat: lat, Lng: lng}
	return c, c.Validate()
}
