package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"field-service-server/scheduling"
)

type slotsOptions struct {
	open        string
	close       string
	buffer      int
	duration    int
	granularity string
	busy        []string
	capacity    int
}

func newSlotsCmd() *cobra.Command {
	opts := slotsOptions{}

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print the open slots for one day of hours and commitments",
		Example: `  field-service-server slots --open 08:00 --close 17:00 --buffer 15 \
    --busy 10:00/90 --busy 14:00/60 --capacity 6`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSlots(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.open, "open", "08:00", "opening time (HH:MM)")
	cmd.Flags().StringVar(&opts.close, "close", "17:00", "closing time (HH:MM)")
	cmd.Flags().IntVar(&opts.buffer, "buffer", 0, "buffer minutes around every commitment")
	cmd.Flags().IntVar(&opts.duration, "duration", 60, "default booking duration in minutes")
	cmd.Flags().StringVar(&opts.granularity, "granularity", scheduling.GranularityCoarse, "slot granularity: coarse or exact")
	cmd.Flags().StringArrayVar(&opts.busy, "busy", nil, "existing commitment as HH:MM/minutes, repeatable")
	cmd.Flags().IntVar(&opts.capacity, "capacity", 0, "total daily capacity, 0 to skip the capacity line")
	return cmd
}

// parseCommitment reads "HH:MM/minutes".
func parseCommitment(raw string) (scheduling.Commitment, error) {
	start, minutes, ok := strings.Cut(raw, "/")
	if !ok {
		return scheduling.Commitment{}, fmt.Errorf("busy %q: expected HH:MM/minutes", raw)
	}
	t, err := scheduling.ParseTimeOfDay(start)
	if err != nil {
		return scheduling.Commitment{}, fmt.Errorf("busy %q: %w", raw, err)
	}
	d, err := strconv.Atoi(strings.TrimSpace(minutes))
	if err != nil || d <= 0 {
		return scheduling.Commitment{}, fmt.Errorf("busy %q: duration must be a positive number of minutes", raw)
	}
	return scheduling.Commitment{Start: t, DurationMinutes: d}, nil
}

func runSlots(cmd *cobra.Command, opts slotsOptions) error {
	if opts.granularity != scheduling.GranularityCoarse && opts.granularity != scheduling.GranularityExact {
		return fmt.Errorf("granularity must be %s or %s", scheduling.GranularityCoarse, scheduling.GranularityExact)
	}
	open, err := scheduling.ParseTimeOfDay(opts.open)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	closing, err := scheduling.ParseTimeOfDay(opts.close)
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if closing <= open {
		return fmt.Errorf("close %s must be after open %s", closing, open)
	}

	commitments := make([]scheduling.Commitment, 0, len(opts.busy))
	for _, raw := range opts.busy {
		c, err := parseCommitment(raw)
		if err != nil {
			return err
		}
		commitments = append(commitments, c)
	}

	out := cmd.OutOrStdout()
	if opts.capacity > 0 {
		capacity := scheduling.ComputeCapacity(opts.capacity, len(commitments))
		fmt.Fprintf(out, "capacity: %d/%d used (%s)\n", capacity.Used, capacity.Total, capacity.Status)
		if capacity.Status == scheduling.CapacityFull {
			fmt.Fprintln(out, "no slots: day is full")
			return nil
		}
	}

	slots := scheduling.AvailableSlots(
		scheduling.BusinessHours{Open: open, Close: closing},
		commitments,
		scheduling.SlotParams{
			BufferMinutes:   opts.buffer,
			SlotInterval:    scheduling.SlotInterval(opts.granularity),
			DefaultDuration: opts.duration,
		},
	)
	if len(slots) == 0 {
		fmt.Fprintln(out, "no slots")
		return nil
	}
	for _, s := range slots {
		fmt.Fprintf(out, "%s-%s\n", s.Start, s.End)
	}
	return nil
}
