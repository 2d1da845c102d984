package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"boiler_collector/internal/config"
	"boiler_collector/internal/logger"
	"boiler_collector/internal/models"
	"boiler_collector/internal/normalize"
	"boiler_collector/internal/payload"

	"github.com/spf13/cobra"
)

var (
	dumpRaw    bool
	dumpOutput string
)

var dumpCmd = &cobra.Command{
	Use:   "dump [device-id]",
	Short: "Query a device once and print the normalized snapshot",
	Long: `Query a configured device once, parse and normalize the reply and print
it as JSON. The device id may be omitted when only one device is configured.

With --output csv a single space separated line is printed instead:
room_temp outside_temp ch_water_pres ch_water_temp ch_return_temp.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().BoolVar(&dumpRaw, "raw", false, "print the unparsed reply instead")
	dumpCmd.Flags().StringVarP(&dumpOutput, "output", "o", "json", "output format; json or csv")
	rootCmd.AddCommand(dumpCmd)
}

type dumpResult struct {
	Snapshot models.Snapshot        `json:"snapshot"`
	Config   *models.ConfigSnapshot `json:"config,omitempty"`
}

func runDump(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(dumpOutput)
	if format != "json" && format != "csv" {
		return fmt.Errorf("illegal output format %q, valid formats: json, csv", dumpOutput)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.Init(cfg.Log.Level, cfg.Log.Format)

	dc, err := pickDevice(cfg, args)
	if err != nil {
		return err
	}
	q, err := buildQuerier(dc)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	norm, err := normalize.New(cfg.Collector.Generation, loc)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Collector.PollTimeout)
	defer cancel()
	data, err := q.Query(ctx)
	if err != nil {
		return err
	}
	if dumpRaw {
		_, err = cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	}

	raw, err := payload.Parse(data)
	if err != nil {
		return err
	}
	now := time.Now()
	snap, err := norm.Normalize(raw, normalize.Context{Now: now})
	if err != nil {
		return err
	}
	if snap.DeviceID != dc.ID {
		log.Warnw("device id mismatch, serve would reject this reply", "configured", dc.ID, "reply", snap.DeviceID)
	}
	for _, w := range snap.Warnings {
		log.Warnw("validation warning", "field", w.Field, "code", w.Code, "message", w.Message)
	}

	if format == "csv" {
		return writeReadingsLine(cmd.OutOrStdout(), snap.Report)
	}

	out := dumpResult{Snapshot: snap}
	if cs, err := norm.ConfigSnapshot(raw, now); err == nil {
		out.Config = &cs
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// writeReadingsLine prints the headline readings on one line; absent values print as null.
func writeReadingsLine(w io.Writer, r models.Report) error {
	vals := []*float64{r.RoomTemp, r.OutsideTemp, r.CHWaterPres, r.CHWaterTemp, r.CHReturnTemp}
	fields := make([]string, len(vals))
	for i, v := range vals {
		fields[i] = "null"
		if v != nil {
			fields[i] = strconv.FormatFloat(*v, 'f', -1, 64)
		}
	}
	_, err := fmt.Fprintln(w, strings.Join(fields, " "))
	return err
}

// pickDevice returns the device named in args, or the only configured one.
func pickDevice(cfg *config.Config, args []string) (config.DeviceConfig, error) {
	if len(args) == 0 {
		if len(cfg.Devices) != 1 {
			return config.DeviceConfig{}, fmt.Errorf("%d devices configured, name one", len(cfg.Devices))
		}
		return cfg.Devices[0], nil
	}
	dc, ok := cfg.Device(args[0])
	if !ok {
		return config.DeviceConfig{}, fmt.Errorf("device %q is not configured", args[0])
	}
	return dc, nil
}
