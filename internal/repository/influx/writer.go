package influx

import (
	"context"
	"fmt"

	"boiler_collector/internal/models"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// Measurement is the InfluxDB measurement every report is written to.
const Measurement = "boiler_report"

// Writer mirrors recorded snapshots into an InfluxDB bucket.
type Writer struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

// NewWriter connects lazily; the first write reports connectivity problems.
func NewWriter(url, token, org, bucket string) *Writer {
	client := influxdb2.NewClient(url, token)
	return &Writer{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
	}
}

// WriteSnapshot writes one point tagged by device_id at the device time.
// Snapshots without any numeric reading are skipped.
func (w *Writer) WriteSnapshot(ctx context.Context, s models.Snapshot) error {
	fields := snapshotFields(s)
	if len(fields) == 0 {
		return nil
	}

	p := influxdb2.NewPoint(
		Measurement,
		map[string]string{"device_id": s.DeviceID},
		fields,
		s.DeviceTime,
	)
	if err := w.writeAPI.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("error writing to InfluxDB: %w", err)
	}
	return nil
}

// Close releases the client's resources.
func (w *Writer) Close() {
	w.client.Close()
}

func snapshotFields(s models.Snapshot) map[string]interface{} {
	fields := make(map[string]interface{})
	put := func(name string, v *float64) {
		if v != nil {
			fields[name] = *v
		}
	}
	putInt := func(name string, v *int) {
		if v != nil {
			fields[name] = int64(*v)
		}
	}

	r := s.Report
	put("room_temp", r.RoomTemp)
	put("outside_temp", r.OutsideTemp)
	put("pcb_temp", r.PCBTemp)
	put("ch_setpoint", r.CHSetpoint)
	put("ch_water_temp", r.CHWaterTemp)
	put("ch_return_temp", r.CHReturnTemp)
	put("ch_water_pres", r.CHWaterPres)
	put("dhw_water_temp", r.DHWWaterTemp)
	put("dhw_water_pres", r.DHWWaterPres)
	put("shown_set_temp", r.ShownSetTemp)
	put("burning_hours", r.BurningHours)
	put("power_cons", r.PowerCons)
	putInt("boiler_status", r.BoilerStatus)
	putInt("rssi", r.RSSI)
	if d := r.Details; d != nil {
		put("rel_mod_level", d.RelModLevel)
		put("boiler_temp", d.BoilerTemp)
	}
	if sch := s.Schedule; sch != nil {
		put("scheduled_ch_temp", sch.CHTemp)
	}
	if len(fields) == 0 {
		return fields
	}
	if r.BoilerFlags != nil {
		fields["flame_on"] = r.BoilerFlags.Has("flame_on")
	}
	fields["warnings"] = int64(len(s.Warnings))
	return fields
}
