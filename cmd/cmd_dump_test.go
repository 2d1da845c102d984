package main

import (
	"bytes"
	"testing"

	"boiler_collector/internal/models"
)

func TestWriteReadingsLine(t *testing.T) {
	t.Parallel()

	f := func(v float64) *float64 { return &v }
	tests := []struct {
		name string
		r    models.Report
		want string
	}{
		{
			name: "all readings",
			r:    models.Report{RoomTemp: f(19.5), OutsideTemp: f(-2), CHWaterPres: f(1.8), CHWaterTemp: f(55.25), CHReturnTemp: f(41)},
			want: "19.5 -2 1.8 55.25 41\n",
		},
		{
			name: "missing readings",
			r:    models.Report{RoomTemp: f(20.1)},
			want: "20.1 null null null null\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			if err := writeReadingsLine(&buf, tt.r); err != nil {
				t.Fatalf("writeReadingsLine: %v", err)
			}
			if buf.String() != tt.want {
				t.Fatalf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestRunDump_RejectsUnknownOutput(t *testing.T) {
	dumpOutput = "xml"
	t.Cleanup(func() { dumpOutput = "json" })

	err := runDump(dumpCmd, nil)
	if err == nil {
		t.Fatal("expected an error for output xml")
	}
}
