package device

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"time"

	"boiler_collector/internal/models"
	"boiler_collector/internal/normalize"
	"boiler_collector/internal/payload"
)

// Simulation constants.
const (
	OutsideC           = 8.0  // outside temperature °C
	RoomStartC         = 17.0 // room temperature at start °C
	HysteresisC        = 0.3  // °C band around the room target
	RoomHeatCPerSec    = 0.01 // room gain per second while burning
	RoomLossCPerSec    = 0.002
	WaterRampUpCPerSec = 0.5 // CH water gain per second while burning
	WaterCoolCPerSec   = 0.2
	WaterMaxC          = 60.0
	PressureBar        = 1.6
	burningPowerW      = 7000
)

// boiler_status bits written by the simulator, matching the r4 flag table.
const (
	simCHActive      = 2
	simFlameOn       = 8
	simPumpRunning   = 256
	simOpenThermLink = 512
)

// Simulator produces synthetic retrieve replies with drifting temperatures.
// The room follows a fixed weekly program through the boiler's on/off cycle.
type Simulator struct {
	deviceID string
	now      func() time.Time
	program  *models.Schedule

	mu           sync.Mutex
	roomC        float64
	waterC       float64
	burning      bool
	burningHours float64
	updatedAt    time.Time
}

// NewSimulator starts a simulated device; now may be nil for time.Now.
func NewSimulator(deviceID string, now func() time.Time) *Simulator {
	if now == nil {
		now = time.Now
	}
	return &Simulator{
		deviceID: deviceID,
		now:      now,
		program:  DefaultProgram(),
		roomC:    RoomStartC,
		waterC:   RoomStartC,
	}
}

// DefaultProgram is 20 °C from 07:00 to 09:00 and 17:00 to 23:00, 15 °C otherwise.
func DefaultProgram() *models.Schedule {
	s := &models.Schedule{BaseTemp: 15.0}
	for d := 0; d < models.DaysPerWeek; d++ {
		s.Days[d] = []models.ScheduleEntry{
			{StartMinute: 420, EndMinute: 540, Temp: 20.0},
			{StartMinute: 1020, EndMinute: 1380, Temp: 20.0},
		}
	}
	return s
}

func (s *Simulator) Query(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Op: "simulate", Target: s.deviceID, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	target, _ := normalize.Resolve(s.program, models.WeekdayIndex(now.Weekday()), models.MinuteOfDay(now))
	s.advance(now, target)

	return json.Marshal(map[string]any{"retrieve_reply": s.reply(now, target)})
}

// advance moves the state forward by the time since the previous query.
func (s *Simulator) advance(now time.Time, target float64) {
	if s.updatedAt.IsZero() {
		s.updatedAt = now
		return
	}
	elapsed := now.Sub(s.updatedAt).Seconds()
	if elapsed <= 0 {
		return
	}
	s.updatedAt = now

	switch {
	case s.roomC < target-HysteresisC:
		s.burning = true
	case s.roomC > target+HysteresisC:
		s.burning = false
	}

	if s.burning {
		s.waterC = math.Min(s.waterC+WaterRampUpCPerSec*elapsed, WaterMaxC)
		s.roomC += RoomHeatCPerSec * elapsed
		s.burningHours += elapsed / 3600
		return
	}
	s.waterC = math.Max(s.waterC-WaterCoolCPerSec*elapsed, s.roomC)
	s.roomC = math.Max(s.roomC-RoomLossCPerSec*elapsed, OutsideC)
}

func (s *Simulator) reply(now time.Time, target float64) *payload.RawSnapshot {
	ts := normalize.DeviceSeconds(now)
	status := simOpenThermLink
	power := 0.0
	if s.burning {
		status |= simCHActive | simFlameOn | simPumpRunning
		power = burningPowerW
	}

	program := func(p *models.Schedule) *payload.RawSchedule {
		rs := &payload.RawSchedule{BaseTemp: ptr(p.BaseTemp), Entries: make([][][]float64, models.DaysPerWeek)}
		for d, entries := range p.Days {
			rs.Entries[d] = [][]float64{}
			for _, e := range entries {
				rs.Entries[d] = append(rs.Entries[d], []float64{float64(e.StartMinute), float64(e.EndMinute), e.Temp})
			}
		}
		return rs
	}

	return &payload.RawSnapshot{
		SeqNr: ptr(0),
		Status: &payload.RawStatus{
			DeviceID:         ptr(s.deviceID),
			DeviceStatus:     ptr(16385),
			ConnectionStatus: ptr(23),
			DateTime:         ptr(ts),
		},
		Report: &payload.RawReport{
			ReportTime:   ptr(ts),
			BurningHours: ptr(round2(s.burningHours)),
			DeviceErrors: ptr(""),
			BoilerErrors: ptr(""),
			RoomTemp:     ptr(round2(s.roomC)),
			OutsideTemp:  ptr(OutsideC),
			CHSetpoint:   ptr(WaterMaxC),
			CHWaterTemp:  ptr(round2(s.waterC)),
			CHWaterPres:  ptr(PressureBar),
			CHReturnTemp: ptr(round2(math.Max(s.waterC-10, s.roomC))),
			BoilerStatus: ptr(status),
			ShownSetTemp: ptr(target),
			PowerCons:    ptr(power),
		},
		Control: &models.Control{
			CHMode:     ptr(models.ModeAutomatic),
			CHModeTemp: ptr(target),
		},
		Schedules: &payload.RawSchedules{CH: program(s.program)},
		Configuration: &models.Configuration{
			DownloadURL: ptr("http://firmware.atag-one.com:80/R42"),
			CHMinSet:    ptr(20.0),
			CHMaxSet:    ptr(85.0),
		},
		AccStatus: ptr(payload.AccessGranted),
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func ptr[T any](v T) *T { return &v }
