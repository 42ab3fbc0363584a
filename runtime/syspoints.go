/*
Copyright (C) 2024  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package runtime

import (
	"math"
	"time"

	"github.com/arcweld/plcrun/ladder"
)

// System point namespaces (spec 4.10).
const (
	nsSys       = "sys."
	nsRTC       = "rtc."
	nsFault     = "fault."
	nsFirmware  = "firmware."
	nsStorageSD = "storage.sd."
)

// writableSystemTags is the subset of system tags that may be patched
// or forced/written by logic; every other sys./rtc./fault./firmware./
// storage.sd.-prefixed name is read-only (spec 4.10).
var writableSystemTags = map[string]bool{
	"rtc.new_year4": true, "rtc.new_month": true, "rtc.new_day": true,
	"rtc.new_hour": true, "rtc.new_minute": true, "rtc.new_second": true,
	"rtc.apply_date": true, "rtc.apply_time": true,
	"sys.cmd_mode_stop": true, "sys.cmd_watchdog_reset": true,
	"storage.sd.save_cmd": true, "storage.sd.eject_cmd": true, "storage.sd.delete_all_cmd": true,
}

// pulseCommandTags self-clear at the end of any scan where they were
// observed true (spec 4.10).
var pulseCommandTags = []string{
	"rtc.apply_date", "rtc.apply_time", "sys.cmd_mode_stop", "sys.cmd_watchdog_reset",
	"storage.sd.save_cmd", "storage.sd.eject_cmd", "storage.sd.delete_all_cmd",
}

// systemTagTypes records the declared type of every system tag that
// participates in normal Store/Default coercion (clocks and other
// purely-derived bools fall back to the ladder.Bool zero value and
// need no entry here).
var systemTagTypes = map[string]ladder.TagType{
	"rtc.year4": ladder.Int, "rtc.month": ladder.Int, "rtc.day": ladder.Int,
	"rtc.hour": ladder.Int, "rtc.minute": ladder.Int, "rtc.second": ladder.Int, "rtc.weekday": ladder.Int,
	"rtc.new_year4": ladder.Int, "rtc.new_month": ladder.Int, "rtc.new_day": ladder.Int,
	"rtc.new_hour": ladder.Int, "rtc.new_minute": ladder.Int, "rtc.new_second": ladder.Int,
	"firmware.version_major": ladder.Int, "firmware.version_minor": ladder.Int, "firmware.version_patch": ladder.Int,
	"storage.sd.error_code": ladder.Int, "storage.sd.write_status": ladder.Int,
	"sys.scan_counter": ladder.Dint,
	"sys.scan_time_current_ms": ladder.Real, "sys.scan_time_min_ms": ladder.Real, "sys.scan_time_max_ms": ladder.Real,
}

func IsSystemTag(name string) bool {
	for _, ns := range []string{nsSys, nsRTC, nsFault, nsFirmware, nsStorageSD} {
		if len(name) >= len(ns) && name[:len(ns)] == ns {
			return true
		}
	}
	return false
}

// IsReadOnlySystemTag reports whether name is a system tag that
// rejects external writes (both patch and force, spec 4.10/4.11).
func IsReadOnlySystemTag(name string) bool {
	return IsSystemTag(name) && !writableSystemTags[name]
}

const (
	memRTCOffset = "_sys.rtc.offset"
	memMode      = "_sys.mode"
	memScanCount = "_sys.scan_counter"
	memMinScanMs = "_sys.scan_time_min_ms"
	memMaxScanMs = "_sys.scan_time_max_ms"
)

// TimeMode selects the runner's scan-time source (spec 4.8, 9).
type TimeMode int

const (
	FixedStep TimeMode = iota
	Realtime
)

// SystemPoints implements the derived/synthetic tag resolver, RTC
// anchoring, and the command tags described in spec 4.10. Grounded on
// scm/date.go's stdlib time.Parse/Format conventions.
type SystemPoints struct {
	Anchor   time.Time // wall-clock instant corresponding to Timestamp==0, for deterministic RTC in FIXED_STEP mode
	TimeMode TimeMode
}

func NewSystemPoints() *SystemPoints {
	return &SystemPoints{Anchor: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (s *SystemPoints) clockNow(ctx *ScanContext) time.Time {
	offset := 0.0
	if v, ok := ctx.ReadMemory(memRTCOffset); ok {
		offset = v.(float64)
	}
	if s.TimeMode == FixedStep {
		return s.Anchor.Add(time.Duration(ctx.base.Timestamp*float64(time.Second)) + time.Duration(offset*float64(time.Second)))
	}
	return time.Now().Add(time.Duration(offset * float64(time.Second)))
}

// halfPeriods maps the six system clocks to their period's half-width
// in seconds (spec 4.10: 10ms, 100ms, 500ms, 1s, 1m, 1h).
var halfPeriods = map[string]float64{
	"sys.clock_10ms":  0.005,
	"sys.clock_100ms": 0.05,
	"sys.clock_500ms": 0.25,
	"sys.clock_1s":    0.5,
	"sys.clock_1m":    30,
	"sys.clock_1h":    1800,
}

// ReadDerived returns the computed value of a purely-derived system
// tag (one never staged/stored directly), and whether name was
// recognized as such.
func (s *SystemPoints) ReadDerived(ctx *ScanContext, name string) (ladder.Value, bool) {
	if h, ok := halfPeriods[name]; ok {
		toggled := math.Floor(ctx.base.Timestamp/h) != 0 && int64(math.Floor(ctx.base.Timestamp/h))%2 == 1
		return ladder.BoolValue(toggled), true
	}
	switch name {
	case "sys.first_scan":
		return ladder.BoolValue(ctx.base.ScanID == 0), true
	case "sys.always_on":
		return ladder.BoolValue(true), true
	case "sys.mode_run":
		run := true
		if v, ok := ctx.ReadMemory(memMode); ok {
			run = v.(bool)
		}
		return ladder.BoolValue(run), true
	case "sys.scan_clock_toggle":
		cnt := int64(0)
		if v, ok := ctx.ReadMemory(memScanCount); ok {
			cnt = v.(int64)
		}
		return ladder.BoolValue(cnt%2 == 1), true
	case "sys.fixed_scan_mode":
		return ladder.BoolValue(s.TimeMode == FixedStep), true
	case "rtc.year4":
		return ladder.IntValue(float64(s.clockNow(ctx).Year())), true
	case "rtc.month":
		return ladder.IntValue(float64(s.clockNow(ctx).Month())), true
	case "rtc.day":
		return ladder.IntValue(float64(s.clockNow(ctx).Day())), true
	case "rtc.hour":
		return ladder.IntValue(float64(s.clockNow(ctx).Hour())), true
	case "rtc.minute":
		return ladder.IntValue(float64(s.clockNow(ctx).Minute())), true
	case "rtc.second":
		return ladder.IntValue(float64(s.clockNow(ctx).Second())), true
	case "rtc.weekday":
		return ladder.IntValue(float64(int(s.clockNow(ctx).Weekday()) + 1)), true // Sunday=1..Saturday=7
	case "firmware.version_major":
		return ladder.IntValue(1), true
	case "firmware.version_minor":
		return ladder.IntValue(0), true
	case "firmware.version_patch":
		return ladder.IntValue(0), true
	case "storage.sd.ready":
		return ladder.BoolValue(true), true
	case "storage.sd.write_status":
		return ladder.IntValue(0), true
	case "storage.sd.error":
		return ladder.BoolValue(false), true
	case "storage.sd.error_code":
		return ladder.IntValue(0), true
	}
	return ladder.Value{}, false
}

// OnScanStart clears transient faults and RTC error bits and
// processes apply_date/apply_time commands (spec 4.10).
func (s *SystemPoints) OnScanStart(ctx *ScanContext) {
	for _, f := range faultTagNames {
		ctx.WriteTag(f, ladder.BoolValue(false))
	}
	ctx.WriteTag("rtc.apply_date_error", ladder.BoolValue(false))
	ctx.WriteTag("rtc.apply_time_error", ladder.BoolValue(false))

	if ctx.ReadTag("rtc.apply_date").Truthy() {
		y := int(ctx.ReadTag("rtc.new_year4").AsFloat())
		m := int(ctx.ReadTag("rtc.new_month").AsFloat())
		d := int(ctx.ReadTag("rtc.new_day").AsFloat())
		if err := s.applyDate(ctx, y, m, d); err != nil {
			ctx.WriteTag("rtc.apply_date_error", ladder.BoolValue(true))
		}
	}
	if ctx.ReadTag("rtc.apply_time").Truthy() {
		hh := int(ctx.ReadTag("rtc.new_hour").AsFloat())
		mm := int(ctx.ReadTag("rtc.new_minute").AsFloat())
		ss := int(ctx.ReadTag("rtc.new_second").AsFloat())
		if err := s.applyTime(ctx, hh, mm, ss); err != nil {
			ctx.WriteTag("rtc.apply_time_error", ladder.BoolValue(true))
		}
	}
}

func (s *SystemPoints) applyDate(ctx *ScanContext, y, m, d int) error {
	if m < 1 || m > 12 || d < 1 || d > 31 || y < 1 {
		return &ladder.CoerceError{Kind: "address_error", Msg: "invalid date"}
	}
	now := s.clockNow(ctx)
	target := time.Date(y, time.Month(m), d, now.Hour(), now.Minute(), now.Second(), 0, now.Location())
	s.setOffsetFor(ctx, target)
	return nil
}

func (s *SystemPoints) applyTime(ctx *ScanContext, hh, mm, ss int) error {
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 || ss < 0 || ss > 59 {
		return &ladder.CoerceError{Kind: "address_error", Msg: "invalid time"}
	}
	now := s.clockNow(ctx)
	target := time.Date(now.Year(), now.Month(), now.Day(), hh, mm, ss, 0, now.Location())
	s.setOffsetFor(ctx, target)
	return nil
}

func (s *SystemPoints) setOffsetFor(ctx *ScanContext, target time.Time) {
	base := s.Anchor.Add(time.Duration(ctx.base.Timestamp * float64(time.Second)))
	if s.TimeMode != FixedStep {
		base = time.Now()
	}
	offset := target.Sub(base).Seconds()
	ctx.WriteMemory(memRTCOffset, offset)
}

// OnScanEnd updates scan counters and self-clears pulse commands, and
// applies the mode-stop/math-fault-stops-mode rule (spec 4.10).
func (s *SystemPoints) OnScanEnd(ctx *ScanContext, scanMs float64) {
	cnt := int64(0)
	if v, ok := ctx.ReadMemory(memScanCount); ok {
		cnt = v.(int64)
	}
	cnt++
	ctx.WriteMemory(memScanCount, cnt)
	ctx.WriteTag("sys.scan_counter", ladder.IntValue(float64(cnt)))

	minMs, maxMs := scanMs, scanMs
	if v, ok := ctx.ReadMemory(memMinScanMs); ok {
		if v.(float64) < minMs {
			minMs = v.(float64)
		}
	}
	if v, ok := ctx.ReadMemory(memMaxScanMs); ok {
		if v.(float64) > maxMs {
			maxMs = v.(float64)
		}
	}
	ctx.WriteMemory(memMinScanMs, minMs)
	ctx.WriteMemory(memMaxScanMs, maxMs)
	ctx.WriteTag("sys.scan_time_current_ms", ladder.RealValue(scanMs))
	ctx.WriteTag("sys.scan_time_min_ms", ladder.RealValue(minMs))
	ctx.WriteTag("sys.scan_time_max_ms", ladder.RealValue(maxMs))

	run := true
	if v, ok := ctx.ReadMemory(memMode); ok {
		run = v.(bool)
	}
	if ctx.ReadTag("sys.cmd_mode_stop").Truthy() {
		run = false
	}
	if v, faulted := ctx.StagedTag(FaultMath); faulted && v.Truthy() {
		run = false
	}
	ctx.WriteMemory(memMode, run)

	for _, t := range pulseCommandTags {
		if ctx.ReadTag(t).Truthy() {
			ctx.WriteTag(t, ladder.BoolValue(false))
		}
	}
}
