package ingest

import (
	"fmt"
	"time"

	"github.com/jhigh13/podium-data/internal/metric"
	"github.com/jhigh13/podium-data/internal/provider/tp"
)

// timestampAliases are probed in order for the record's upstream
// timestamp. The provider has shipped all of these across API versions.
var timestampAliases = []string{"DateTime", "dateTime", "datetime", "Date", "date"}

// zonedLayouts carry an explicit offset; localLayouts are zone-less and
// mean the athlete's local wall clock (the provider records the watch's
// local time with no offset).
var zonedLayouts = []string{
	time.RFC3339,
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize converts one raw provider payload into a MetricRecord.
// Zone-less timestamps are read as the athlete's local wall clock, so
// the record keeps the calendar day the provider reported. A record
// without a parseable timestamp is unusable and returns an error; a
// record with a timestamp but no recognized metric fields is valid
// (RawFields will be empty).
func Normalize(raw tp.RawRecord, athleteID int64, loc *time.Location) (*MetricRecord, error) {
	observedAt, err := parseTimestamp(raw, loc)
	if err != nil {
		return nil, err
	}

	local := observedAt.In(loc)
	rec := &MetricRecord{
		AthleteID:  athleteID,
		Date:       time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc),
		ObservedAt: observedAt,
	}

	for _, def := range metric.Definitions {
		val, field, ok := metric.Probe(raw, def.Aliases)
		if !ok {
			continue
		}
		v := val
		switch def.Name {
		case metric.HRV:
			rec.HRV = &v
		case metric.RHR:
			rec.RHR = &v
		case metric.SleepHours:
			rec.SleepHours = &v
		}
		rec.RawFields = append(rec.RawFields, field)
	}
	return rec, nil
}

func parseTimestamp(raw tp.RawRecord, loc *time.Location) (time.Time, error) {
	for _, alias := range timestampAliases {
		v, ok := raw[alias]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		for _, layout := range zonedLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		for _, layout := range localLayouts {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable timestamp %q in field %q", s, alias)
	}
	return time.Time{}, fmt.Errorf("record has no timestamp field")
}
