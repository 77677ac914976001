// Package gtfsrt renders cancellation records as a GTFS-realtime feed in
// which every record is a CANCELED trip.
package gtfsrt

import (
	"fmt"
	"strings"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"tarediiran-industries.com/transit-cancellations/internal/cancellations"
	"tarediiran-industries.com/transit-cancellations/internal/feed"
)

const GtfsRealtimeVersion = "2.0"

type Format string

const (
	FormatProtobuf Format = "protobuf"
	FormatJSON     Format = "json"
)

func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "pb", "protobuf":
		return FormatProtobuf, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want protobuf|json)", value)
	}
}

func (format Format) ContentType() string {
	if format == FormatJSON {
		return "application/json"
	}
	return "application/x-protobuf"
}

// BuildFeed returns a full-dataset feed with one trip update per record, in
// record order. Duplicate records produce duplicate trips with distinct
// entity ids.
func BuildFeed(records []feed.Cancellation, generatedAt time.Time) *gtfs.FeedMessage {
	message := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String(GtfsRealtimeVersion),
			Incrementality:      gtfs.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(uint64(generatedAt.Unix())),
		},
		Entity: make([]*gtfs.FeedEntity, 0, len(records)),
	}

	for i, record := range records {
		message.Entity = append(message.Entity, &gtfs.FeedEntity{
			Id:         proto.String(fmt.Sprintf("%d:%s", i, TripId(record))),
			TripUpdate: &gtfs.TripUpdate{Trip: tripDescriptor(record)},
		})
	}
	return message
}

// TripId identifies a cancelled run by service day, line and train number.
func TripId(record feed.Cancellation) string {
	return fmt.Sprintf("%s-%s-%s", record.Date, record.Line, record.TrainNumber)
}

func tripDescriptor(record feed.Cancellation) *gtfs.TripDescriptor {
	trip := &gtfs.TripDescriptor{
		TripId:               proto.String(TripId(record)),
		ScheduleRelationship: gtfs.TripDescriptor_CANCELED.Enum(),
	}
	if record.Line != "" {
		trip.RouteId = proto.String(record.Line)
	}
	if startDate, ok := startDate(record.Date); ok {
		trip.StartDate = proto.String(startDate)
	}
	if startTime, ok := startTime(record.FromTime); ok {
		trip.StartTime = proto.String(startTime)
	}
	return trip
}

// startDate converts "2006-01-02" into the GTFS "20060102" form.
func startDate(date string) (string, bool) {
	parsed, err := time.Parse(cancellations.DateLayout, date)
	if err != nil {
		return "", false
	}
	return parsed.Format("20060102"), true
}

// startTime converts "HH:MM" into "HH:MM:SS". Hours past 23 are kept, as GTFS
// allows them for trips running past midnight.
func startTime(hhmm string) (string, bool) {
	var hours, minutes int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &hours, &minutes); err != nil {
		return "", false
	}
	if hours < 0 || minutes < 0 || minutes > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d:00", hours, minutes), true
}

func Marshal(message *gtfs.FeedMessage, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		options := protojson.MarshalOptions{Multiline: true}
		return options.Marshal(message)
	default:
		return proto.Marshal(message)
	}
}
