// Package export writes dashboards and event-log archives to external
// formats: XLSX workbooks for reporting, Parquet for archival, optionally
// uploaded to S3.
package export

import (
	"fmt"
	"os"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/compress"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"

	"github.com/opspulse/opspulse/internal/model"
)

// eventSchema returns the Arrow schema for archived events.
func eventSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: "timestamp", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
		{Name: "user_id", Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: "user_role", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "module", Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: "action", Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: "action_type", Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: "duration_ms", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	}, nil)
}

// WriteParquetArchive writes the event snapshot to a Parquet file.
// Timestamps are stored as nanoseconds since the Unix epoch.
func WriteParquetArchive(path string, events []model.Event) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer f.Close()

	schema := eventSchema()

	writerProps := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithDictionaryDefault(true),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithStoreSchema(),
	)

	writer, err := pqarrow.NewFileWriter(schema, f, writerProps, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}

	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()

	for _, e := range events {
		builder.Field(0).(*array.StringBuilder).Append(e.ID)
		builder.Field(1).(*array.Int64Builder).Append(e.Timestamp.UnixNano())
		builder.Field(2).(*array.StringBuilder).Append(e.UserID)
		if e.UserRole == "" {
			builder.Field(3).(*array.StringBuilder).AppendNull()
		} else {
			builder.Field(3).(*array.StringBuilder).Append(e.UserRole)
		}
		builder.Field(4).(*array.StringBuilder).Append(string(e.Module))
		builder.Field(5).(*array.StringBuilder).Append(e.Action)
		builder.Field(6).(*array.StringBuilder).Append(string(e.ActionType))
		builder.Field(7).(*array.Int64Builder).Append(e.DurationMS)
	}

	record := builder.NewRecord()
	defer record.Release()

	if err := writer.Write(record); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write archive: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}
	return nil
}
