package querier

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/flight"
	"github.com/apache/arrow/go/v14/arrow/flight/flightsql"
	flightgen "github.com/apache/arrow/go/v14/arrow/flight/gen/flight"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/searchlens/searchlens/core"
)

const statementQueryTypeURL = "type.googleapis.com/arrow.flight.protocol.sql.CommandStatementQuery"

// FlightSQLServer exposes the ad-hoc querier over Arrow Flight so BI tools
// can pull dashboard data without going through the JSON API.
type FlightSQLServer struct {
	flightgen.UnimplementedFlightServiceServer
	flightsql.BaseServer
	client core.QueryClient
	mem    memory.Allocator

	results     map[string]arrow.Record
	resultsLock sync.RWMutex
}

func (s *FlightSQLServer) mustEmbedUnimplementedFlightServiceServer() {}

// NewFlightSQLServer creates a new FlightSQL server instance
func NewFlightSQLServer(client core.QueryClient) *FlightSQLServer {
	return &FlightSQLServer{
		client:  client,
		mem:     memory.DefaultAllocator,
		results: make(map[string]arrow.Record),
	}
}

// Handshake echoes any handshake payload back to the client.
func (s *FlightSQLServer) Handshake(stream flight.FlightService_HandshakeServer) error {
	for {
		req, err := stream.Recv()
		if err != nil {
			return err
		}
		if err := stream.Send(&flight.HandshakeResponse{Payload: req.Payload}); err != nil {
			return err
		}
	}
}

func (s *FlightSQLServer) ListFlights(criteria *flight.Criteria, stream flight.FlightService_ListFlightsServer) error {
	return nil
}

func (s *FlightSQLServer) ListActions(request *flight.Empty, stream flight.FlightService_ListActionsServer) error {
	return nil
}

func (s *FlightSQLServer) GetSchema(ctx context.Context, desc *flight.FlightDescriptor) (*flight.SchemaResult, error) {
	return nil, fmt.Errorf("schema requests not supported")
}

// GetFlightInfo handles CommandStatementQuery descriptors: it executes the
// statement, stores the Arrow result under a fresh ticket, and returns an
// endpoint pointing at it.
func (s *FlightSQLServer) GetFlightInfo(ctx context.Context, desc *flight.FlightDescriptor) (*flight.FlightInfo, error) {
	if desc.Type != flight.DescriptorCMD {
		return nil, fmt.Errorf("unsupported flight descriptor type: %v", desc.Type)
	}

	any := &anypb.Any{}
	if err := proto.Unmarshal(desc.Cmd, any); err != nil {
		return nil, fmt.Errorf("failed to unmarshal command: %w", err)
	}
	if any.TypeUrl != statementQueryTypeURL {
		return nil, fmt.Errorf("unsupported command type: %s", any.TypeUrl)
	}

	query := string(any.Value)
	core.Debugf(ctx, "flightsql statement: %s", query)

	results, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	record, err := convertResultsToArrow(results)
	if err != nil {
		return nil, fmt.Errorf("failed to convert results to Arrow format: %w", err)
	}

	ticketID := fmt.Sprintf("query-%d", time.Now().UnixNano())
	s.resultsLock.Lock()
	s.results[ticketID] = record
	s.resultsLock.Unlock()

	return &flight.FlightInfo{
		FlightDescriptor: desc,
		Endpoint: []*flight.FlightEndpoint{
			{Ticket: &flight.Ticket{Ticket: []byte(ticketID)}},
		},
		TotalRecords: record.NumRows(),
		TotalBytes:   -1,
		Schema:       []byte{},
	}, nil
}

// GetFlightInfoStatement implements the FlightSQL fast path for statements.
func (s *FlightSQLServer) GetFlightInfoStatement(ctx context.Context, cmd flightsql.StatementQuery, desc *flight.FlightDescriptor) (*flight.FlightInfo, error) {
	results, err := s.client.Query(ctx, cmd.GetQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	record, err := convertResultsToArrow(results)
	if err != nil {
		return nil, fmt.Errorf("failed to convert results to Arrow format: %w", err)
	}

	ticketID := fmt.Sprintf("query-%d", time.Now().UnixNano())
	s.resultsLock.Lock()
	s.results[ticketID] = record
	s.resultsLock.Unlock()

	return &flight.FlightInfo{
		FlightDescriptor: desc,
		Endpoint: []*flight.FlightEndpoint{
			{Ticket: &flight.Ticket{Ticket: []byte(ticketID)}},
		},
		TotalRecords: record.NumRows(),
		TotalBytes:   -1,
		Schema:       []byte{},
	}, nil
}

// DoGet streams a stored result and then drops it.
func (s *FlightSQLServer) DoGet(ticket *flight.Ticket, stream flight.FlightService_DoGetServer) error {
	s.resultsLock.RLock()
	record, exists := s.results[string(ticket.Ticket)]
	s.resultsLock.RUnlock()

	if !exists {
		return fmt.Errorf("no results found for ticket: %s", string(ticket.Ticket))
	}

	writer := flight.NewRecordWriter(stream, ipc.WithSchema(record.Schema()))
	if err := writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record batch: %w", err)
	}

	s.resultsLock.Lock()
	delete(s.results, string(ticket.Ticket))
	s.resultsLock.Unlock()

	return writer.Close()
}

func (s *FlightSQLServer) DoPut(stream flight.FlightService_DoPutServer) error {
	return fmt.Errorf("put not supported")
}

func (s *FlightSQLServer) DoAction(action *flight.Action, stream flight.FlightService_DoActionServer) error {
	return fmt.Errorf("action %s not supported", action.Type)
}

func (s *FlightSQLServer) DoExchange(stream flight.FlightService_DoExchangeServer) error {
	return fmt.Errorf("exchange not supported")
}

// convertResultsToArrow builds an Arrow record batch from querier rows.
// Column types come from the first non-null value seen per column; values
// that fail to coerce become nulls.
func convertResultsToArrow(results []map[string]interface{}) (arrow.Record, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("no results to convert")
	}

	fields := make([]arrow.Field, 0, len(results[0]))
	for key := range results[0] {
		fields = append(fields, arrow.Field{Name: key, Type: inferColumnType(key, results), Nullable: true})
	}
	schema := arrow.NewSchema(fields, nil)

	arrays := make([]arrow.Array, len(fields))
	for i, field := range fields {
		builder := array.NewBuilder(memory.DefaultAllocator, field.Type)
		for _, row := range results {
			appendValue(builder, field.Type, row[field.Name])
		}
		arrays[i] = builder.NewArray()
		builder.Release()
	}

	return array.NewRecord(schema, arrays, int64(len(results))), nil
}

func inferColumnType(column string, results []map[string]interface{}) arrow.DataType {
	for _, row := range results {
		switch row[column].(type) {
		case nil:
			continue
		case int, int32, int64:
			return arrow.PrimitiveTypes.Int64
		case float32, float64:
			return arrow.PrimitiveTypes.Float64
		case bool:
			return arrow.FixedWidthTypes.Boolean
		case time.Time:
			return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}
		default:
			return arrow.BinaryTypes.String
		}
	}
	return arrow.BinaryTypes.String
}

func appendValue(builder array.Builder, typ arrow.DataType, val interface{}) {
	if val == nil {
		builder.AppendNull()
		return
	}
	switch typ.ID() {
	case arrow.INT64:
		b := builder.(*array.Int64Builder)
		switch v := val.(type) {
		case int:
			b.Append(int64(v))
		case int32:
			b.Append(int64(v))
		case int64:
			b.Append(v)
		case float64:
			b.Append(int64(v))
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				b.Append(n)
			} else {
				b.AppendNull()
			}
		default:
			b.AppendNull()
		}
	case arrow.FLOAT64:
		b := builder.(*array.Float64Builder)
		switch v := val.(type) {
		case float64:
			b.Append(v)
		case float32:
			b.Append(float64(v))
		case int:
			b.Append(float64(v))
		case int64:
			b.Append(float64(v))
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				b.Append(f)
			} else {
				b.AppendNull()
			}
		default:
			b.AppendNull()
		}
	case arrow.BOOL:
		b := builder.(*array.BooleanBuilder)
		if v, ok := val.(bool); ok {
			b.Append(v)
		} else {
			b.AppendNull()
		}
	case arrow.TIMESTAMP:
		b := builder.(*array.TimestampBuilder)
		switch v := val.(type) {
		case time.Time:
			b.Append(arrow.Timestamp(v.UTC().UnixMicro()))
		case string:
			if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
				b.Append(arrow.Timestamp(t.UTC().UnixMicro()))
			} else {
				b.AppendNull()
			}
		default:
			b.AppendNull()
		}
	default:
		builder.(*array.StringBuilder).Append(fmt.Sprintf("%v", val))
	}
}

// StartFlightSQLServer starts the FlightSQL server
func StartFlightSQLServer(port int, client core.QueryClient) error {
	server := NewFlightSQLServer(client)
	s := grpc.NewServer()
	flightgen.RegisterFlightServiceServer(s, server)
	reflection.Register(s)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	return s.Serve(lis)
}
