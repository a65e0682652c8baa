package remote

import (
	"context"

	"github.com/and161185/nutrito/internal/convert"
	"github.com/and161185/nutrito/internal/model"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

type unary func(context.Context, *structpb.Struct, ...grpc.CallOption) (*structpb.Struct, error)

func roundTrip[Resp any](ctx context.Context, fn unary, req any) (Resp, error) {
	var zero Resp
	in, err := convert.ToStruct(req)
	if err != nil {
		return zero, err
	}
	out, err := fn(ctx, in)
	if err != nil {
		return zero, fromStatus(err)
	}
	return convert.Decode[Resp](out)
}

// Select reads every row of a table.
func (c *Client) Select(ctx context.Context, q model.SelectQuery) ([]model.Row, error) {
	resp, err := roundTrip[convert.RowsResponse](ctx, c.tables.Select, q)
	return resp.Rows, err
}

// Insert stores row and returns it as the server persisted it.
func (c *Client) Insert(ctx context.Context, table string, row model.Row) (model.Row, error) {
	resp, err := roundTrip[convert.RowResponse](ctx, c.tables.Insert, convert.InsertRequest{Table: table, Row: row})
	return resp.Row, err
}

// Update applies fields to the rows matching m.
func (c *Client) Update(ctx context.Context, table string, m model.Match, fields model.Fields) (int64, error) {
	resp, err := roundTrip[convert.CountResponse](ctx, c.tables.Update, convert.UpdateRequest{Table: table, Match: m, Fields: fields})
	return resp.Count, err
}

// Delete removes the row with id.
func (c *Client) Delete(ctx context.Context, table, id string) (int64, error) {
	resp, err := roundTrip[convert.CountResponse](ctx, c.tables.Delete, convert.DeleteRequest{Table: table, ID: id})
	return resp.Count, err
}

// Upsert writes rows, resolving conflicts on onConflict ("id" when empty).
func (c *Client) Upsert(ctx context.Context, table string, rows []model.Row, onConflict string) (int, error) {
	resp, err := roundTrip[convert.CountResponse](ctx, c.tables.Upsert, convert.UpsertRequest{Table: table, Rows: rows, OnConflict: onConflict})
	return int(resp.Count), err
}
