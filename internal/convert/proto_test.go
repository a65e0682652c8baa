package convert

import (
	"testing"
	"time"

	"github.com/and161185/nutrito/internal/model"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestUpsertRequest_Struct(t *testing.T) {
	t.Parallel()

	req := UpsertRequest{
		Table: model.TableExchanges,
		Rows: []model.Row{{
			"id":            "x1",
			"food_id":       "bread",
			"quantity_left": 1.0,
			"left_unit_id":  nil,
			"items":         []any{map[string]any{"equivalent_food_id": "rice", "quantity": 2.0, "unit_id": "unit_yk"}},
		}},
		OnConflict: "id",
	}
	s, err := ToStruct(req)
	require.NoError(t, err)

	// The wire form is a plain Struct.
	require.Equal(t, "food_exchanges", s.Fields["table"].GetStringValue())
	rows := s.Fields["rows"].GetListValue().GetValues()
	require.Len(t, rows, 1)
	row := rows[0].GetStructValue().Fields
	require.IsType(t, &structpb.Value_NullValue{}, row["left_unit_id"].Kind)
	require.Equal(t, 2.0, row["items"].GetListValue().Values[0].GetStructValue().Fields["quantity"].GetNumberValue())

	back, err := Decode[UpsertRequest](s)
	require.NoError(t, err)
	require.Equal(t, req, back)
}

func TestSession_Struct(t *testing.T) {
	t.Parallel()

	exp := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	in := model.Session{AccessToken: "tok", ExpiresAt: exp, User: model.AuthUser{ID: "u1", Email: "ayse@nutrito.app"}}
	s, err := ToStruct(in)
	require.NoError(t, err)
	require.Equal(t, "2024-05-01T12:30:00Z", s.Fields["expires_at"].GetStringValue())

	out, err := Decode[model.Session](s)
	require.NoError(t, err)
	require.True(t, exp.Equal(out.ExpiresAt))
	require.Equal(t, in.User, out.User)
}

func TestFromStruct_NilAndMismatch(t *testing.T) {
	t.Parallel()

	var e Empty
	require.NoError(t, FromStruct(nil, &e))

	d, err := Decode[DeleteRequest](nil)
	require.NoError(t, err)
	require.Equal(t, DeleteRequest{}, d)

	bad, err := structpb.NewStruct(map[string]any{"count": "many"})
	require.NoError(t, err)
	_, err = Decode[CountResponse](bad)
	require.Error(t, err)
}

func TestToStruct_RejectsNonObjects(t *testing.T) {
	t.Parallel()

	_, err := ToStruct([]int{1, 2})
	require.Error(t, err)

	_, err = ToStruct(map[string]any{"bad": func() {}})
	require.Error(t, err)
}
