// Package convert maps typed nutrito.v1 messages to and from google.protobuf.Struct.
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/and161185/nutrito/internal/model"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// RowsResponse answers Tables/Select.
type RowsResponse struct {
	Rows []model.Row `json:"rows"`
}

// InsertRequest is the Tables/Insert request.
type InsertRequest struct {
	Table string    `json:"table"`
	Row   model.Row `json:"row"`
}

// RowResponse answers Tables/Insert with the persisted row.
type RowResponse struct {
	Row model.Row `json:"row"`
}

// UpdateRequest is the Tables/Update request.
type UpdateRequest struct {
	Table  string       `json:"table"`
	Match  model.Match  `json:"match"`
	Fields model.Fields `json:"fields"`
}

// DeleteRequest is the Tables/Delete request.
type DeleteRequest struct {
	Table string `json:"table"`
	ID    string `json:"id"`
}

// UpsertRequest is the Tables/Upsert request.
type UpsertRequest struct {
	Table      string      `json:"table"`
	Rows       []model.Row `json:"rows"`
	OnConflict string      `json:"on_conflict,omitempty"`
}

// CountResponse answers Update, Delete and Upsert.
type CountResponse struct {
	Count int64 `json:"count"`
}

// Credentials is the SignUp / SignInWithPassword request.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse answers SignUp and GetUser.
type UserResponse struct {
	User model.AuthUser `json:"user"`
}

// Empty is a request without fields.
type Empty struct{}

// ToStruct encodes a typed message through its JSON form.
func ToStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return s, nil
}

// FromStruct decodes a Struct into a typed message. A nil Struct decodes as {}.
func FromStruct(s *structpb.Struct, v any) error {
	if s == nil {
		s = &structpb.Struct{}
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}

// Decode is the generic form of FromStruct.
func Decode[T any](s *structpb.Struct) (T, error) {
	var v T
	err := FromStruct(s, &v)
	return v, err
}
