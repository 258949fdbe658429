package tutorial

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Field names with meaning to the service. Everything else a creator sends is
// stored in Extra and returned verbatim.
const (
	FieldID       = "_id"
	FieldLanguage = "language"
	FieldEmail    = "email"
	FieldReview   = "review"
	FieldBook     = "book"
	FieldImage    = "image"
)

// Tutorial is one tutorial listing in the tutorials collection.
type Tutorial struct {
	ID       primitive.ObjectID     `bson:"_id,omitempty"`
	Language string                 `bson:"language" validate:"required"`
	Email    string                 `bson:"email" validate:"required,email"`
	Review   ReviewCount            `bson:"review,omitempty"`
	Book     []string               `bson:"book,omitempty"`
	Image    string                 `bson:"image,omitempty"`
	Extra    map[string]interface{} `bson:",inline"`
}

// HasBooking reports whether email already booked the tutorial.
func (t *Tutorial) HasBooking(email string) bool {
	for _, b := range t.Book {
		if b == email {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices or maps with t.
func (t *Tutorial) Clone() *Tutorial {
	c := *t
	if t.Book != nil {
		c.Book = append([]string(nil), t.Book...)
	}
	if t.Extra != nil {
		c.Extra = make(map[string]interface{}, len(t.Extra))
		for k, v := range t.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}

// Set assigns a single field by its document name, the way $set would.
func (t *Tutorial) Set(key string, value interface{}) error {
	switch key {
	case FieldID:
		id, err := toObjectID(value)
		if err != nil {
			return err
		}
		t.ID = id
	case FieldLanguage:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s must be a string", key)
		}
		t.Language = s
	case FieldEmail:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s must be a string", key)
		}
		t.Email = s
	case FieldImage:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s must be a string", key)
		}
		t.Image = s
	case FieldReview:
		t.Review = reviewFromAny(value)
	case FieldBook:
		book, err := toStrings(value)
		if err != nil {
			return err
		}
		t.Book = book
	default:
		if t.Extra == nil {
			t.Extra = map[string]interface{}{}
		}
		t.Extra[key] = value
	}
	return nil
}

// MarshalJSON flattens Extra next to the known fields.
func (t Tutorial) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(t.Extra)+6)
	for k, v := range t.Extra {
		out[k] = v
	}
	if !t.ID.IsZero() {
		out[FieldID] = t.ID.Hex()
	}
	out[FieldLanguage] = t.Language
	out[FieldEmail] = t.Email
	out[FieldReview] = int64(t.Review)
	if len(t.Book) > 0 {
		out[FieldBook] = t.Book
	}
	if t.Image != "" {
		out[FieldImage] = t.Image
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts an arbitrary object; known keys are type-checked.
func (t *Tutorial) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Tutorial{}
	for k, v := range raw {
		// the store assigns identifiers
		if k == FieldID || v == nil && k != FieldReview {
			continue
		}
		if err := t.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

// ReviewCount is the review counter. Older documents stored it as a string or
// double, so decoding is lenient: anything that is not a number reads as 0.
type ReviewCount int64

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (r *ReviewCount) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Int32:
		*r = ReviewCount(rv.Int32())
	case bsontype.Int64:
		*r = ReviewCount(rv.Int64())
	case bsontype.Double:
		*r = ReviewCount(int64(rv.Double()))
	case bsontype.String:
		*r = parseReview(rv.StringValue())
	default:
		*r = 0
	}
	return nil
}

func reviewFromAny(v interface{}) ReviewCount {
	switch n := v.(type) {
	case float64:
		return ReviewCount(int64(n))
	case int:
		return ReviewCount(n)
	case int32:
		return ReviewCount(n)
	case int64:
		return ReviewCount(n)
	case string:
		return parseReview(n)
	}
	return 0
}

// parseReview reads the leading integer of s, so "12 reviews" counts as 12.
func parseReview(s string) ReviewCount {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && (s[end] == '-' || s[end] == '+')) {
		end++
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return ReviewCount(n)
}

func toObjectID(v interface{}) (primitive.ObjectID, error) {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id, nil
	case string:
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return primitive.NilObjectID, ErrInvalidID
		}
		return oid, nil
	}
	return primitive.NilObjectID, ErrInvalidID
}

func toStrings(v interface{}) ([]string, error) {
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...), nil
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("field %s must be a list of strings", FieldBook)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("field %s must be a list of strings", FieldBook)
}
